package api

import (
	"time"

	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/service/messages"
	"github.com/localink/localink/internal/service/tours"
)

type tourResponse struct {
	ID           string    `json:"id"`
	GuideID      string    `json:"guideId"`
	GuideName    string    `json:"guideName"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Location     string    `json:"location"`
	Price        float64   `json:"price"`
	Duration     int       `json:"duration"`
	MaxGroupSize int       `json:"maxGroupSize"`
	Included     []string  `json:"included"`
	Image        string    `json:"image,omitempty"`
	AvgRating    float64   `json:"avgRating"`
	ReviewCount  int       `json:"reviewCount"`
	BookingCount int       `json:"bookingCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type tourDetailsResponse struct {
	tourResponse
	Reviews []reviewResponse `json:"reviews"`
}

type bookingTourResponse struct {
	Title     string  `json:"title"`
	Price     float64 `json:"price"`
	GuideID   string  `json:"guideId"`
	GuideName string  `json:"guideName"`
}

type bookingTouristResponse struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type bookingResponse struct {
	ID        string                 `json:"id"`
	TourID    string                 `json:"tourId"`
	TouristID string                 `json:"touristId"`
	Date      string                 `json:"date"`
	Status    string                 `json:"status"`
	CreatedAt time.Time              `json:"createdAt"`
	UpdatedAt time.Time              `json:"updatedAt"`
	Tour      bookingTourResponse    `json:"tour"`
	Tourist   bookingTouristResponse `json:"tourist"`
}

type reviewResponse struct {
	ID          string    `json:"id"`
	TourID      string    `json:"tourId"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	AuthorImage string    `json:"authorImage,omitempty"`
	TourTitle   string    `json:"tourTitle,omitempty"`
	Rating      int       `json:"rating"`
	Comment     string    `json:"comment"`
	CreatedAt   time.Time `json:"createdAt"`
}

type messageResponse struct {
	ID          string    `json:"id"`
	BookingID   string    `json:"bookingId"`
	SenderID    string    `json:"senderId"`
	SenderName  string    `json:"senderName"`
	SenderImage string    `json:"senderImage,omitempty"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}

type messagePageResponse struct {
	Messages   []messageResponse `json:"messages"`
	HasMore    bool              `json:"hasMore"`
	NextBefore *time.Time        `json:"nextBefore"`
}

type profileResponse struct {
	Bio       string   `json:"bio"`
	Location  string   `json:"location"`
	Languages []string `json:"languages"`
	Expertise []string `json:"expertise"`
}

type userResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Email   string           `json:"email"`
	Role    string           `json:"role"`
	Image   string           `json:"image,omitempty"`
	Profile *profileResponse `json:"profile"`
}

func cents(v int64) float64 {
	return float64(v) / 100
}

func newTourResponse(t domain.Tour) tourResponse {
	included := t.Included
	if included == nil {
		included = []string{}
	}
	return tourResponse{
		ID:           t.ID,
		GuideID:      t.GuideID,
		GuideName:    t.GuideName,
		Title:        t.Title,
		Description:  t.Description,
		Location:     t.Location,
		Price:        cents(t.PriceCents),
		Duration:     t.DurationHours,
		MaxGroupSize: t.MaxGroupSize,
		Included:     included,
		Image:        t.ImageURL,
		AvgRating:    t.AvgRating,
		ReviewCount:  t.ReviewCount,
		BookingCount: t.BookingCount,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func newTourDetailsResponse(d *tours.TourDetails) tourDetailsResponse {
	out := tourDetailsResponse{tourResponse: newTourResponse(d.Tour), Reviews: make([]reviewResponse, 0, len(d.Reviews))}
	for _, r := range d.Reviews {
		out.Reviews = append(out.Reviews, newReviewResponse(r))
	}
	return out
}

func newBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:        b.ID,
		TourID:    b.TourID,
		TouristID: b.TouristID,
		Date:      b.Date.Format(domain.DateLayout),
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
		Tour: bookingTourResponse{
			Title:     b.Tour.Title,
			Price:     cents(b.Tour.PriceCents),
			GuideID:   b.Tour.GuideID,
			GuideName: b.Tour.GuideName,
		},
		Tourist: bookingTouristResponse{Name: b.Tourist.Name, Email: b.Tourist.Email},
	}
}

func newReviewResponse(r domain.Review) reviewResponse {
	return reviewResponse{
		ID:          r.ID,
		TourID:      r.TourID,
		AuthorID:    r.AuthorID,
		AuthorName:  r.AuthorName,
		AuthorImage: r.AuthorImage,
		TourTitle:   r.TourTitle,
		Rating:      r.Rating,
		Comment:     r.Comment,
		CreatedAt:   r.CreatedAt,
	}
}

func newMessageResponse(m domain.Message) messageResponse {
	return messageResponse{
		ID:          m.ID,
		BookingID:   m.BookingID,
		SenderID:    m.SenderID,
		SenderName:  m.SenderName,
		SenderImage: m.SenderImage,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt,
	}
}

func newMessagePageResponse(p *messages.Page) messagePageResponse {
	out := messagePageResponse{Messages: make([]messageResponse, 0, len(p.Messages)), HasMore: p.HasMore, NextBefore: p.NextBefore}
	for _, m := range p.Messages {
		out.Messages = append(out.Messages, newMessageResponse(m))
	}
	return out
}

func newUserResponse(u *domain.User) userResponse {
	out := userResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: string(u.Role), Image: u.ImageURL}
	if u.Profile != nil {
		out.Profile = &profileResponse{
			Bio:       u.Profile.Bio,
			Location:  u.Profile.Location,
			Languages: nonNil(u.Profile.Languages),
			Expertise: nonNil(u.Profile.Expertise),
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
