package domain

import "time"

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "PENDING"
	BookingStatusConfirmed BookingStatus = "CONFIRMED"
	BookingStatusCompleted BookingStatus = "COMPLETED"
	BookingStatusCancelled BookingStatus = "CANCELLED"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCompleted, BookingStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition may leave s.
func (s BookingStatus) Terminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

// Active bookings count against the one-booking-per-tour rule.
func (s BookingStatus) Active() bool {
	return s == BookingStatusPending || s == BookingStatusConfirmed
}

type Booking struct {
	ID        string
	TourID    string
	TouristID string
	Date      time.Time
	Status    BookingStatus
	CreatedAt time.Time
	UpdatedAt time.Time

	Tour    BookingTour
	Tourist BookingTourist
}

// BookingTour and BookingTourist are read-side projections joined onto a booking.
type BookingTour struct {
	Title      string
	PriceCents int64
	GuideID    string
	GuideName  string
}

type BookingTourist struct {
	Name  string
	Email string
}

type BookingFilter struct {
	TouristID string
	GuideID   string
	TourID    string
}
