package domain

import "time"

type Tour struct {
	ID            string
	GuideID       string
	Title         string
	Description   string
	Location      string
	PriceCents    int64
	DurationHours int
	MaxGroupSize  int
	Included      []string
	ImageURL      string
	CreatedAt     time.Time
	UpdatedAt     time.Time

	GuideName    string
	AvgRating    float64
	ReviewCount  int
	BookingCount int
}

type TourFilter struct {
	GuideID  string
	Location string
}

// Empty reports whether f selects the public listing.
func (f TourFilter) Empty() bool {
	return f.GuideID == "" && f.Location == ""
}
