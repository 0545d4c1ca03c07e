package domain

import "time"

type Review struct {
	ID        string
	TourID    string
	AuthorID  string
	Rating    int
	Comment   string
	CreatedAt time.Time

	AuthorName  string
	AuthorImage string
	TourTitle   string
}

type ReviewFilter struct {
	TourID  string
	GuideID string
}
