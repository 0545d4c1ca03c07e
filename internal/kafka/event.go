package kafka

import "time"

const (
	EventBookingCreated   = "booking_created"
	EventBookingConfirmed = "booking_confirmed"
	EventBookingCompleted = "booking_completed"
	EventBookingCancelled = "booking_cancelled"
)

type BookingEvent struct {
	Type         string    `json:"type"`
	BookingID    string    `json:"booking_id"`
	TourID       string    `json:"tour_id"`
	TourTitle    string    `json:"tour_title"`
	TouristID    string    `json:"tourist_id"`
	TouristEmail string    `json:"tourist_email"`
	GuideID      string    `json:"guide_id"`
	Date         string    `json:"date"`
	Status       string    `json:"status"`
	OccurredAt   time.Time `json:"occurred_at"`
}
