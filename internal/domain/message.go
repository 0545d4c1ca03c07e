package domain

import "time"

type Message struct {
	ID        string
	BookingID string
	SenderID  string
	Content   string
	CreatedAt time.Time

	SenderName  string
	SenderImage string
}
