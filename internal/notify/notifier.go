package notify

import (
	"context"
	"fmt"

	"github.com/localink/localink/internal/kafka"
	"go.uber.org/zap"
)

type Notification struct {
	RecipientID string
	Subject     string
	Body        string
}

// Notifier turns booking events into notifications for the participant who
// did not cause the event. Delivery is a log line; a mail or push sender can
// replace deliver without touching recipient resolution.
type Notifier struct {
	log     *zap.Logger
	deliver func(ctx context.Context, n Notification) error
}

func NewNotifier(log *zap.Logger) *Notifier {
	n := &Notifier{log: log}
	n.deliver = n.logDelivery
	return n
}

func (n *Notifier) Notify(ctx context.Context, event kafka.BookingEvent) error {
	note, ok := Build(event)
	if !ok {
		n.log.Debug("no notification for event", zap.String("type", event.Type), zap.String("booking_id", event.BookingID))
		return nil
	}
	return n.deliver(ctx, note)
}

// Build maps an event to its notification. Tourists hear about decisions a
// guide made; guides hear about requests and cancellations.
func Build(event kafka.BookingEvent) (Notification, bool) {
	title := event.TourTitle
	if title == "" {
		title = "your tour"
	}

	switch event.Type {
	case kafka.EventBookingCreated:
		return Notification{
			RecipientID: event.GuideID,
			Subject:     "New booking request",
			Body:        fmt.Sprintf("A tourist requested %s on %s.", title, event.Date),
		}, true
	case kafka.EventBookingCancelled:
		return Notification{
			RecipientID: event.GuideID,
			Subject:     "Booking cancelled",
			Body:        fmt.Sprintf("The booking for %s on %s was cancelled.", title, event.Date),
		}, true
	case kafka.EventBookingConfirmed:
		return Notification{
			RecipientID: event.TouristID,
			Subject:     "Booking confirmed",
			Body:        fmt.Sprintf("Your booking for %s on %s is confirmed.", title, event.Date),
		}, true
	case kafka.EventBookingCompleted:
		return Notification{
			RecipientID: event.TouristID,
			Subject:     "How was your tour?",
			Body:        fmt.Sprintf("Your tour %s is complete. You can now leave a review.", title),
		}, true
	}
	return Notification{}, false
}

func (n *Notifier) logDelivery(_ context.Context, note Notification) error {
	n.log.Info("notification",
		zap.String("recipient_id", note.RecipientID),
		zap.String("subject", note.Subject),
		zap.String("body", note.Body))
	return nil
}
