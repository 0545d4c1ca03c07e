package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/kafka"
	"github.com/localink/localink/internal/metrics"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/validation"
	"go.uber.org/zap"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	TransitionStatus(ctx context.Context, input TransitionInput) (*domain.Booking, error)
	ListBookings(ctx context.Context, input ListInput) ([]domain.Booking, error)
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value any) error
}

// ListingCache is the cached tour listing. Its booking counts go stale when a
// booking is created.
type ListingCache interface {
	InvalidateTours(ctx context.Context) error
}

type BookingService struct {
	tx                 repository.Transactor
	bookings           repository.BookingRepository
	producer           Producer
	listing            ListingCache
	eventsTopic        string
	notificationsTopic string
	maxAdvanceDays     int
	now                func() time.Time
	log                *zap.Logger
}

type CreateBookingInput struct {
	TourID    string `json:"tourId" validate:"required,uuid"`
	TouristID string `json:"touristId" validate:"required"`
	Date      string `json:"date" validate:"required"`
}

type TransitionInput struct {
	BookingID string               `json:"bookingId" validate:"required,uuid"`
	ActorID   string               `json:"actorId" validate:"required"`
	ActorRole domain.Role          `json:"actorRole" validate:"required,oneof=GUIDE TOURIST"`
	Status    domain.BookingStatus `json:"status" validate:"required,oneof=PENDING CONFIRMED COMPLETED CANCELLED"`
}

type ListInput struct {
	Actor     domain.Actor
	TourID    string
	TouristID string
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithListingCache(cache ListingCache) BookingServiceOption {
	return func(s *BookingService) {
		s.listing = cache
	}
}

func WithMaxAdvanceDays(days int) BookingServiceOption {
	return func(s *BookingService) {
		s.maxAdvanceDays = days
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func WithLogger(log *zap.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = log
	}
}

// NewBookingService wires the lifecycle manager. producer may be nil when
// no broker is configured.
func NewBookingService(
	tx repository.Transactor,
	bookings repository.BookingRepository,
	producer Producer,
	eventsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tx:             tx,
		bookings:       bookings,
		producer:       producer,
		eventsTopic:    eventsTopic,
		maxAdvanceDays: 365,
		now:            time.Now,
		log:            zap.NewNop(),
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	date, err := domain.ParseDate(input.Date)
	if err != nil {
		return nil, err
	}

	var created *domain.Booking
	err = s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tour, err := repos.Tours.GetByID(ctx, input.TourID)
		if err != nil {
			return err
		}
		if err := s.checkDate(date); err != nil {
			return err
		}

		active, err := repos.Bookings.FindActiveByTouristAndTour(ctx, input.TouristID, input.TourID)
		if err != nil {
			return err
		}
		if active != nil {
			return fmt.Errorf("%w: you already have a %s booking for this tour", domain.ErrConflict, active.Status)
		}

		confirmed, err := repos.Bookings.CountConfirmed(ctx, tour.ID, date, "")
		if err != nil {
			return err
		}
		if confirmed >= tour.MaxGroupSize {
			return fmt.Errorf("%w: tour is fully booked for %s", domain.ErrCapacityExceeded, date.Format(domain.DateLayout))
		}

		booking := &domain.Booking{
			ID:        uuid.NewString(),
			TourID:    tour.ID,
			TouristID: input.TouristID,
			Date:      date,
			Status:    domain.BookingStatusPending,
		}
		if err := repos.Bookings.Insert(ctx, booking); err != nil {
			return err
		}

		created, err = repos.Bookings.GetByID(ctx, booking.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(created.Status)).Inc()
	s.log.Info("booking created",
		zap.String("booking_id", created.ID),
		zap.String("tour_id", created.TourID),
		zap.String("tourist_id", created.TouristID),
		zap.String("date", created.Date.Format(domain.DateLayout)))
	if s.listing != nil {
		if err := s.listing.InvalidateTours(ctx); err != nil {
			s.log.Warn("tour listing invalidation failed", zap.String("booking_id", created.ID), zap.Error(err))
		}
	}
	s.publish(ctx, kafka.EventBookingCreated, created)
	return created, nil
}

func (s *BookingService) TransitionStatus(ctx context.Context, input TransitionInput) (*domain.Booking, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	actor := domain.Actor{ID: input.ActorID, Role: input.ActorRole}

	var (
		updated *domain.Booking
		from    domain.BookingStatus
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		current, err := repos.Bookings.GetByID(ctx, input.BookingID)
		if err != nil {
			return err
		}
		if err := authorize(actor, current); err != nil {
			return err
		}
		if err := checkTransition(actor.Role, current.Status, input.Status); err != nil {
			return err
		}

		if input.Status == domain.BookingStatusConfirmed {
			tour, err := repos.Tours.GetByID(ctx, current.TourID)
			if err != nil {
				return err
			}
			confirmed, err := repos.Bookings.CountConfirmed(ctx, current.TourID, current.Date, current.ID)
			if err != nil {
				return err
			}
			if confirmed >= tour.MaxGroupSize {
				return fmt.Errorf("%w: tour is fully booked for %s", domain.ErrCapacityExceeded, current.Date.Format(domain.DateLayout))
			}
		}

		if err := repos.Bookings.UpdateStatus(ctx, current.ID, input.Status); err != nil {
			return err
		}
		from = current.Status
		updated, err = repos.Bookings.GetByID(ctx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.BookingTransitions.WithLabelValues(string(updated.Status)).Inc()
	s.log.Info("booking status changed",
		zap.String("booking_id", updated.ID),
		zap.String("from", string(from)),
		zap.String("to", string(updated.Status)),
		zap.String("actor_id", actor.ID))
	s.publish(ctx, eventType(updated.Status), updated)
	return updated, nil
}

func (s *BookingService) ListBookings(ctx context.Context, input ListInput) ([]domain.Booking, error) {
	filter := domain.BookingFilter{TourID: input.TourID}
	switch input.Actor.Role {
	case domain.RoleGuide:
		filter.GuideID = input.Actor.ID
		filter.TouristID = input.TouristID
	case domain.RoleTourist:
		filter.TouristID = input.Actor.ID
	default:
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrForbidden, input.Actor.Role)
	}
	return s.bookings.List(ctx, filter)
}

// checkDate accepts dates after today and at most maxAdvanceDays ahead.
func (s *BookingService) checkDate(date time.Time) error {
	today := domain.TruncateDay(s.now())
	if !date.After(today) {
		return fmt.Errorf("%w: booking date must be in the future", domain.ErrInvalidDate)
	}
	if date.After(today.AddDate(0, 0, s.maxAdvanceDays)) {
		return fmt.Errorf("%w: booking date must be within %d days", domain.ErrInvalidDate, s.maxAdvanceDays)
	}
	return nil
}

func eventType(status domain.BookingStatus) string {
	switch status {
	case domain.BookingStatusConfirmed:
		return kafka.EventBookingConfirmed
	case domain.BookingStatusCompleted:
		return kafka.EventBookingCompleted
	case domain.BookingStatusCancelled:
		return kafka.EventBookingCancelled
	}
	return kafka.EventBookingCreated
}

// publish runs after commit; a broker failure is logged, never returned.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking) {
	if s.producer == nil || s.eventsTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:         eventType,
		BookingID:    booking.ID,
		TourID:       booking.TourID,
		TourTitle:    booking.Tour.Title,
		TouristID:    booking.TouristID,
		TouristEmail: booking.Tourist.Email,
		GuideID:      booking.Tour.GuideID,
		Date:         booking.Date.Format(domain.DateLayout),
		Status:       string(booking.Status),
		OccurredAt:   s.now().UTC(),
	}

	topics := []string{s.eventsTopic}
	if s.notificationsTopic != "" {
		topics = append(topics, s.notificationsTopic)
	}
	for _, topic := range topics {
		if err := s.producer.Publish(ctx, topic, booking.ID, event); err != nil {
			s.log.Warn("failed to publish booking event",
				zap.String("type", eventType),
				zap.String("booking_id", booking.ID),
				zap.String("topic", topic),
				zap.Error(err))
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
