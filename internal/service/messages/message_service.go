package messages

import (
	"context"
	"fmt"
	"html"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/metrics"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/validation"
	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 50
)

type MessageUseCase interface {
	Send(ctx context.Context, actor domain.Actor, input SendInput) (*domain.Message, error)
	List(ctx context.Context, actor domain.Actor, input ListInput) (*Page, error)
}

type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type SendInput struct {
	BookingID string `json:"bookingId" validate:"required,uuid"`
	Content   string `json:"content" validate:"required,max=1000"`
}

type ListInput struct {
	BookingID string
	Limit     int
	Before    time.Time
}

// Page is a chronological slice of a conversation. NextBefore is the cursor
// for the next older page and is nil when HasMore is false.
type Page struct {
	Messages   []domain.Message
	HasMore    bool
	NextBefore *time.Time
}

type MessageService struct {
	bookings repository.BookingRepository
	messages repository.MessageRepository
	limiter  RateLimiter
	policy   *bluemonday.Policy
	log      *zap.Logger
}

func NewMessageService(bookings repository.BookingRepository, messages repository.MessageRepository, limiter RateLimiter, log *zap.Logger) *MessageService {
	if log == nil {
		log = zap.NewNop()
	}
	return &MessageService{
		bookings: bookings,
		messages: messages,
		limiter:  limiter,
		policy:   bluemonday.StrictPolicy(),
		log:      log,
	}
}

func (s *MessageService) Send(ctx context.Context, actor domain.Actor, input SendInput) (*domain.Message, error) {
	if err := validation.Struct(input); err != nil {
		return nil, err
	}
	content := s.sanitize(input.Content)
	if content == "" {
		return nil, validation.Field("content", "must contain text")
	}

	if _, err := s.participant(ctx, actor, input.BookingID); err != nil {
		return nil, err
	}

	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, actor.ID+":"+input.BookingID)
		switch {
		case err != nil:
			s.log.Warn("message rate limiter unavailable", zap.String("sender_id", actor.ID), zap.Error(err))
		case !allowed:
			metrics.RateLimitRejections.WithLabelValues("messages").Inc()
			return nil, fmt.Errorf("%w: too many messages, slow down", domain.ErrRateLimited)
		}
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		BookingID: input.BookingID,
		SenderID:  actor.ID,
		Content:   content,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *MessageService) List(ctx context.Context, actor domain.Actor, input ListInput) (*Page, error) {
	if _, err := s.participant(ctx, actor, input.BookingID); err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 || limit > MaxPageSize {
		limit = DefaultPageSize
	}

	msgs, err := s.messages.ListBefore(ctx, input.BookingID, input.Before, limit+1)
	if err != nil {
		return nil, err
	}

	page := &Page{HasMore: len(msgs) > limit}
	if page.HasMore {
		msgs = msgs[:limit]
		oldest := msgs[len(msgs)-1].CreatedAt
		page.NextBefore = &oldest
	}
	slices.Reverse(msgs)
	page.Messages = msgs
	return page, nil
}

// participant loads the booking and checks that actor is its tourist or the
// guide of its tour.
func (s *MessageService) participant(ctx context.Context, actor domain.Actor, bookingID string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if actor.ID != booking.TouristID && actor.ID != booking.Tour.GuideID {
		return nil, fmt.Errorf("%w: not a participant of this booking", domain.ErrForbidden)
	}
	return booking, nil
}

const maxSanitizePasses = 4

// sanitize drops all markup and decodes the entities the policy escapes, so
// stored content is plain text. Decoding can expose markup that was
// entity-encoded, so passes repeat until the text is stable. Input that is
// still changing after maxSanitizePasses is stored in its escaped form.
func (s *MessageService) sanitize(content string) string {
	for range maxSanitizePasses {
		next := html.UnescapeString(s.policy.Sanitize(content))
		if next == content {
			return strings.TrimSpace(next)
		}
		content = next
	}
	return strings.TrimSpace(s.policy.Sanitize(content))
}

var _ MessageUseCase = (*MessageService)(nil)
