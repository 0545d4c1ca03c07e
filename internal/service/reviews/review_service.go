package reviews

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/validation"
	"go.uber.org/zap"
)

type ReviewUseCase interface {
	Create(ctx context.Context, actor domain.Actor, input CreateReviewInput) (*domain.Review, error)
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error)
}

type CreateReviewInput struct {
	TourID  string `json:"tourId" validate:"required,uuid"`
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"required,max=1000"`
}

// ListingCache is the cached tour listing, which carries rating aggregates.
type ListingCache interface {
	InvalidateTours(ctx context.Context) error
}

type ReviewService struct {
	tx      repository.Transactor
	reviews repository.ReviewRepository
	listing ListingCache
	log     *zap.Logger
}

type ReviewServiceOption func(*ReviewService)

func WithListingCache(cache ListingCache) ReviewServiceOption {
	return func(s *ReviewService) {
		s.listing = cache
	}
}

func NewReviewService(tx repository.Transactor, reviews repository.ReviewRepository, log *zap.Logger, opts ...ReviewServiceOption) *ReviewService {
	if log == nil {
		log = zap.NewNop()
	}
	s := &ReviewService{tx: tx, reviews: reviews, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create accepts one review per tourist per tour, and only after one of the
// tourist's bookings on that tour was completed.
func (s *ReviewService) Create(ctx context.Context, actor domain.Actor, input CreateReviewInput) (*domain.Review, error) {
	if actor.Role != domain.RoleTourist {
		return nil, fmt.Errorf("%w: only tourists can leave reviews", domain.ErrForbidden)
	}
	input.Comment = strings.TrimSpace(input.Comment)
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:       uuid.NewString(),
		TourID:   input.TourID,
		AuthorID: actor.ID,
		Rating:   input.Rating,
		Comment:  input.Comment,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		if _, err := repos.Tours.GetByID(ctx, input.TourID); err != nil {
			return err
		}
		completed, err := repos.Bookings.HasCompleted(ctx, actor.ID, input.TourID)
		if err != nil {
			return err
		}
		if !completed {
			return fmt.Errorf("%w: you can only review tours you have completed", domain.ErrForbidden)
		}
		exists, err := repos.Reviews.ExistsByAuthorAndTour(ctx, actor.ID, input.TourID)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("%w: you have already reviewed this tour", domain.ErrConflict)
		}
		return repos.Reviews.Create(ctx, review)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("tour_id", review.TourID),
		zap.Int("rating", review.Rating))
	if s.listing != nil {
		if err := s.listing.InvalidateTours(ctx); err != nil {
			s.log.Warn("tour listing invalidation failed", zap.String("review_id", review.ID), zap.Error(err))
		}
	}
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	if filter.TourID == "" && filter.GuideID == "" {
		return nil, validation.Field("tourId", "tourId or guideId is required")
	}
	return s.reviews.List(ctx, filter)
}

var _ ReviewUseCase = (*ReviewService)(nil)
