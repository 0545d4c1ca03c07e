package tours

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/validation"
	"go.uber.org/zap"
)

type TourUseCase interface {
	List(ctx context.Context, filter domain.TourFilter) ([]domain.Tour, error)
	Get(ctx context.Context, id string) (*TourDetails, error)
	Create(ctx context.Context, actor domain.Actor, input TourInput) (*domain.Tour, error)
	Update(ctx context.Context, actor domain.Actor, id string, input TourInput) (*domain.Tour, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error
}

// TourCache holds the public tour listing. GetTours returns nil on a miss.
type TourCache interface {
	GetTours(ctx context.Context) ([]domain.Tour, error)
	SetTours(ctx context.Context, tours []domain.Tour) error
	InvalidateTours(ctx context.Context) error
}

type TourInput struct {
	Title         string   `json:"title" validate:"required,min=3,max=100"`
	Description   string   `json:"description" validate:"required,min=10,max=2000"`
	Location      string   `json:"location" validate:"required,min=2,max=100"`
	Price         float64  `json:"price" validate:"gt=0"`
	DurationHours int      `json:"duration" validate:"min=1,max=720"`
	MaxGroupSize  int      `json:"maxGroupSize" validate:"min=1,max=100"`
	Included      []string `json:"included" validate:"max=20,dive,required,max=100"`
	ImageURL      string   `json:"image" validate:"omitempty,url"`
}

func (in *TourInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ImageURL = strings.TrimSpace(in.ImageURL)
	for i := range in.Included {
		in.Included[i] = strings.TrimSpace(in.Included[i])
	}
}

// validate runs the schema and then rejects prices that round to zero cents.
func (in TourInput) validate() error {
	if err := validation.Struct(in); err != nil {
		return err
	}
	if in.priceCents() < 1 {
		return validation.Field("price", "must be at least 0.01")
	}
	return nil
}

func (in TourInput) priceCents() int64 {
	return int64(math.Round(in.Price * 100))
}

func (in TourInput) apply(t *domain.Tour) {
	t.Title = in.Title
	t.Description = in.Description
	t.Location = in.Location
	t.PriceCents = in.priceCents()
	t.DurationHours = in.DurationHours
	t.MaxGroupSize = in.MaxGroupSize
	t.Included = in.Included
	t.ImageURL = in.ImageURL
}

type TourDetails struct {
	domain.Tour
	Reviews []domain.Review
}

type TourService struct {
	tx      repository.Transactor
	tours   repository.TourRepository
	reviews repository.ReviewRepository
	cache   TourCache
	log     *zap.Logger
}

type TourServiceOption func(*TourService)

func WithCache(cache TourCache) TourServiceOption {
	return func(s *TourService) {
		s.cache = cache
	}
}

func WithLogger(log *zap.Logger) TourServiceOption {
	return func(s *TourService) {
		s.log = log
	}
}

func NewTourService(tx repository.Transactor, tours repository.TourRepository, reviews repository.ReviewRepository, opts ...TourServiceOption) *TourService {
	s := &TourService{tx: tx, tours: tours, reviews: reviews, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List serves the unfiltered listing from cache when possible. Cache errors
// degrade to a database read.
func (s *TourService) List(ctx context.Context, filter domain.TourFilter) ([]domain.Tour, error) {
	cacheable := s.cache != nil && filter.Empty()
	if cacheable {
		cached, err := s.cache.GetTours(ctx)
		if err != nil {
			s.log.Warn("tour cache read failed", zap.Error(err))
		} else if cached != nil {
			return cached, nil
		}
	}

	tours, err := s.tours.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable {
		if err := s.cache.SetTours(ctx, tours); err != nil {
			s.log.Warn("tour cache write failed", zap.Error(err))
		}
	}
	return tours, nil
}

func (s *TourService) Get(ctx context.Context, id string) (*TourDetails, error) {
	tour, err := s.tours.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.List(ctx, domain.ReviewFilter{TourID: id})
	if err != nil {
		return nil, err
	}
	return &TourDetails{Tour: *tour, Reviews: reviews}, nil
}

func (s *TourService) Create(ctx context.Context, actor domain.Actor, input TourInput) (*domain.Tour, error) {
	if actor.Role != domain.RoleGuide {
		return nil, fmt.Errorf("%w: only guides can create tours", domain.ErrForbidden)
	}
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	var created *domain.Tour
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tour := &domain.Tour{ID: uuid.NewString(), GuideID: actor.ID}
		input.apply(tour)
		if err := repos.Tours.Create(ctx, tour); err != nil {
			return err
		}
		var err error
		created, err = repos.Tours.GetByID(ctx, tour.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.Info("tour created", zap.String("tour_id", created.ID), zap.String("guide_id", actor.ID))
	return created, nil
}

func (s *TourService) Update(ctx context.Context, actor domain.Actor, id string, input TourInput) (*domain.Tour, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	var updated *domain.Tour
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tour, err := repos.Tours.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(actor, tour); err != nil {
			return err
		}
		if input.MaxGroupSize < tour.MaxGroupSize {
			confirmed, err := repos.Bookings.MaxConfirmedPerDate(ctx, id)
			if err != nil {
				return err
			}
			if confirmed > input.MaxGroupSize {
				return fmt.Errorf("%w: %d bookings are already confirmed on one date, group size cannot drop to %d",
					domain.ErrCapacityExceeded, confirmed, input.MaxGroupSize)
			}
		}
		input.apply(tour)
		if err := repos.Tours.Update(ctx, tour); err != nil {
			return err
		}
		updated, err = repos.Tours.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	return updated, nil
}

// Delete refuses tours that have ever been booked; bookings keep their tour.
func (s *TourService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		tour, err := repos.Tours.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := checkOwner(actor, tour); err != nil {
			return err
		}
		n, err := repos.Bookings.CountByTour(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("%w: tour has %d bookings", domain.ErrConflict, n)
		}
		return repos.Tours.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.Info("tour deleted", zap.String("tour_id", id), zap.String("guide_id", actor.ID))
	return nil
}

func (s *TourService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateTours(ctx); err != nil {
		s.log.Warn("tour cache invalidation failed", zap.Error(err))
	}
}

func checkOwner(actor domain.Actor, tour *domain.Tour) error {
	if actor.Role != domain.RoleGuide || tour.GuideID != actor.ID {
		return fmt.Errorf("%w: you can only modify your own tours", domain.ErrForbidden)
	}
	return nil
}

var _ TourUseCase = (*TourService)(nil)
