package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/localink/localink/internal/domain"
)

type TourRepository interface {
	List(ctx context.Context, filter domain.TourFilter) ([]domain.Tour, error)
	GetByID(ctx context.Context, id string) (*domain.Tour, error)
	Create(ctx context.Context, tour *domain.Tour) error
	Update(ctx context.Context, tour *domain.Tour) error
	Delete(ctx context.Context, id string) error
}

type PGTourRepository struct {
	db DBTX
}

func NewTourRepository(db DBTX) TourRepository {
	return &PGTourRepository{db: db}
}

const tourSelect = `SELECT t.id, t.guide_id, t.title, t.description, t.location, t.price_cents,
	t.duration_hours, t.max_group_size, t.included, t.image_url, t.created_at, t.updated_at,
	g.name,
	COALESCE((SELECT AVG(r.rating)::float8 FROM reviews r WHERE r.tour_id = t.id), 0),
	(SELECT count(*) FROM reviews r WHERE r.tour_id = t.id),
	(SELECT count(*) FROM bookings b WHERE b.tour_id = t.id)
FROM tours t
JOIN users g ON g.id = t.guide_id`

func scanTour(row pgx.Row) (*domain.Tour, error) {
	var t domain.Tour
	if err := row.Scan(&t.ID, &t.GuideID, &t.Title, &t.Description, &t.Location, &t.PriceCents,
		&t.DurationHours, &t.MaxGroupSize, &t.Included, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt,
		&t.GuideName, &t.AvgRating, &t.ReviewCount, &t.BookingCount); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *PGTourRepository) List(ctx context.Context, filter domain.TourFilter) ([]domain.Tour, error) {
	rows, err := r.db.Query(ctx, tourSelect+`
		WHERE ($1::text = '' OR t.guide_id = $1)
		  AND ($2::text = '' OR t.location ILIKE '%' || $2 || '%')
		ORDER BY t.created_at DESC`, filter.GuideID, filter.Location)
	if err != nil {
		return nil, wrapErr(err, "list tours")
	}
	defer rows.Close()

	tours := make([]domain.Tour, 0)
	for rows.Next() {
		t, err := scanTour(rows)
		if err != nil {
			return nil, wrapErr(err, "scan tour")
		}
		tours = append(tours, *t)
	}
	return tours, rows.Err()
}

func (r *PGTourRepository) GetByID(ctx context.Context, id string) (*domain.Tour, error) {
	t, err := scanTour(r.db.QueryRow(ctx, tourSelect+` WHERE t.id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "get tour")
	}
	return t, nil
}

func (r *PGTourRepository) Create(ctx context.Context, tour *domain.Tour) error {
	err := r.db.QueryRow(ctx, `INSERT INTO tours
		(id, guide_id, title, description, location, price_cents, duration_hours, max_group_size, included, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`,
		tour.ID, tour.GuideID, tour.Title, tour.Description, tour.Location, tour.PriceCents,
		tour.DurationHours, tour.MaxGroupSize, nonNil(tour.Included), tour.ImageURL).
		Scan(&tour.CreatedAt, &tour.UpdatedAt)
	return wrapErr(err, "create tour")
}

func (r *PGTourRepository) Update(ctx context.Context, tour *domain.Tour) error {
	err := r.db.QueryRow(ctx, `UPDATE tours SET
		title = $2, description = $3, location = $4, price_cents = $5, duration_hours = $6,
		max_group_size = $7, included = $8, image_url = $9, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		tour.ID, tour.Title, tour.Description, tour.Location, tour.PriceCents, tour.DurationHours,
		tour.MaxGroupSize, nonNil(tour.Included), tour.ImageURL).
		Scan(&tour.UpdatedAt)
	return wrapErr(err, "update tour")
}

func (r *PGTourRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM tours WHERE id = $1`, id)
	if err != nil {
		return wrapErr(err, "delete tour")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("delete tour: %w", domain.ErrNotFound)
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ TourRepository = (*PGTourRepository)(nil)
