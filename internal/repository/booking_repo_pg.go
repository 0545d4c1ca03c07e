package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/localink/localink/internal/domain"
)

type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	FindActiveByTouristAndTour(ctx context.Context, touristID, tourID string) (*domain.Booking, error)
	CountConfirmed(ctx context.Context, tourID string, date time.Time, excludeID string) (int, error)
	CountByTour(ctx context.Context, tourID string) (int, error)
	MaxConfirmedPerDate(ctx context.Context, tourID string) (int, error)
	HasCompleted(ctx context.Context, touristID, tourID string) (bool, error)
	Insert(ctx context.Context, booking *domain.Booking) error
	UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error
	List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db DBTX
}

func NewBookingRepository(db DBTX) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingSelect = `SELECT b.id, b.tour_id, b.tourist_id, b.date, b.status, b.created_at, b.updated_at,
	t.title, t.price_cents, t.guide_id, g.name, u.name, u.email
FROM bookings b
JOIN tours t ON t.id = b.tour_id
JOIN users g ON g.id = t.guide_id
JOIN users u ON u.id = b.tourist_id`

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var b domain.Booking
	if err := row.Scan(&b.ID, &b.TourID, &b.TouristID, &b.Date, &b.Status, &b.CreatedAt, &b.UpdatedAt,
		&b.Tour.Title, &b.Tour.PriceCents, &b.Tour.GuideID, &b.Tour.GuideName, &b.Tourist.Name, &b.Tourist.Email); err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+` WHERE b.id = $1`, id))
	if err != nil {
		return nil, wrapErr(err, "get booking")
	}
	return b, nil
}

func (r *PGBookingRepository) FindActiveByTouristAndTour(ctx context.Context, touristID, tourID string) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, bookingSelect+`
		WHERE b.tourist_id = $1 AND b.tour_id = $2 AND b.status IN ($3, $4)
		LIMIT 1`, touristID, tourID, domain.BookingStatusPending, domain.BookingStatusConfirmed))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, wrapErr(err, "find active booking")
	}
	return b, nil
}

func (r *PGBookingRepository) CountConfirmed(ctx context.Context, tourID string, date time.Time, excludeID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings
		WHERE tour_id = $1 AND date = $2 AND status = $3 AND id <> $4`,
		tourID, date, domain.BookingStatusConfirmed, excludeID).Scan(&n)
	if err != nil {
		return 0, wrapErr(err, "count confirmed bookings")
	}
	return n, nil
}

func (r *PGBookingRepository) CountByTour(ctx context.Context, tourID string) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM bookings WHERE tour_id = $1`, tourID).Scan(&n); err != nil {
		return 0, wrapErr(err, "count tour bookings")
	}
	return n, nil
}

// MaxConfirmedPerDate returns the largest CONFIRMED headcount on any single
// date of the tour.
func (r *PGBookingRepository) MaxConfirmedPerDate(ctx context.Context, tourID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(n), 0) FROM (
		SELECT count(*) AS n FROM bookings
		WHERE tour_id = $1 AND status = $2
		GROUP BY date) per_date`,
		tourID, domain.BookingStatusConfirmed).Scan(&n)
	if err != nil {
		return 0, wrapErr(err, "max confirmed per date")
	}
	return n, nil
}

func (r *PGBookingRepository) HasCompleted(ctx context.Context, touristID, tourID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (
		SELECT 1 FROM bookings WHERE tourist_id = $1 AND tour_id = $2 AND status = $3)`,
		touristID, tourID, domain.BookingStatusCompleted).Scan(&ok)
	if err != nil {
		return false, wrapErr(err, "check completed booking")
	}
	return ok, nil
}

func (r *PGBookingRepository) Insert(ctx context.Context, booking *domain.Booking) error {
	err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, tour_id, tourist_id, date, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`,
		booking.ID, booking.TourID, booking.TouristID, booking.Date, booking.Status).
		Scan(&booking.CreatedAt, &booking.UpdatedAt)
	return wrapErr(err, "insert booking")
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id string, status domain.BookingStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE bookings SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return wrapErr(err, "update booking status")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update booking status: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *PGBookingRepository) List(ctx context.Context, filter domain.BookingFilter) ([]domain.Booking, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.TouristID != "" {
		add("b.tourist_id = $%d", filter.TouristID)
	}
	if filter.GuideID != "" {
		add("t.guide_id = $%d", filter.GuideID)
	}
	if filter.TourID != "" {
		add("b.tour_id = $%d", filter.TourID)
	}

	query := bookingSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY b.date ASC, b.created_at ASC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, wrapErr(err, "list bookings")
	}
	defer rows.Close()

	bookings := make([]domain.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, wrapErr(err, "scan booking")
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

var _ BookingRepository = (*PGBookingRepository)(nil)
