package repository

import (
	"context"

	"github.com/localink/localink/internal/domain"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *domain.Review) error
	ExistsByAuthorAndTour(ctx context.Context, authorID, tourID string) (bool, error)
	List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error)
}

type PGReviewRepository struct {
	db DBTX
}

func NewReviewRepository(db DBTX) ReviewRepository {
	return &PGReviewRepository{db: db}
}

func (r *PGReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	err := r.db.QueryRow(ctx, `WITH ins AS (
			INSERT INTO reviews (id, tour_id, author_id, rating, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, author_id
		)
		SELECT ins.created_at, u.name, u.image_url FROM ins JOIN users u ON u.id = ins.author_id`,
		review.ID, review.TourID, review.AuthorID, review.Rating, review.Comment).
		Scan(&review.CreatedAt, &review.AuthorName, &review.AuthorImage)
	return wrapErr(err, "create review")
}

func (r *PGReviewRepository) ExistsByAuthorAndTour(ctx context.Context, authorID, tourID string) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM reviews WHERE author_id = $1 AND tour_id = $2)`,
		authorID, tourID).Scan(&ok)
	if err != nil {
		return false, wrapErr(err, "check review")
	}
	return ok, nil
}

func (r *PGReviewRepository) List(ctx context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, `SELECT r.id, r.tour_id, r.author_id, r.rating, r.comment, r.created_at,
			u.name, u.image_url, t.title
		FROM reviews r
		JOIN users u ON u.id = r.author_id
		JOIN tours t ON t.id = r.tour_id
		WHERE ($1::text = '' OR r.tour_id = $1)
		  AND ($2::text = '' OR t.guide_id = $2)
		ORDER BY r.created_at DESC`, filter.TourID, filter.GuideID)
	if err != nil {
		return nil, wrapErr(err, "list reviews")
	}
	defer rows.Close()

	reviews := make([]domain.Review, 0)
	for rows.Next() {
		var rv domain.Review
		if err := rows.Scan(&rv.ID, &rv.TourID, &rv.AuthorID, &rv.Rating, &rv.Comment, &rv.CreatedAt,
			&rv.AuthorName, &rv.AuthorImage, &rv.TourTitle); err != nil {
			return nil, wrapErr(err, "scan review")
		}
		reviews = append(reviews, rv)
	}
	return reviews, rows.Err()
}

var _ ReviewRepository = (*PGReviewRepository)(nil)
