package repository

import (
	"context"
	"fmt"

	"github.com/localink/localink/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type PGUserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) UserRepository {
	return &PGUserRepository{db: db}
}

func (r *PGUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var (
		u         domain.User
		profileID *string
		bio       *string
		location  *string
		languages []string
		expertise []string
	)
	err := r.db.QueryRow(ctx, `SELECT u.id, u.name, u.email, u.role, u.image_url,
			p.user_id, p.bio, p.location, p.languages, p.expertise
		FROM users u
		LEFT JOIN profiles p ON p.user_id = u.id
		WHERE u.id = $1`, id).
		Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.ImageURL, &profileID, &bio, &location, &languages, &expertise)
	if err != nil {
		return nil, wrapErr(err, "get user")
	}

	if profileID != nil {
		u.Profile = &domain.Profile{Languages: nonNil(languages), Expertise: nonNil(expertise)}
		if bio != nil {
			u.Profile.Bio = *bio
		}
		if location != nil {
			u.Profile.Location = *location
		}
	}
	return &u, nil
}

func (r *PGUserRepository) Update(ctx context.Context, user *domain.User) error {
	cmd, err := r.db.Exec(ctx, `UPDATE users SET name = $2, image_url = $3 WHERE id = $1`,
		user.ID, user.Name, user.ImageURL)
	if err != nil {
		return wrapErr(err, "update user")
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("update user: %w", domain.ErrNotFound)
	}
	if user.Profile == nil {
		return nil
	}

	_, err = r.db.Exec(ctx, `INSERT INTO profiles (user_id, bio, location, languages, expertise)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			bio = EXCLUDED.bio, location = EXCLUDED.location,
			languages = EXCLUDED.languages, expertise = EXCLUDED.expertise`,
		user.ID, user.Profile.Bio, user.Profile.Location, nonNil(user.Profile.Languages), nonNil(user.Profile.Expertise))
	return wrapErr(err, "upsert profile")
}

var _ UserRepository = (*PGUserRepository)(nil)
