package profiles

import (
	"context"
	"strings"

	"github.com/localink/localink/internal/domain"
	"github.com/localink/localink/internal/repository"
	"github.com/localink/localink/internal/validation"
)

type ProfileUseCase interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Update(ctx context.Context, userID string, input UpdateInput) (*domain.User, error)
}

// UpdateInput is a partial update: nil fields are left unchanged, an empty
// list clears it.
type UpdateInput struct {
	Name      *string  `json:"name" validate:"omitnil,min=1,max=50"`
	ImageURL  *string  `json:"image" validate:"omitempty,url"`
	Bio       *string  `json:"bio" validate:"omitempty,max=500"`
	Location  *string  `json:"location" validate:"omitempty,max=100"`
	Languages []string `json:"languages" validate:"omitnil,max=5,dive,required,max=50"`
	Expertise []string `json:"expertise" validate:"omitnil,max=5,dive,required,max=50"`
}

func (in *UpdateInput) normalize() {
	for _, s := range []*string{in.Name, in.ImageURL, in.Bio, in.Location} {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	for i := range in.Languages {
		in.Languages[i] = strings.TrimSpace(in.Languages[i])
	}
	for i := range in.Expertise {
		in.Expertise[i] = strings.TrimSpace(in.Expertise[i])
	}
}

func (in UpdateInput) touchesProfile() bool {
	return in.Bio != nil || in.Location != nil || in.Languages != nil || in.Expertise != nil
}

type ProfileService struct {
	tx    repository.Transactor
	users repository.UserRepository
}

func NewProfileService(tx repository.Transactor, users repository.UserRepository) *ProfileService {
	return &ProfileService{tx: tx, users: users}
}

func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateInput) (*domain.User, error) {
	input.normalize()
	if err := validation.Struct(input); err != nil {
		return nil, err
	}

	var updated *domain.User
	err := s.tx.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		user, err := repos.Users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if input.Name != nil {
			user.Name = *input.Name
		}
		if input.ImageURL != nil {
			user.ImageURL = *input.ImageURL
		}
		if input.touchesProfile() {
			if user.Profile == nil {
				user.Profile = &domain.Profile{}
			}
			p := user.Profile
			if input.Bio != nil {
				p.Bio = *input.Bio
			}
			if input.Location != nil {
				p.Location = *input.Location
			}
			if input.Languages != nil {
				p.Languages = input.Languages
			}
			if input.Expertise != nil {
				p.Expertise = input.Expertise
			}
		}

		if err := repos.Users.Update(ctx, user); err != nil {
			return err
		}
		updated, err = repos.Users.GetByID(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

var _ ProfileUseCase = (*ProfileService)(nil)
