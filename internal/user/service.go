package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

// ErrUserNotFound is returned when the account vanished between resolution and the write.
var ErrUserNotFound = errors.New("user not found")

// ProfileStore is the part of the credential store profile operations need.
type ProfileStore interface {
	UpdateProfile(ctx context.Context, id int64, upd entity.ProfileUpdate) (*entity.User, error)
	Delete(ctx context.Context, id int64) error
}

// UserService manages the profile of an already authenticated user.
type UserService struct {
	repo   ProfileStore
	logger *zap.SugaredLogger
}

func NewUserService(r ProfileStore, logger *zap.SugaredLogger) *UserService {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &UserService{repo: r, logger: logger}
}

// UpdateProfile applies a partial update; nil fields keep their value.
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd entity.ProfileUpdate) (*entity.User, error) {
	u, err := s.repo.UpdateProfile(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// DeleteAccount removes the user. Tokens already issued stay
// time-valid but resolve to not-found afterwards.
func (s *UserService) DeleteAccount(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Infow("user deleted", "user_id", id)
	return nil
}
