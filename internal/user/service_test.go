package user

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
)

type seqIDs struct{ n atomic.Int64 }

func (s *seqIDs) Next() int64 { return s.n.Add(1) }

func seeded(t *testing.T) (*repo.MemoryRepo, *entity.User) {
	t.Helper()
	r := repo.NewMemoryRepo(&seqIDs{})
	u := &entity.User{Email: "a@x.com", PasswordHash: "h", FirstName: "Ann", LastName: "Lee"}
	require.NoError(t, r.Create(context.Background(), u))
	return r, u
}

func strPtr(s string) *string { return &s }

func TestUpdateProfile_Partial(t *testing.T) {
	r, u := seeded(t)
	svc := NewUserService(r, nil)

	got, err := svc.UpdateProfile(context.Background(), u.ID, entity.ProfileUpdate{FirstName: strPtr("Bo")})
	require.NoError(t, err)
	assert.Equal(t, "Bo", got.FirstName)
	assert.Equal(t, "Lee", got.LastName)
	assert.Equal(t, "a@x.com", got.Email)

	got, err = svc.UpdateProfile(context.Background(), u.ID, entity.ProfileUpdate{LastName: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "Bo", got.FirstName)
	assert.Empty(t, got.LastName)
}

func TestUpdateProfile_Missing(t *testing.T) {
	r, _ := seeded(t)
	svc := NewUserService(r, nil)

	_, err := svc.UpdateProfile(context.Background(), 999, entity.ProfileUpdate{FirstName: strPtr("x")})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestDeleteAccount(t *testing.T) {
	r, u := seeded(t)
	svc := NewUserService(r, nil)
	ctx := context.Background()

	require.NoError(t, svc.DeleteAccount(ctx, u.ID))
	_, err := r.GetByID(ctx, u.ID)
	require.ErrorIs(t, err, repo.ErrNotFound)

	require.ErrorIs(t, svc.DeleteAccount(ctx, u.ID), ErrUserNotFound)
}

type faultyStore struct{ err error }

func (f faultyStore) UpdateProfile(context.Context, int64, entity.ProfileUpdate) (*entity.User, error) {
	return nil, f.err
}
func (f faultyStore) Delete(context.Context, int64) error { return f.err }

func TestService_StoreFaults(t *testing.T) {
	boom := errors.New("db down")
	svc := NewUserService(faultyStore{err: boom}, nil)

	_, err := svc.UpdateProfile(context.Background(), 1, entity.ProfileUpdate{})
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrUserNotFound)

	require.ErrorIs(t, svc.DeleteAccount(context.Background(), 1), boom)
}
