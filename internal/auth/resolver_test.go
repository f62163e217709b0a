package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-auth/internal/security"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
)

func registered(t *testing.T, f *fixture) *Session {
	t.Helper()
	sess, err := f.svc.Register(context.Background(), RegisterInput{Email: "a@x.com", Password: "pw123456"})
	require.NoError(t, err)
	return sess
}

func signRaw(t *testing.T, secret string, claims security.Claims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return tok
}

func TestResolve_Success(t *testing.T) {
	f := newFixture(t)
	sess := registered(t, f)
	rs := NewResolver(f.tokens, f.store, nil, f.rec)

	u, err := rs.Resolve(context.Background(), "Bearer "+sess.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, u.ID)
	assert.Equal(t, 1, f.rec.events["resolve/success"])
}

func TestResolve_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	sess := registered(t, f)
	rs := NewResolver(f.tokens, f.store, nil, nil)
	future := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + sess.Tokens.AccessToken},
		{"lowercase scheme", "bearer " + sess.Tokens.AccessToken},
		{"no space", "Bearer" + sess.Tokens.AccessToken},
		{"empty token", "Bearer "},
		{"blank token", "Bearer    "},
		{"two tokens", "Bearer " + sess.Tokens.AccessToken + " extra"},
		{"garbage token", "Bearer not-a-token"},
		{"refresh token", "Bearer " + sess.Tokens.RefreshToken},
		{"wrong secret", "Bearer " + signRaw(t, "other", security.Claims{
			Type:             security.KindAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: future},
		})},
		{"expired", "Bearer " + signRaw(t, "test-secret", security.Claims{
			Type:             security.KindAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute))},
		})},
		{"non-numeric subject", "Bearer " + signRaw(t, "test-secret", security.Claims{
			Type:             security.KindAccess,
			RegisteredClaims: jwt.RegisteredClaims{Subject: "alice", ExpiresAt: future},
		})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := rs.Resolve(context.Background(), tt.header)
			require.ErrorIs(t, err, ErrUnauthenticated)
			assert.Nil(t, u)
		})
	}
}

func TestResolve_DeletedAccount(t *testing.T) {
	f := newFixture(t)
	sess := registered(t, f)
	rs := NewResolver(f.tokens, f.store, nil, nil)

	require.NoError(t, f.store.Delete(context.Background(), sess.User.ID))

	_, err := rs.Resolve(context.Background(), "Bearer "+sess.Tokens.AccessToken)
	require.ErrorIs(t, err, ErrUserNotFound)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}

type failingLookup struct{ err error }

func (f failingLookup) GetByID(context.Context, int64) (*entity.User, error) { return nil, f.err }

func TestResolve_StoreFault(t *testing.T) {
	f := newFixture(t)
	sess := registered(t, f)
	boom := errors.New("db down")
	rs := NewResolver(f.tokens, failingLookup{err: boom}, nil, nil)

	_, err := rs.Resolve(context.Background(), "Bearer "+sess.Tokens.AccessToken)
	require.ErrorIs(t, err, boom)
}

func TestRequireUser(t *testing.T) {
	f := newFixture(t)
	sess := registered(t, f)
	rs := NewResolver(f.tokens, f.store, nil, nil)

	var seen *entity.User
	h := rs.RequireUser(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		require.True(t, ok)
		seen = u
		w.WriteHeader(http.StatusTeapot)
	}))

	serve := func(header string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := serve("Bearer " + sess.Tokens.AccessToken)
	assert.Equal(t, http.StatusTeapot, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, sess.User.ID, seen.ID)

	rec = serve("")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))

	rec = serve("Bearer nope")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "invalid or expired token", body["error"])

	require.NoError(t, f.store.Delete(context.Background(), sess.User.ID))
	rec = serve("Bearer " + sess.Tokens.AccessToken)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserFromContext_Empty(t *testing.T) {
	_, ok := UserFromContext(context.Background())
	assert.False(t, ok)
}
