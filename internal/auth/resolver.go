package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/security"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

const bearerPrefix = "Bearer "

// UserLookup loads a user by id.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*entity.User, error)
}

// Resolver turns a bearer credential into the user it was issued for.
// It keeps no state between requests.
type Resolver struct {
	tokens  TokenService
	users   UserLookup
	logger  *zap.SugaredLogger
	metrics EventRecorder
}

func NewResolver(tokens TokenService, users UserLookup, logger *zap.SugaredLogger, rec EventRecorder) *Resolver {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Resolver{tokens: tokens, users: users, logger: logger, metrics: rec}
}

// Resolve takes the raw Authorization header value. It fails with an error
// wrapping ErrUnauthenticated for any credential problem and ErrUserNotFound
// when the token is valid but the account no longer exists.
func (rs *Resolver) Resolve(ctx context.Context, header string) (*entity.User, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		rs.metrics.AuthEvent("resolve", "rejected")
		return nil, errBadHeader
	}
	token := strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		rs.metrics.AuthEvent("resolve", "rejected")
		return nil, errBadHeader
	}

	claims, err := rs.tokens.Verify(token)
	if err != nil {
		rs.logger.Debugw("token rejected", "expired", errors.Is(err, security.ErrTokenExpired), "err", err)
		rs.metrics.AuthEvent("resolve", "rejected")
		return nil, errBadToken
	}
	if claims.Type != security.KindAccess {
		rs.logger.Debugw("token rejected", "kind", claims.Type)
		rs.metrics.AuthEvent("resolve", "rejected")
		return nil, errBadToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		rs.logger.Debugw("token subject not an id", "sub", claims.Subject)
		rs.metrics.AuthEvent("resolve", "rejected")
		return nil, errBadToken
	}

	u, err := rs.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			rs.metrics.AuthEvent("resolve", "not_found")
			return nil, ErrUserNotFound
		}
		rs.metrics.AuthEvent("resolve", "error")
		return nil, fmt.Errorf("load user: %w", err)
	}
	rs.metrics.AuthEvent("resolve", "success")
	return u, nil
}

// RequireUser resolves the caller before next runs and stores the user in
// the request context. See UserFromContext.
func (rs *Resolver) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := rs.Resolve(r.Context(), r.Header.Get("Authorization"))
		if err != nil {
			switch {
			case errors.Is(err, errBadHeader):
				w.Header().Set("WWW-Authenticate", "Bearer")
				utilities.WriteError(w, http.StatusUnauthorized, "missing or invalid authorization header")
			case errors.Is(err, ErrUnauthenticated):
				w.Header().Set("WWW-Authenticate", `Bearer error="invalid_token"`)
				utilities.WriteError(w, http.StatusUnauthorized, "invalid or expired token")
			case errors.Is(err, ErrUserNotFound):
				utilities.WriteError(w, http.StatusNotFound, "user not found")
			default:
				rs.logger.Errorw("resolve user failed", "err", err)
				utilities.WriteError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}
		next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
	})
}

type userCtxKey struct{}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *entity.User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext returns the user stored by RequireUser.
func UserFromContext(ctx context.Context) (*entity.User, bool) {
	u, ok := ctx.Value(userCtxKey{}).(*entity.User)
	return u, ok && u != nil
}
