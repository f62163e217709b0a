package router

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

// Pinger reports store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the handlers and collaborators the routes are mounted on.
type Deps struct {
	Auth        *auth.Handler
	Users       *user.Handler
	Resolver    *auth.Resolver
	Metrics     *metrics.Metrics
	Store       Pinger
	CORSOrigins []string
}

// RegisterRoutes mounts HTTP handlers on the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, d Deps) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		utilities.WriteJSON(w, http.StatusOK, map[string]string{"message": "Auth API is running"})
	})

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			logger.Warnw("health check failed", "err", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.Handle("GET /metrics", d.Metrics.Handler())

	// auth routes
	mux.HandleFunc("POST /api/auth/register", d.Auth.Register)
	mux.HandleFunc("POST /api/auth/login", d.Auth.Login)

	// user routes, all behind the bearer resolver
	mux.Handle("GET /api/users/me", d.Resolver.RequireUser(http.HandlerFunc(d.Users.Me)))
	mux.Handle("PUT /api/users/me", d.Resolver.RequireUser(http.HandlerFunc(d.Users.UpdateMe)))
	mux.Handle("DELETE /api/users/me", d.Resolver.RequireUser(http.HandlerFunc(d.Users.DeleteMe)))

	var h http.Handler = mux
	h = CORSMiddleware(d.CORSOrigins)(h)
	h = SecurityHeadersMiddleware()(h)
	h = LoggingMiddleware(logger, d.Metrics)(h)
	h = RequestIDMiddleware()(h)
	return h
}
