package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-auth/internal/auth"
	"github.com/ovaphlow/pitchfork/service-auth/internal/config"
	"github.com/ovaphlow/pitchfork/service-auth/internal/metrics"
	"github.com/ovaphlow/pitchfork/service-auth/internal/router"
	"github.com/ovaphlow/pitchfork/service-auth/internal/security"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user"
	"github.com/ovaphlow/pitchfork/service-auth/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/database"
	"github.com/ovaphlow/pitchfork/service-auth/pkg/utilities"
)

// store is what the wiring below needs from either repo implementation.
type store interface {
	auth.UserStore
	user.ProfileStore
	router.Pinger
}

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	// init logger
	logCfg, err := utilities.ConfigFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read log config: %v\n", err)
		os.Exit(1)
	}
	lg, err := utilities.Init(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-auth")

	cfg, err := config.Load()
	if err != nil {
		sugar.Fatalf("config: %v", err)
	}
	if cfg.InsecureSecret() {
		sugar.Warn("SECRET_KEY is not set; using the insecure development secret")
	}

	ids, err := utilities.NewIDGeneratorFromEnv()
	if err != nil {
		sugar.Fatalf("id generator: %v", err)
	}

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, closeStore, err := openStore(ctx, cfg.StoreDriver, ids, sugar)
	if err != nil {
		sugar.Fatalf("store: %v", err)
	}
	defer closeStore()

	m := metrics.New()
	hasher := security.NewBcryptHasher(cfg.Auth.BcryptCost, sugar.Named("hasher"))
	tokens := security.NewTokenIssuer(security.TokenConfig{
		Secret:     []byte(cfg.Auth.Secret),
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	})

	authSvc := auth.NewService(st, hasher, tokens, sugar.Named("auth"), m)
	resolver := auth.NewResolver(tokens, st, sugar.Named("resolver"), m)
	userSvc := user.NewUserService(st, sugar.Named("user"))

	// mount http server
	handler := router.RegisterRoutes(sugar, router.Deps{
		Auth:        auth.NewHandler(authSvc, sugar.Named("auth")),
		Users:       user.NewHandler(userSvc, sugar.Named("user")),
		Resolver:    resolver,
		Metrics:     m,
		Store:       st,
		CORSOrigins: cfg.CORS.AllowedOrigins,
	})
	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	// run server in background
	go func() {
		sugar.Infow("http server listening", "addr", cfg.HTTP.Addr, "store", cfg.StoreDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()

	sugar.Info("shutting down")

	// give a short grace period for cleanup
	doneCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}

	sugar.Info("goodbye")
}

func openStore(ctx context.Context, driver string, ids repo.IDSource, logger *zap.SugaredLogger) (store, func(), error) {
	if driver == config.StoreDriverMemory {
		logger.Warn("using in-memory store; data is lost on exit")
		return repo.NewMemoryRepo(ids), func() {}, nil
	}

	dbCfg, err := database.ConfigFromEnv()
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := database.Connect(dbCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("db connect: %w", err)
	}
	if dbCfg.AutoMigrate {
		migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := database.Migrate(migrateCtx, sqlDB); err != nil {
			sqlDB.Close()
			return nil, nil, err
		}
		logger.Info("migrations applied")
	}

	// wrap with sqlx for convenience in repos
	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	return repo.NewUserRepo(sqlxDB, ids), func() { _ = sqlxDB.Close() }, nil
}
