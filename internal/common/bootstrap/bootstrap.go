package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/AlibekovAA/authify/backend/internal/auth/http"
	authservice "github.com/AlibekovAA/authify/backend/internal/auth/service"
	"github.com/AlibekovAA/authify/backend/internal/auth/token"
	"github.com/AlibekovAA/authify/backend/internal/common/clock"
	"github.com/AlibekovAA/authify/backend/internal/common/config"
	commoncrypto "github.com/AlibekovAA/authify/backend/internal/common/crypto"
	"github.com/AlibekovAA/authify/backend/internal/common/db"
	commonhttp "github.com/AlibekovAA/authify/backend/internal/common/http"
	"github.com/AlibekovAA/authify/backend/internal/common/logger"
	profilehttp "github.com/AlibekovAA/authify/backend/internal/profile/http"
	profileservice "github.com/AlibekovAA/authify/backend/internal/profile/service"
	userrepo "github.com/AlibekovAA/authify/backend/internal/user/repository"
)

type StoreKind string

const (
	StorePostgres StoreKind = "postgres"
	StoreMemory   StoreKind = "memory"
)

// App holds the wired services for one process. Close releases the pool and
// background workers.
type App struct {
	Log      *logger.Logger
	Config   config.AuthConfig
	Store    userrepo.Repository
	Tokens   *token.Service
	Auth     *authservice.AuthService
	Profiles *profileservice.ProfileService

	limiter *commonhttp.StrictRateLimiter
	closers []func()
}

func NewLogger(cfg config.AuthConfig, serviceName string) (*logger.Logger, error) {
	log, err := logger.New(cfg.LogDir, serviceName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return log, nil
}

func NewApp(ctx context.Context, cfg config.AuthConfig, log *logger.Logger, store StoreKind) (*App, error) {
	app := &App{Log: log, Config: cfg}

	switch store {
	case StoreMemory:
		log.Warn("using in-memory user store, data is lost on restart")
		app.Store = userrepo.NewMemoryRepository()
	case StorePostgres, "":
		if err := cfg.RequireDatabaseURL(); err != nil {
			return nil, err
		}
		pool, err := db.NewPool(ctx, log, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		metricsCtx, stopMetrics := context.WithCancel(context.Background())
		db.StartPoolMetrics(metricsCtx, pool, 0)
		app.closers = append(app.closers, stopMetrics, pool.Close)
		app.Store = userrepo.NewPgRepository(pool)
	default:
		return nil, fmt.Errorf("unknown store %q", store)
	}

	if cfg.WeakSecret() {
		log.WithFields(ctx, logger.Fields{
			"action":         "weak_jwt_secret",
			"default_secret": cfg.UsingDefaultSecret,
		}).Warn("JWT_SECRET is weak; set a random secret of at least 32 bytes")
	}

	clk := clock.NewRealClock()
	hasher := commoncrypto.NewBcryptHasher(cfg.BcryptCost)

	var secret string
	if !cfg.UsingDefaultSecret {
		secret = cfg.JWTSecret
	}
	app.Tokens = token.New(token.Config{
		Secret: secret,
		TTL:    cfg.AccessTokenTTL,
		Clock:  clk,
	}, log)

	app.Auth = authservice.NewAuthService(app.Store, hasher, app.Tokens, commoncrypto.NewUUIDGenerator(), clk, log)
	app.Profiles = profileservice.NewProfileService(app.Store, hasher, log)
	app.limiter = commonhttp.NewStrictRateLimiter()
	app.closers = append(app.closers, app.limiter.Stop)

	return app, nil
}

// Handler assembles every route behind the shared middleware chain.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/health", commonhttp.HealthHandler())
	mux.Handle("/metrics", promhttp.Handler())

	authhttp.NewHandler(a.Auth, authhttp.Config{
		TokenTTL:       a.Tokens.TTL(),
		RequestTimeout: a.Config.RequestTimeout,
	}, a.Log).Routes(mux, a.limiter)
	profilehttp.NewHandler(a.Profiles, a.Tokens, a.Config.RequestTimeout, a.Log).Routes(mux)

	return commonhttp.BuildBaseHandler(a.Log, mux)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
