package bootstrap

import (
	"context"
	"database/sql"
	"net/http"
	"strings"
	"time"

	"github.com/baechuer/sso-service/internal/allowlist"
	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/config"
	"github.com/baechuer/sso-service/internal/infrastructure/db/postgres"
	"github.com/baechuer/sso-service/internal/infrastructure/memory"
	rabbitmq_pub "github.com/baechuer/sso-service/internal/infrastructure/messaging/rabbitmq"
	"github.com/baechuer/sso-service/internal/infrastructure/redis"
	"github.com/baechuer/sso-service/internal/infrastructure/security"
	"github.com/baechuer/sso-service/internal/logger"
	http_handlers "github.com/baechuer/sso-service/internal/transport/http/handlers"
	"github.com/baechuer/sso-service/internal/transport/http/middleware"
	"github.com/baechuer/sso-service/internal/transport/http/response"
	"github.com/baechuer/sso-service/internal/transport/http/router"
)

const sessionIssuer = "sso-service"

/*
========================
 Public entry (prod)
========================
*/

func NewServer() (*http.Server, func(), error) {
	return newServer(defaultDeps())
}

// NewServerWithDeps allows injecting dependencies for testing
func NewServerWithDeps(deps Deps) (*http.Server, func(), error) {
	return newServer(deps)
}

/*
========================
 Dependency injection
========================
*/

type Deps struct {
	LoadConfig func() (*config.Config, error)

	NewDB   func(addr string, debug bool) (*sql.DB, error)
	Migrate func(ctx context.Context, db *sql.DB) error

	NewRedis func(addr, password string, db int) *redis.Client

	NewPublisher func(rabbitURL, exchange string) (sso.EventPublisher, error)

	NewRouter func(router.Deps) (http.Handler, error)

	// GoogleOptions are passed through to sso.EnableGoogle.
	GoogleOptions []sso.GoogleOption
}

/*
========================
 Core bootstrap logic
========================
*/

func newServer(deps Deps) (*http.Server, func(), error) {
	// 0) config
	cfg, err := deps.LoadConfig()
	if err != nil {
		return nil, nil, err
	}

	// 1) db + schema
	db, err := deps.NewDB(cfg.DBAddr, cfg.DBDebug)
	if err != nil {
		return nil, nil, err
	}
	cleanupFns := []func(){
		func() { _ = db.Close() },
	}

	if deps.Migrate != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := deps.Migrate(ctx, db)
		cancel()
		if err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}

	users := postgres.NewUserRepo(db)

	// 2) redis (best-effort) -> oauth state store
	var (
		redisCli *redis.Client
		states   sso.OAuthStateStore
	)
	if deps.NewRedis != nil && cfg.RedisAddr != "" {
		c := deps.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err := c.Ping(context.Background()); err != nil {
			logger.Logger.Warn().Err(err).Msg("redis unavailable; using in-memory oauth state")
			_ = c.Close()
		} else {
			logger.Logger.Info().Msg("redis connected")
			redisCli = c
			cleanupFns = append(cleanupFns, func() { _ = c.Close() })
		}
	}
	if redisCli != nil {
		states = redis.NewOAuthStateStore(redisCli, cfg.OAuthStateTTL)
	} else {
		states = memory.NewOAuthStateStore(cfg.OAuthStateTTL)
	}

	// 3) publisher
	var pub sso.EventPublisher
	switch {
	case cfg.RabbitURL == "" || deps.NewPublisher == nil:
		pub = memory.NewNoopPublisher()
	default:
		p, err := deps.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange)
		if err != nil {
			if cfg.Env != "dev" {
				runCleanup(cleanupFns)
				return nil, nil, err
			}
			logger.Logger.Warn().Err(err).Msg("rabbitmq unavailable; using noop publisher")
			pub = memory.NewNoopPublisher()
		} else {
			pub = p
		}
	}
	if c, ok := pub.(interface{ Close() error }); ok {
		cleanupFns = append(cleanupFns, func() { _ = c.Close() })
	}

	// 4) strategies
	resolver := sso.NewResolver(users, allowlist.Default, sso.ResolverConfig{
		AllowedDomains: cfg.AllowedDomains,
	}).WithAudit(logger.Audit)
	logger.Logger.Info().
		Strs("allowed_domains", allowlist.Parse(cfg.AllowedDomains)).
		Msg("domain allow-list loaded")

	strategies := sso.NewRegistry()
	if google, ok := sso.EnableGoogle(cfg, resolver, deps.GoogleOptions...); ok {
		if err := strategies.Register(google); err != nil {
			runCleanup(cleanupFns)
			return nil, nil, err
		}
	}
	if strategies.Len() == 0 {
		logger.Logger.Warn().Msg("no sign-in strategies configured")
	}

	svc := sso.NewService(strategies, states, pub)

	// 5) handlers + middleware
	secureCookies := strings.HasPrefix(cfg.PublicURL, "https://")
	signer := security.NewSessionSigner(cfg.SessionSecret, sessionIssuer)

	oauthH := http_handlers.NewOAuthHandler(http_handlers.OAuthHandlerConfig{
		Service:       svc,
		Sessions:      signer,
		Providers:     strategies,
		BaseURL:       cfg.BaseURL,
		SessionTTL:    cfg.SessionTTL,
		SecureCookies: secureCookies,
	})
	accountH := http_handlers.NewAccountHandler(users, secureCookies)

	var cache http_handlers.Pinger
	if redisCli != nil {
		cache = redisCli
	}
	healthH := http_handlers.NewHealthHandler(users, cache)

	// 6) router
	mux, err := deps.NewRouter(router.Deps{
		Health:         healthH,
		OAuth:          oauthH,
		Account:        accountH,
		SessionMW:      middleware.Session(signer, response.WriteError),
		BaseURL:        cfg.BaseURL,
		AuthRateLimit:  cfg.AuthRateLimit,
		AuthRateWindow: cfg.AuthRateWindow,
	})
	if err != nil {
		runCleanup(cleanupFns)
		return nil, nil, err
	}

	// 7) server
	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      mux,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	cleanup := func() {
		runCleanup(cleanupFns)
	}

	return srv, cleanup, nil
}

/*
========================
 Default deps (prod)
========================
*/

func defaultDeps() Deps {
	return Deps{
		LoadConfig: config.Load,
		NewDB:      config.NewDB,
		Migrate:    postgres.Migrate,
		NewRedis:   redis.New,
		NewPublisher: func(url, exchange string) (sso.EventPublisher, error) {
			return rabbitmq_pub.NewPublisher(url, exchange)
		},
		NewRouter: router.New,
	}
}

/*
========================
 helpers
========================
*/

func runCleanup(fns []func()) {
	for i := len(fns) - 1; i >= 0; i-- {
		fns[i]()
	}
}
