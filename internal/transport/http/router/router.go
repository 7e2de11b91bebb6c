package router

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baechuer/sso-service/internal/domain"
	"github.com/baechuer/sso-service/internal/transport/http/middleware"
	"github.com/baechuer/sso-service/internal/transport/http/response"
)

type HealthHandler interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

type OAuthHandler interface {
	Providers(w http.ResponseWriter, r *http.Request)
	Start(w http.ResponseWriter, r *http.Request)
	Callback(w http.ResponseWriter, r *http.Request)
}

type AccountHandler interface {
	Me(w http.ResponseWriter, r *http.Request)
	Signout(w http.ResponseWriter, r *http.Request)
}

type Deps struct {
	Health  HealthHandler
	OAuth   OAuthHandler
	Account AccountHandler

	SessionMW func(http.Handler) http.Handler

	// BaseURL is the mount prefix for the auth routes ("" = root).
	BaseURL string

	AuthRateLimit  int
	AuthRateWindow time.Duration
}

func New(deps Deps) (http.Handler, error) {
	if deps.Health == nil {
		return nil, fmt.Errorf("nil Health handler")
	}
	if deps.OAuth == nil {
		return nil, fmt.Errorf("nil OAuth handler")
	}
	if deps.Account == nil {
		return nil, fmt.Errorf("nil Account handler")
	}
	if deps.SessionMW == nil {
		return nil, fmt.Errorf("nil Session middleware")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.AccessLog)
	r.Use(middleware.Metrics)

	r.Get("/healthz", deps.Health.Healthz)
	r.Get("/readyz", deps.Health.Readyz)
	r.Handle("/metrics", promhttp.Handler())

	auth := func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(middleware.SecurityHeaders)
			if deps.AuthRateLimit > 0 && deps.AuthRateWindow > 0 {
				r.Use(httprate.Limit(
					deps.AuthRateLimit,
					deps.AuthRateWindow,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
						response.WriteError(w, r, domain.ErrRateLimited("auth"))
					}),
				))
			}

			r.Get("/providers", deps.OAuth.Providers)
			r.With(deps.SessionMW).Get("/me", deps.Account.Me)
			r.Post("/signout", deps.Account.Signout)

			r.Get("/{provider}", deps.OAuth.Start)
			r.Get("/{provider}/callback", deps.OAuth.Callback)
		})
	}

	if deps.BaseURL == "" || deps.BaseURL == "/" {
		auth(r)
	} else {
		r.Route(deps.BaseURL, auth)
	}

	return r, nil
}
