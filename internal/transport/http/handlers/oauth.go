package http_handlers

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/domain"
	"github.com/baechuer/sso-service/internal/infrastructure/security"
	"github.com/baechuer/sso-service/internal/logger"
	"github.com/baechuer/sso-service/internal/transport/http/dto"
	"github.com/baechuer/sso-service/internal/transport/http/middleware"
	"github.com/baechuer/sso-service/internal/transport/http/response"
)

type OAuthService interface {
	Start(ctx context.Context, provider, redirectTo string) (sso.StartResult, error)
	Callback(ctx context.Context, provider, stateToken, code string) (sso.CallbackResult, error)
}

type SessionSigner interface {
	Sign(userID, role string, ttl time.Duration) (string, error)
}

type ProviderLister interface {
	Names() []string
}

// OAuthHandler serves the browser side of provider sign-in.
type OAuthHandler struct {
	svc           OAuthService
	sessions      SessionSigner
	providers     ProviderLister
	baseURL       string
	sessionTTL    time.Duration
	secureCookies bool
}

type OAuthHandlerConfig struct {
	Service       OAuthService
	Sessions      SessionSigner
	Providers     ProviderLister
	BaseURL       string
	SessionTTL    time.Duration
	SecureCookies bool
}

func NewOAuthHandler(cfg OAuthHandlerConfig) *OAuthHandler {
	return &OAuthHandler{
		svc:           cfg.Service,
		sessions:      cfg.Sessions,
		providers:     cfg.Providers,
		baseURL:       cfg.BaseURL,
		sessionTTL:    cfg.SessionTTL,
		secureCookies: cfg.SecureCookies,
	}
}

// Providers handles GET /auth/providers
func (h *OAuthHandler) Providers(w http.ResponseWriter, r *http.Request) {
	names := []string{}
	if h.providers != nil {
		names = append(names, h.providers.Names()...)
	}
	response.OK(w, dto.ProvidersResponse{Providers: names})
}

// Start handles GET /auth/{provider}?redirect_to=/queries
func (h *OAuthHandler) Start(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	redirectTo := safeRedirect(r.URL.Query().Get("redirect_to"))

	res, err := h.svc.Start(r.Context(), provider, redirectTo)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}
	http.Redirect(w, r, res.AuthURL, http.StatusFound)
}

// Callback handles GET /auth/{provider}/callback?code=...&state=...
func (h *OAuthHandler) Callback(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if !h.knownProvider(provider) {
		response.WriteError(w, r, domain.ErrUnknownProvider(provider))
		return
	}
	q := r.URL.Query()

	// The user declined at the provider, or the provider refused the request.
	if errCode := q.Get("error"); errCode != "" {
		middleware.LoginOutcomesTotal.WithLabelValues(provider, "provider_denied").Inc()
		logger.WithCtx(r.Context()).Info().
			Str("provider", provider).
			Str("error", errCode).
			Msg("provider returned an error")
		http.Redirect(w, r, h.signinURL(errCode, ""), http.StatusFound)
		return
	}

	code, state := q.Get("code"), q.Get("state")
	if code == "" {
		response.WriteError(w, r, domain.ErrMissingField("code"))
		return
	}
	if state == "" {
		response.WriteError(w, r, domain.ErrMissingField("state"))
		return
	}

	res, err := h.svc.Callback(r.Context(), provider, state, code)
	if err != nil {
		response.WriteError(w, r, err)
		return
	}

	out := res.Outcome
	middleware.LoginOutcomesTotal.WithLabelValues(provider, out.Label()).Inc()

	switch out.Kind {
	case sso.OutcomeAuthenticated:
		token, err := h.sessions.Sign(out.User.ID, string(out.User.Role), h.sessionTTL)
		if err != nil {
			response.WriteError(w, r, err)
			return
		}
		security.SetSession(w, token, h.sessionTTL, h.secureCookies)

		logger.WithCtx(r.Context()).Info().
			Str("provider", provider).
			Str("user_id", out.User.ID).
			Bool("new_user", out.IsNew).
			Msg("sso_signed_in")

		http.Redirect(w, r, h.baseURL+safeRedirect(res.RedirectTo), http.StatusFound)

	case sso.OutcomeRejected:
		var reason, message string
		if out.Rejection != nil {
			reason, message = out.Rejection.Code, out.Rejection.Message
		}
		http.Redirect(w, r, h.signinURL(reason, message), http.StatusFound)

	default:
		err := out.Err
		if err == nil {
			err = domain.ErrInternal(nil)
		}
		response.WriteError(w, r, err)
	}
}

// knownProvider guards metric labels and redirects against arbitrary path values.
func (h *OAuthHandler) knownProvider(name string) bool {
	if h.providers == nil {
		return false
	}
	for _, n := range h.providers.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// signinURL is the sign-in page. Query parameters are only added when there is something to say.
func (h *OAuthHandler) signinURL(reason, message string) string {
	u := h.baseURL + "/signin"
	v := url.Values{}
	if reason != "" {
		v.Set("reason", reason)
	}
	if message != "" {
		v.Set("message", message)
	}
	if len(v) == 0 {
		return u
	}
	return u + "?" + v.Encode()
}

// safeRedirect keeps post-login redirects on this site.
func safeRedirect(p string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.HasPrefix(p, "/\\") {
		return "/"
	}
	return p
}
