package sso

import (
	"github.com/baechuer/sso-service/internal/config"
	"github.com/baechuer/sso-service/internal/infrastructure/oauth"
	"github.com/baechuer/sso-service/internal/logger"
)

const (
	GoogleStrategyName = "google"

	// GoogleProfileURL replaces ID-token parsing with a userinfo call.
	GoogleProfileURL = "https://www.googleapis.com/oauth2/v3/userinfo?alt=json"
)

// GoogleCallbackURL must match the redirect URI registered with Google exactly.
func GoogleCallbackURL(cfg *config.Config) string {
	return cfg.PublicURL + cfg.BaseURL + "/auth/google/callback"
}

// GoogleOption customizes the client EnableGoogle builds.
type GoogleOption func(*oauth.GoogleConfig)

// WithGoogleEndpoints points the client at non-Google endpoints (tests, proxies).
func WithGoogleEndpoints(authURL, tokenURL string) GoogleOption {
	return func(c *oauth.GoogleConfig) {
		c.AuthURL = authURL
		c.TokenURL = tokenURL
	}
}

// WithGoogleProfileURL overrides the userinfo endpoint.
func WithGoogleProfileURL(u string) GoogleOption {
	return func(c *oauth.GoogleConfig) {
		c.ProfileURL = u
	}
}

// EnableGoogle returns the Google strategy when client credentials are
// configured. Without them it returns (nil, false) and the caller simply
// registers nothing.
func EnableGoogle(cfg *config.Config, resolver *Resolver, opts ...GoogleOption) (*Strategy, bool) {
	if cfg == nil || !cfg.GoogleAuthConfigured() {
		return nil, false
	}

	gc := oauth.GoogleConfig{
		ClientID:     cfg.GoogleClientID,
		ClientSecret: cfg.GoogleClientSecret,
		RedirectURL:  GoogleCallbackURL(cfg),
		ProfileURL:   GoogleProfileURL,
	}
	for _, opt := range opts {
		opt(&gc)
	}

	logger.Logger.Info().
		Str("callback_url", gc.RedirectURL).
		Msg("Enabling Google authentication strategy.")

	return NewStrategy(
		GoogleStrategyName,
		gc.RedirectURL,
		gc.ProfileURL,
		oauth.NewGoogleClient(gc),
		resolver,
	), true
}
