package sso

import (
	"context"

	"github.com/baechuer/sso-service/internal/domain"
)

// Strategy is one configured sign-in method: a provider handshake followed by
// identity resolution.
type Strategy struct {
	name        string
	callbackURL string
	profileURL  string

	provider Provider
	resolver *Resolver
}

func NewStrategy(name, callbackURL, profileURL string, provider Provider, resolver *Resolver) *Strategy {
	return &Strategy{
		name:        name,
		callbackURL: callbackURL,
		profileURL:  profileURL,
		provider:    provider,
		resolver:    resolver,
	}
}

func (s *Strategy) Name() string        { return s.name }
func (s *Strategy) CallbackURL() string { return s.callbackURL }
func (s *Strategy) ProfileURL() string  { return s.profileURL }

// AuthURL is where the browser is sent to start the handshake.
func (s *Strategy) AuthURL(state, codeVerifier string) string {
	return s.provider.AuthURL(state, codeVerifier)
}

// Authenticate completes the handshake for code and resolves the resulting profile.
func (s *Strategy) Authenticate(ctx context.Context, code, codeVerifier string) Outcome {
	token, err := s.provider.Exchange(ctx, code, codeVerifier)
	if err != nil {
		return failed(domain.ErrUpstream(s.name, err))
	}

	profile, err := s.provider.FetchProfile(ctx, token)
	if err != nil {
		return failed(domain.ErrUpstream(s.name, err))
	}
	if profile.Provider == "" {
		profile.Provider = s.name
	}

	return s.resolver.Resolve(ctx, profile)
}
