package sso

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/baechuer/sso-service/internal/domain"
	"github.com/baechuer/sso-service/internal/logger"
)

// Service drives the browser side of a sign-in: it starts the provider
// handshake and turns the callback into an Outcome.
type Service struct {
	strategies *Registry
	states     OAuthStateStore
	pub        EventPublisher

	now         func() time.Time
	newVerifier func() string
}

func NewService(strategies *Registry, states OAuthStateStore, pub EventPublisher) *Service {
	return &Service{
		strategies:  strategies,
		states:      states,
		pub:         pub,
		now:         time.Now,
		newVerifier: oauth2.GenerateVerifier,
	}
}

type StartResult struct {
	AuthURL string
}

// Start stores a fresh state and PKCE verifier and returns the provider URL.
func (s *Service) Start(ctx context.Context, provider, redirectTo string) (StartResult, error) {
	strategy, err := s.strategies.Get(provider)
	if err != nil {
		return StartResult{}, err
	}

	verifier := s.newVerifier()
	state, err := s.states.Create(ctx, OAuthStateData{
		Provider:     provider,
		CodeVerifier: verifier,
		RedirectTo:   redirectTo,
	})
	if err != nil {
		return StartResult{}, err
	}

	return StartResult{AuthURL: strategy.AuthURL(state, verifier)}, nil
}

type CallbackResult struct {
	Outcome    Outcome
	RedirectTo string
}

// Callback consumes the state and completes the strategy. Errors returned here
// are request errors (bad state, unknown provider); a failed resolution is
// reported as an OutcomeError inside the result.
func (s *Service) Callback(ctx context.Context, provider, stateToken, code string) (CallbackResult, error) {
	strategy, err := s.strategies.Get(provider)
	if err != nil {
		return CallbackResult{}, err
	}

	state, err := s.states.Consume(ctx, stateToken)
	if err != nil {
		if domain.KindOf(err) == domain.KindInfrastructure {
			return CallbackResult{}, err
		}
		return CallbackResult{}, domain.ErrInvalidOAuthState()
	}
	if state.Provider != provider {
		return CallbackResult{}, domain.ErrProviderMismatch()
	}

	out := strategy.Authenticate(ctx, code, state.CodeVerifier)
	if out.Kind == OutcomeAuthenticated {
		s.publish(ctx, provider, out)
	}

	return CallbackResult{Outcome: out, RedirectTo: state.RedirectTo}, nil
}

func (s *Service) publish(ctx context.Context, provider string, out Outcome) {
	if s.pub == nil {
		return
	}

	var err error
	if out.IsNew {
		err = s.pub.PublishUserProvisioned(ctx, UserProvisionedEvent{
			UserID:   out.User.ID,
			Email:    out.User.Email,
			Role:     string(out.User.Role),
			Provider: provider,
			At:       s.now().UTC(),
		})
	} else {
		err = s.pub.PublishUserSignedIn(ctx, UserSignedInEvent{
			UserID:   out.User.ID,
			Provider: provider,
			At:       s.now().UTC(),
		})
	}
	if err != nil {
		logger.Logger.Warn().Err(err).
			Str("user_id", out.User.ID).
			Bool("new_user", out.IsNew).
			Msg("publish sign-in event failed")
	}
}
