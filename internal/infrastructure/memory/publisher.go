package memory

import (
	"context"

	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/logger"
)

// NoopPublisher logs events instead of sending them. Used when RABBIT_URL is unset.
type NoopPublisher struct{}

func NewNoopPublisher() *NoopPublisher { return &NoopPublisher{} }

func (p *NoopPublisher) PublishUserProvisioned(ctx context.Context, evt sso.UserProvisionedEvent) error {
	logger.Logger.Debug().
		Str("publisher", "noop").
		Str("user_id", evt.UserID).
		Str("role", evt.Role).
		Str("provider", evt.Provider).
		Msg("user provisioned")
	return nil
}

func (p *NoopPublisher) PublishUserSignedIn(ctx context.Context, evt sso.UserSignedInEvent) error {
	logger.Logger.Debug().
		Str("publisher", "noop").
		Str("user_id", evt.UserID).
		Str("provider", evt.Provider).
		Msg("user signed in")
	return nil
}
