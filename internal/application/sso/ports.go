package sso

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/baechuer/sso-service/internal/domain"
)

/*
UserDirectory
-------------
Persistence port for the application's users.
Only describes WHAT sign-in needs, not HOW it's stored.
*/
type UserDirectory interface {
	// AdminRegistrationOpen is true while the directory has no users at all.
	AdminRegistrationOpen(ctx context.Context) (bool, error)
	// FindOneByEmail returns nil, nil when no user has this email.
	FindOneByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (domain.User, error)
	Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.User, error)
	Create(ctx context.Context, u domain.User) (domain.User, error)
}

/*
DomainPolicy
------------
Decides whether an email's domain is pre-approved for auto-provisioning.
*/
type DomainPolicy interface {
	IsAllowed(allowedDomains, email string) bool
}

/*
Provider
--------
The OAuth2 half of a strategy: authorization URL, code exchange and the
profile lookup. Implementations make no account decisions.
*/
type Provider interface {
	Name() string
	AuthURL(state, codeVerifier string) string
	Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error)
	FetchProfile(ctx context.Context, token *oauth2.Token) (domain.Profile, error)
}

/*
OAuthStateStore
---------------
One-time state tokens that tie a callback to the request that started it.
*/
type OAuthStateData struct {
	Provider     string `json:"provider"`
	CodeVerifier string `json:"code_verifier"`
	RedirectTo   string `json:"redirect_to"`
}

type OAuthStateStore interface {
	Create(ctx context.Context, state OAuthStateData) (token string, err error)
	Consume(ctx context.Context, token string) (OAuthStateData, error)
}

/*
EventPublisher
--------------
Publishes sign-in events to the broker. Failures never block a login.
*/
type EventPublisher interface {
	PublishUserProvisioned(ctx context.Context, evt UserProvisionedEvent) error
	PublishUserSignedIn(ctx context.Context, evt UserSignedInEvent) error
}

type UserProvisionedEvent struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Role     string    `json:"role"`
	Provider string    `json:"provider"`
	At       time.Time `json:"at"`
}

type UserSignedInEvent struct {
	UserID   string    `json:"user_id"`
	Provider string    `json:"provider"`
	At       time.Time `json:"at"`
}
