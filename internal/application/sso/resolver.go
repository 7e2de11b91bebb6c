package sso

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/baechuer/sso-service/internal/domain"
)

// Resolver maps a verified provider profile onto a local user: it signs in an
// existing account, provisions a new one, or rejects the attempt.
type Resolver struct {
	users          UserDirectory
	policy         DomainPolicy
	allowedDomains string

	now   func() time.Time
	newID func() string
	audit func(action string, fields map[string]string)
}

type ResolverConfig struct {
	// AllowedDomains is handed to the DomainPolicy unchanged.
	AllowedDomains string
}

func NewResolver(users UserDirectory, policy DomainPolicy, cfg ResolverConfig) *Resolver {
	return &Resolver{
		users:          users,
		policy:         policy,
		allowedDomains: cfg.AllowedDomains,
		now:            time.Now,
		newID:          uuid.NewString,
		audit:          func(string, map[string]string) {},
	}
}

func (r *Resolver) WithAudit(fn func(action string, fields map[string]string)) *Resolver {
	if fn != nil {
		r.audit = fn
	}
	return r
}

// WithClock overrides the time source used for signup timestamps.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	if now != nil {
		r.now = now
	}
	return r
}

// Resolve decides what a verified profile is allowed to do.
// Rejections are reported in the Outcome, never as Err.
func (r *Resolver) Resolve(ctx context.Context, profile domain.Profile) Outcome {
	email := strings.TrimSpace(profile.Email)
	if email == "" {
		r.audit("sso_rejected", map[string]string{
			"provider": profile.Provider,
			"reason":   RejectEmailNotProvided,
		})
		return rejected(&Rejection{
			Code:    RejectEmailNotProvided,
			Message: fmt.Sprintf("email not provided from %s", providerDisplayName(profile.Provider)),
		})
	}

	// The two reads are independent; neither result orders the other.
	var (
		open     bool
		existing *domain.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		open, err = r.users.AdminRegistrationOpen(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		existing, err = r.users.FindOneByEmail(gctx, email)
		return err
	})
	if err := g.Wait(); err != nil {
		return failed(err)
	}

	if existing != nil {
		return r.signIn(ctx, profile, *existing)
	}
	return r.provision(ctx, profile, email, open)
}

func (r *Resolver) signIn(ctx context.Context, profile domain.Profile, u domain.User) Outcome {
	if u.Disabled {
		r.audit("sso_rejected", map[string]string{
			"provider": profile.Provider,
			"user_id":  u.ID,
			"reason":   "disabled",
		})
		return rejected(nil)
	}

	now := r.now()
	updated, err := r.users.Update(ctx, u.ID, domain.UserUpdate{SignupAt: &now})
	if err != nil {
		return failed(err)
	}

	r.audit("sso_login", map[string]string{
		"provider": profile.Provider,
		"user_id":  updated.ID,
	})
	return authenticated(updated, false)
}

func (r *Resolver) provision(ctx context.Context, profile domain.Profile, email string, open bool) Outcome {
	if !open && !r.policy.IsAllowed(r.allowedDomains, email) {
		r.audit("sso_rejected", map[string]string{
			"provider": profile.Provider,
			"reason":   RejectNotInvited,
		})
		return rejected(&Rejection{Code: RejectNotInvited, Message: notInvitedMessage})
	}

	role := domain.RoleEditor
	if open {
		role = domain.RoleAdmin
	}

	now := r.now()
	created, err := r.users.Create(ctx, domain.User{
		ID:       r.newID(),
		Email:    email,
		Name:     profile.Name,
		Role:     role,
		SignupAt: &now,
	})
	if err != nil {
		return failed(err)
	}

	r.audit("sso_register", map[string]string{
		"provider": profile.Provider,
		"user_id":  created.ID,
		"role":     string(created.Role),
	})
	return authenticated(created, true)
}

func providerDisplayName(provider string) string {
	switch provider {
	case GoogleStrategyName:
		return "Google"
	case "":
		return "provider"
	default:
		return provider
	}
}
