package sso

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/sso-service/internal/domain"
)

type serviceFixture struct {
	svc    *Service
	states *fakeStates
	pub    *fakePublisher
	users  *fakeUsers
	prov   *fakeProvider
}

func newServiceFixture(t *testing.T, users ...domain.User) serviceFixture {
	t.Helper()

	f := serviceFixture{
		states: newFakeStates(),
		pub:    &fakePublisher{},
		users:  newFakeUsers(users...),
		prov:   &fakeProvider{name: "google", profile: domain.Profile{Email: "ann@example.com", Name: "Ann"}},
	}

	reg := NewRegistry()
	require.NoError(t, reg.Register(NewStrategy(GoogleStrategyName, "", "", f.prov,
		NewResolver(f.users, &fakePolicy{allow: true}, ResolverConfig{}))))

	f.svc = NewService(reg, f.states, f.pub)
	f.svc.newVerifier = func() string { return "verifier-1" }
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

func TestService_Start(t *testing.T) {
	f := newServiceFixture(t)

	res, err := f.svc.Start(context.Background(), "google", "/queries")
	require.NoError(t, err)
	assert.Equal(t, "https://idp.test/auth?state=state-a&v=verifier-1", res.AuthURL)

	st := f.states.data["state-a"]
	assert.Equal(t, OAuthStateData{Provider: "google", CodeVerifier: "verifier-1", RedirectTo: "/queries"}, st)
}

func TestService_Start_Errors(t *testing.T) {
	f := newServiceFixture(t)

	_, err := f.svc.Start(context.Background(), "github", "/")
	assert.True(t, domain.Is(err, "unsupported_provider"))

	f.states.createErr = domain.ErrRedisUnavailable(errors.New("down"))
	_, err = f.svc.Start(context.Background(), "google", "/")
	assert.True(t, domain.Is(err, "redis_unavailable"))
}

func TestService_Callback_ProvisionsAndPublishes(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "google", "/queries")
	require.NoError(t, err)

	res, err := f.svc.Callback(ctx, "google", "state-a", "code-1")
	require.NoError(t, err)
	assert.Equal(t, "/queries", res.RedirectTo)
	require.Equal(t, OutcomeAuthenticated, res.Outcome.Kind)
	assert.True(t, res.Outcome.IsNew)
	assert.Equal(t, "verifier-1", f.prov.gotVerifier)

	require.Len(t, f.pub.provisioned, 1)
	evt := f.pub.provisioned[0]
	assert.Equal(t, res.Outcome.User.ID, evt.UserID)
	assert.Equal(t, "admin", evt.Role)
	assert.Equal(t, "google", evt.Provider)
	assert.Equal(t, fixedNow, evt.At)
	assert.Empty(t, f.pub.signedIn)

	// state is one-time
	_, err = f.svc.Callback(ctx, "google", "state-a", "code-1")
	assert.True(t, domain.Is(err, "invalid_oauth_state"))
}

func TestService_Callback_SignInPublishesSignedIn(t *testing.T) {
	f := newServiceFixture(t, domain.User{ID: "u1", Email: "ann@example.com"})
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "google", "/")
	require.NoError(t, err)

	res, err := f.svc.Callback(ctx, "google", "state-a", "code")
	require.NoError(t, err)
	assert.Equal(t, "signed_in", res.Outcome.Label())
	require.Len(t, f.pub.signedIn, 1)
	assert.Equal(t, "u1", f.pub.signedIn[0].UserID)
}

func TestService_Callback_PublishFailureDoesNotFailLogin(t *testing.T) {
	f := newServiceFixture(t)
	f.pub.err = errors.New("broker down")
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "google", "/")
	require.NoError(t, err)

	res, err := f.svc.Callback(ctx, "google", "state-a", "code")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAuthenticated, res.Outcome.Kind)
}

func TestService_Callback_RejectionIsNotAnError(t *testing.T) {
	f := newServiceFixture(t, domain.User{ID: "u1", Email: "ann@example.com", Disabled: true})
	ctx := context.Background()

	_, err := f.svc.Start(ctx, "google", "/")
	require.NoError(t, err)

	res, err := f.svc.Callback(ctx, "google", "state-a", "code")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRejected, res.Outcome.Kind)
	assert.Nil(t, res.Outcome.Rejection)
	assert.Empty(t, f.pub.signedIn)
	assert.Empty(t, f.pub.provisioned)
}

func TestService_Callback_StateErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown_state", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Callback(ctx, "google", "nope", "code")
		assert.True(t, domain.Is(err, "invalid_oauth_state"))
	})

	t.Run("provider_mismatch", func(t *testing.T) {
		f := newServiceFixture(t)
		f.states.data["forged"] = OAuthStateData{Provider: "github"}
		_, err := f.svc.Callback(ctx, "google", "forged", "code")
		assert.True(t, domain.Is(err, "provider_mismatch"))
	})

	t.Run("store_down_passes_through", func(t *testing.T) {
		f := newServiceFixture(t)
		f.states.consumeErr = domain.ErrRedisUnavailable(errors.New("down"))
		_, err := f.svc.Callback(ctx, "google", "x", "code")
		assert.True(t, domain.Is(err, "redis_unavailable"))
	})

	t.Run("non_domain_store_error", func(t *testing.T) {
		f := newServiceFixture(t)
		f.states.consumeErr = errors.New("garbled")
		_, err := f.svc.Callback(ctx, "google", "x", "code")
		assert.True(t, domain.Is(err, "invalid_oauth_state"))
	})

	t.Run("unknown_provider", func(t *testing.T) {
		f := newServiceFixture(t)
		_, err := f.svc.Callback(ctx, "github", "x", "code")
		assert.True(t, domain.Is(err, "unsupported_provider"))
	})
}
