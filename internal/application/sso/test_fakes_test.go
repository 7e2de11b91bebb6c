package sso

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/baechuer/sso-service/internal/domain"
)

// -------------------------
// users
// -------------------------

type fakeUsers struct {
	mu sync.Mutex

	byEmail map[string]domain.User

	openErr   error
	findErr   error
	updateErr error
	createErr error

	// forceOpen overrides the empty-directory rule when set.
	forceOpen *bool

	created []domain.User
	updates []domain.UserUpdate
}

func newFakeUsers(users ...domain.User) *fakeUsers {
	f := &fakeUsers{byEmail: make(map[string]domain.User)}
	for _, u := range users {
		f.byEmail[strings.ToLower(u.Email)] = u
	}
	return f
}

func (f *fakeUsers) AdminRegistrationOpen(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return false, f.openErr
	}
	if f.forceOpen != nil {
		return *f.forceOpen, nil
	}
	return len(f.byEmail) == 0, nil
}

func (f *fakeUsers) FindOneByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUsers) Update(ctx context.Context, id string, upd domain.UserUpdate) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return domain.User{}, f.updateErr
	}
	for k, u := range f.byEmail {
		if u.ID == id {
			u = upd.Apply(u)
			f.byEmail[k] = u
			f.updates = append(f.updates, upd)
			return u, nil
		}
	}
	return domain.User{}, domain.ErrUserNotFound()
}

func (f *fakeUsers) Create(ctx context.Context, u domain.User) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	u.Email = strings.ToLower(u.Email)
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.User{}, domain.ErrEmailAlreadyExists()
	}
	f.byEmail[u.Email] = u
	f.created = append(f.created, u)
	return u, nil
}

// -------------------------
// domain policy
// -------------------------

type fakePolicy struct {
	allow bool
	calls int
	list  string
}

func (p *fakePolicy) IsAllowed(list, email string) bool {
	p.calls++
	p.list = list
	return p.allow
}

// -------------------------
// provider
// -------------------------

type fakeProvider struct {
	name        string
	profile     domain.Profile
	exchangeErr error
	profileErr  error

	gotCode     string
	gotVerifier string
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) AuthURL(state, codeVerifier string) string {
	return "https://idp.test/auth?state=" + state + "&v=" + codeVerifier
}

func (p *fakeProvider) Exchange(ctx context.Context, code, codeVerifier string) (*oauth2.Token, error) {
	p.gotCode, p.gotVerifier = code, codeVerifier
	if p.exchangeErr != nil {
		return nil, p.exchangeErr
	}
	return &oauth2.Token{AccessToken: "at-" + code, TokenType: "Bearer"}, nil
}

func (p *fakeProvider) FetchProfile(ctx context.Context, token *oauth2.Token) (domain.Profile, error) {
	if p.profileErr != nil {
		return domain.Profile{}, p.profileErr
	}
	return p.profile, nil
}

// -------------------------
// state store
// -------------------------

type fakeStates struct {
	mu         sync.Mutex
	data       map[string]OAuthStateData
	n          int
	createErr  error
	consumeErr error
}

func newFakeStates() *fakeStates {
	return &fakeStates{data: make(map[string]OAuthStateData)}
}

func (s *fakeStates) Create(ctx context.Context, st OAuthStateData) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.n++
	tok := "state-" + string(rune('a'+s.n-1))
	s.data[tok] = st
	return tok, nil
}

func (s *fakeStates) Consume(ctx context.Context, token string) (OAuthStateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.consumeErr != nil {
		return OAuthStateData{}, s.consumeErr
	}
	st, ok := s.data[token]
	if !ok {
		return OAuthStateData{}, domain.ErrInvalidOAuthState()
	}
	delete(s.data, token)
	return st, nil
}

// -------------------------
// publisher
// -------------------------

type fakePublisher struct {
	mu          sync.Mutex
	provisioned []UserProvisionedEvent
	signedIn    []UserSignedInEvent
	err         error
}

func (p *fakePublisher) PublishUserProvisioned(ctx context.Context, evt UserProvisionedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.provisioned = append(p.provisioned, evt)
	return p.err
}

func (p *fakePublisher) PublishUserSignedIn(ctx context.Context, evt UserSignedInEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signedIn = append(p.signedIn, evt)
	return p.err
}

// -------------------------
// rendezvous users
// -------------------------

// rendezvousUsers makes each of the two resolution reads wait until the other
// has started. Run one after the other, the first read times out.
type rendezvousUsers struct {
	*fakeUsers

	openEntered chan struct{}
	findEntered chan struct{}
	wait        time.Duration
}

var errNoRendezvous = errors.New("the other directory read never started")

func newRendezvousUsers(inner *fakeUsers, wait time.Duration) *rendezvousUsers {
	return &rendezvousUsers{
		fakeUsers:   inner,
		openEntered: make(chan struct{}),
		findEntered: make(chan struct{}),
		wait:        wait,
	}
}

func (u *rendezvousUsers) meet(mine, other chan struct{}) error {
	close(mine)
	select {
	case <-other:
		return nil
	case <-time.After(u.wait):
		return errNoRendezvous
	}
}

func (u *rendezvousUsers) AdminRegistrationOpen(ctx context.Context) (bool, error) {
	if err := u.meet(u.openEntered, u.findEntered); err != nil {
		return false, err
	}
	return u.fakeUsers.AdminRegistrationOpen(ctx)
}

func (u *rendezvousUsers) FindOneByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := u.meet(u.findEntered, u.openEntered); err != nil {
		return nil, err
	}
	return u.fakeUsers.FindOneByEmail(ctx, email)
}
