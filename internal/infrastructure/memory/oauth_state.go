package memory

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"sync"
	"time"

	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/domain"
)

const defaultStateTTL = 10 * time.Minute

type OAuthStateStore struct {
	mu     sync.Mutex
	states map[string]stateEntry
	ttl    time.Duration
	now    func() time.Time
}

type stateEntry struct {
	data      sso.OAuthStateData
	expiresAt time.Time
}

func NewOAuthStateStore(ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &OAuthStateStore{
		states: make(map[string]stateEntry),
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *OAuthStateStore) Create(ctx context.Context, state sso.OAuthStateData) (string, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	token := base64.RawURLEncoding.EncodeToString(stateBytes)

	s.mu.Lock()
	defer s.mu.Unlock()

	// drop expired entries
	now := s.now()
	for k, v := range s.states {
		if now.After(v.expiresAt) {
			delete(s.states, k)
		}
	}

	s.states[token] = stateEntry{
		data:      state,
		expiresAt: now.Add(s.ttl),
	}
	return token, nil
}

// Consume returns the state once; later calls see it as missing.
func (s *OAuthStateStore) Consume(ctx context.Context, token string) (sso.OAuthStateData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.states[token]
	delete(s.states, token)
	if !ok || s.now().After(entry.expiresAt) {
		return sso.OAuthStateData{}, domain.ErrInvalidOAuthState()
	}
	return entry.data, nil
}
