package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/domain"
)

func newMiniClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	c := NewFromClient(goredis.NewClient(&goredis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestClient_Ping_FailsFast(t *testing.T) {
	c := New("127.0.0.1:1", "", 0)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	assert.Error(t, c.Ping(ctx))
}

func TestClient_Ping_OK(t *testing.T) {
	c, _ := newMiniClient(t)
	assert.NoError(t, c.Ping(context.Background()))
}

func TestOAuthStateStore_CreateConsume(t *testing.T) {
	c, mr := newMiniClient(t)
	s := NewOAuthStateStore(c, 5*time.Minute)
	ctx := context.Background()

	in := sso.OAuthStateData{Provider: "google", CodeVerifier: "verifier", RedirectTo: "/queries"}
	tok, err := s.Create(ctx, in)
	require.NoError(t, err)

	key := stateKeyPrefix + tok
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 5*time.Minute, mr.TTL(key))

	got, err := s.Consume(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, in, got)
	assert.False(t, mr.Exists(key))

	_, err = s.Consume(ctx, tok)
	assert.True(t, domain.Is(err, "invalid_oauth_state"))
}

func TestOAuthStateStore_Expired(t *testing.T) {
	c, mr := newMiniClient(t)
	s := NewOAuthStateStore(c, time.Minute)
	ctx := context.Background()

	tok, err := s.Create(ctx, sso.OAuthStateData{Provider: "google"})
	require.NoError(t, err)

	mr.FastForward(2 * time.Minute)

	_, err = s.Consume(ctx, tok)
	assert.True(t, domain.Is(err, "invalid_oauth_state"))
}

func TestOAuthStateStore_DefaultTTL(t *testing.T) {
	c, _ := newMiniClient(t)
	s := NewOAuthStateStore(c, 0)
	assert.Equal(t, 10*time.Minute, s.ttl)
}

func TestOAuthStateStore_EmptyToken(t *testing.T) {
	c, _ := newMiniClient(t)
	s := NewOAuthStateStore(c, time.Minute)

	_, err := s.Consume(context.Background(), "")
	assert.True(t, domain.Is(err, "invalid_oauth_state"))
}

func TestOAuthStateStore_GarbagePayload(t *testing.T) {
	c, mr := newMiniClient(t)
	s := NewOAuthStateStore(c, time.Minute)

	require.NoError(t, mr.Set(stateKeyPrefix+"junk", "{not json"))

	_, err := s.Consume(context.Background(), "junk")
	assert.True(t, domain.Is(err, "invalid_oauth_state"))
}

func TestOAuthStateStore_RedisDown(t *testing.T) {
	c, mr := newMiniClient(t)
	s := NewOAuthStateStore(c, time.Minute)
	mr.Close()

	_, err := s.Create(context.Background(), sso.OAuthStateData{Provider: "google"})
	assert.True(t, domain.Is(err, "redis_unavailable"))

	_, err = s.Consume(context.Background(), "whatever")
	assert.True(t, domain.Is(err, "redis_unavailable"))
}
