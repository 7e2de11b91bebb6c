package redis

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/baechuer/sso-service/internal/application/sso"
	"github.com/baechuer/sso-service/internal/domain"
)

const stateKeyPrefix = "sso:oauth:state:"

// errStateNotFound is returned from inside the WATCH transaction and mapped on the way out.
var errStateNotFound = errors.New("oauth state not found or expired")

// OAuthStateStore keeps OAuth state tokens in Redis with a TTL.
type OAuthStateStore struct {
	client *Client
	ttl    time.Duration
}

func NewOAuthStateStore(client *Client, ttl time.Duration) *OAuthStateStore {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &OAuthStateStore{
		client: client,
		ttl:    ttl,
	}
}

func (s *OAuthStateStore) Create(ctx context.Context, state sso.OAuthStateData) (string, error) {
	stateBytes := make([]byte, 32)
	if _, err := rand.Read(stateBytes); err != nil {
		return "", domain.ErrRandomFailed(err)
	}
	token := base64.RawURLEncoding.EncodeToString(stateBytes)

	data, err := json.Marshal(state)
	if err != nil {
		return "", domain.ErrInternal(err)
	}

	if err := s.client.rdb.Set(ctx, stateKeyPrefix+token, data, s.ttl).Err(); err != nil {
		return "", domain.ErrRedisUnavailable(err)
	}
	return token, nil
}

// Consume reads and deletes the state in one WATCH transaction so a token can be used once.
func (s *OAuthStateStore) Consume(ctx context.Context, token string) (sso.OAuthStateData, error) {
	if token == "" {
		return sso.OAuthStateData{}, domain.ErrInvalidOAuthState()
	}
	key := stateKeyPrefix + token

	var state sso.OAuthStateData
	err := s.client.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, goredis.Nil) {
				return errStateNotFound
			}
			return err
		}
		if err := json.Unmarshal(data, &state); err != nil {
			return errStateNotFound
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Del(ctx, key)
			return nil
		})
		return err
	}, key)

	switch {
	case err == nil:
		return state, nil
	case errors.Is(err, errStateNotFound), errors.Is(err, goredis.TxFailedErr):
		return sso.OAuthStateData{}, domain.ErrInvalidOAuthState()
	default:
		return sso.OAuthStateData{}, domain.ErrRedisUnavailable(err)
	}
}
