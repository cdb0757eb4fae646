package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Record is the durable shape of a session. Tokens are stored both inside the
// record and as standalone string values so token-only readers need not parse
// the record.
type Record struct {
	User            *User  `json:"user"`
	AccessToken     string `json:"access_token"`
	RefreshToken    string `json:"refresh_token"`
	IsAuthenticated bool   `json:"is_authenticated"`
}

// Vault persists a session durably. Save must be atomic from the point of
// view of Load, and Clear must remove the tokens and the record together:
// clearing one but not the other is a defect.
type Vault interface {
	Save(ctx context.Context, rec Record) error
	Load(ctx context.Context) (Record, bool, error)
	Clear(ctx context.Context) error
}

const (
	keyAccessToken = "access_token"
	keyRefresh     = "refresh_token"
	keyRecord      = "auth_storage"
)

// RedisVault stores the session under a fixed key set below a per-session
// prefix, typically "console:sess:<sid>".
type RedisVault struct {
	client *redis.Client
	prefix string
}

// NewRedisVault constructs a vault rooted at prefix.
func NewRedisVault(client *redis.Client, prefix string) *RedisVault {
	return &RedisVault{client: client, prefix: prefix}
}

func (v *RedisVault) key(name string) string {
	return v.prefix + ":" + name
}

// Save writes tokens and the serialized record in one round trip.
func (v *RedisVault) Save(ctx context.Context, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("session: marshal record: %w", err)
	}
	pipe := v.client.TxPipeline()
	pipe.Set(ctx, v.key(keyAccessToken), rec.AccessToken, 0)
	pipe.Set(ctx, v.key(keyRefresh), rec.RefreshToken, 0)
	pipe.Set(ctx, v.key(keyRecord), data, 0)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("session: persist record: %w", err)
	}
	return nil
}

// Load reads the serialized record. A missing record is not an error.
func (v *RedisVault) Load(ctx context.Context) (Record, bool, error) {
	data, err := v.client.Get(ctx, v.key(keyRecord)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, false, nil
		}
		return Record{}, false, fmt.Errorf("session: load record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, false, fmt.Errorf("session: decode record: %w", err)
	}
	return rec, true, nil
}

// Clear removes tokens and record in a single DEL.
func (v *RedisVault) Clear(ctx context.Context) error {
	if err := v.client.Del(ctx, v.key(keyAccessToken), v.key(keyRefresh), v.key(keyRecord)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: clear record: %w", err)
	}
	return nil
}

// HasAccessToken reports whether a non-empty access token is persisted.
func (v *RedisVault) HasAccessToken(ctx context.Context) (bool, error) {
	val, err := v.client.Get(ctx, v.key(keyAccessToken)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}

var _ Vault = (*RedisVault)(nil)
