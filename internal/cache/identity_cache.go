package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// KV is the subset of Redis the typed caches need.
type KV interface {
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

type cachedIdentity struct {
	Role     string          `json:"role"`
	UserID   string          `json:"userId,omitempty"`
	Email    string          `json:"email,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
	CachedAt time.Time       `json:"cachedAt"`
}

// IdentityCache remembers the identity resolved for a bearer token so the
// access check runs once per session. Keys are token hashes; raw tokens are
// never written to Redis.
type IdentityCache struct {
	kv     KV
	maxTTL time.Duration
}

// NewIdentityCache creates an IdentityCache whose entries live at most maxTTL.
func NewIdentityCache(kv KV, maxTTL time.Duration) *IdentityCache {
	return &IdentityCache{kv: kv, maxTTL: maxTTL}
}

func (c *IdentityCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "identity:" + hex.EncodeToString(sum[:])
}

// Get returns the cached identity for token or ErrMiss.
func (c *IdentityCache) Get(ctx context.Context, token string) (*catalogapi.Identity, error) {
	raw, err := c.kv.Get(ctx, c.key(token))
	if err != nil {
		return nil, err
	}
	var ci cachedIdentity
	if err := json.Unmarshal([]byte(raw), &ci); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached identity: %w", err)
	}
	return &catalogapi.Identity{Role: ci.Role, UserID: ci.UserID, Email: ci.Email, Raw: ci.Raw}, nil
}

// Put caches id for token. expiresAt, when non-zero, caps the TTL so an
// entry never outlives the token it was resolved from.
func (c *IdentityCache) Put(ctx context.Context, token string, id *catalogapi.Identity, expiresAt time.Time) error {
	ttl := c.maxTTL
	if !expiresAt.IsZero() {
		if until := time.Until(expiresAt); until < ttl {
			ttl = until
		}
	}
	if ttl <= 0 {
		return nil
	}
	data, err := json.Marshal(cachedIdentity{
		Role:     id.Role,
		UserID:   id.UserID,
		Email:    id.Email,
		Raw:      id.Raw,
		CachedAt: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal identity: %w", err)
	}
	return c.kv.Set(ctx, c.key(token), string(data), ttl)
}

// Drop forgets the identity for token.
func (c *IdentityCache) Drop(ctx context.Context, token string) error {
	return c.kv.Delete(ctx, c.key(token))
}
