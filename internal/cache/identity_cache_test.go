package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

type memKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newMemKV() *memKV {
	return &memKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *memKV) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

func (m *memKV) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func TestIdentityCacheRoundTrip(t *testing.T) {
	kv := newMemKV()
	c := NewIdentityCache(kv, time.Hour)
	ctx := context.Background()

	if _, err := c.Get(ctx, "tok"); err != ErrMiss {
		t.Fatalf("Expected miss, got %v", err)
	}

	id := &catalogapi.Identity{Role: "admin", UserID: "user_1", Raw: []byte(`{"role":"admin"}`)}
	if err := c.Put(ctx, "tok", id, time.Time{}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	got, err := c.Get(ctx, "tok")
	if err != nil {
		t.Fatalf("Expected hit, got %v", err)
	}
	if got.Role != "admin" || got.UserID != "user_1" || string(got.Raw) != `{"role":"admin"}` {
		t.Errorf("Unexpected identity %+v", got)
	}

	for k := range kv.data {
		if strings.Contains(k, "tok") && !strings.HasPrefix(k, "identity:") {
			t.Errorf("Raw token leaked into key %s", k)
		}
		if kv.ttls[k] != time.Hour {
			t.Errorf("Expected max TTL, got %s", kv.ttls[k])
		}
	}

	if err := c.Drop(ctx, "tok"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if _, err := c.Get(ctx, "tok"); err != ErrMiss {
		t.Errorf("Expected miss after drop, got %v", err)
	}
}

func TestIdentityCacheCapsTTLAtTokenExpiry(t *testing.T) {
	kv := newMemKV()
	c := NewIdentityCache(kv, time.Hour)

	if err := c.Put(context.Background(), "tok", &catalogapi.Identity{Role: "admin"}, time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	for _, ttl := range kv.ttls {
		if ttl > time.Minute {
			t.Errorf("Expected TTL capped at token expiry, got %s", ttl)
		}
	}
}

func TestIdentityCacheSkipsExpiredToken(t *testing.T) {
	kv := newMemKV()
	c := NewIdentityCache(kv, time.Hour)

	if err := c.Put(context.Background(), "tok", &catalogapi.Identity{Role: "admin"}, time.Now().Add(-time.Second)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(kv.data) != 0 {
		t.Errorf("Expected nothing cached for an expired token, got %d entries", len(kv.data))
	}
}
