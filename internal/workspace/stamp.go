package workspace

import (
	"net/url"
	"strconv"
	"sync"
	"time"
)

// Stamp is a cache-busting token appended to asset URLs. Bumping it after a
// mutation makes browsers refetch images and documents that kept their URL
// but changed content.
type Stamp struct {
	mu    sync.Mutex
	value int64
	now   func() time.Time
}

func newStamp(now func() time.Time) *Stamp {
	return &Stamp{value: now().UnixMilli(), now: now}
}

// Value returns the current token.
func (s *Stamp) Value() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.value
}

// Bump moves the token forward. Two bumps within the same millisecond still
// produce different values.
func (s *Stamp) Bump() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.now().UnixMilli()
	if next <= s.value {
		next = s.value + 1
	}
	s.value = next
	return s.value
}

// Bust sets the t query parameter of rawURL to stamp. Empty or unparsable
// URLs are returned unchanged.
func Bust(rawURL string, stamp int64) string {
	if rawURL == "" {
		return rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Set("t", strconv.FormatInt(stamp, 10))
	u.RawQuery = q.Encode()
	return u.String()
}
