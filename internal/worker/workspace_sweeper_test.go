package worker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	ttl   time.Duration
}

func (s *countingSweeper) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.ttl = ttl
	return 1
}

func (s *countingSweeper) Len() int { return 0 }

func (s *countingSweeper) snapshot() (int, time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls, s.ttl
}

func TestSweeperRunsUntilCancelled(t *testing.T) {
	s := &countingSweeper{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewWorkspaceSweeper(s, time.Minute, 5*time.Millisecond).Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		if calls, _ := s.snapshot(); calls >= 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("Expected the sweeper to run")
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Expected the sweeper to stop after cancel")
	}
	if _, ttl := s.snapshot(); ttl != time.Minute {
		t.Errorf("Expected ttl 1m, got %s", ttl)
	}
}
