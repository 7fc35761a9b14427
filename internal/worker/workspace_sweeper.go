package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Sweeper discards workspaces idle for longer than a TTL.
type Sweeper interface {
	Sweep(ttl time.Duration) int
	Len() int
}

// WorkspaceSweeper releases idle session state on a fixed interval.
type WorkspaceSweeper struct {
	registry Sweeper
	idleTTL  time.Duration
	interval time.Duration
}

// NewWorkspaceSweeper constructs a WorkspaceSweeper.
func NewWorkspaceSweeper(registry Sweeper, idleTTL, interval time.Duration) *WorkspaceSweeper {
	return &WorkspaceSweeper{
		registry: registry,
		idleTTL:  idleTTL,
		interval: interval,
	}
}

// Start begins the sweep loop and listens for context cancellation.
func (w *WorkspaceSweeper) Start(ctx context.Context) {
	log.Info().Dur("interval", w.interval).Dur("idle_ttl", w.idleTTL).Msg("Starting workspace sweeper")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.run()
		case <-ctx.Done():
			log.Info().Msg("Workspace sweeper stopped")
			return
		}
	}
}

func (w *WorkspaceSweeper) run() {
	if removed := w.registry.Sweep(w.idleTTL); removed > 0 {
		log.Info().Int("removed", removed).Int("open", w.registry.Len()).Msg("Idle workspaces released")
	}
}
