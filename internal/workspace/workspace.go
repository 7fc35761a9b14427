// Package workspace keeps the per-session state of the dashboard screens:
// loaded lists, filters, selections and the cache-busting stamp.
package workspace

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/service"
)

// Services are the stateless editors every workspace shares.
type Services struct {
	Materials  *service.MaterialService
	Categories *service.CategoryService
	Series     *service.SeriesService
	Messages   *service.MessageService
}

// Workspace is the dashboard state of one signed-in user.
type Workspace struct {
	ID      string
	Subject string

	Materials  *MaterialsBoard
	Upload     *UploadForm
	Categories *CategoryBoard
	Series     *SeriesBoard
	Inbox      *Inbox

	Stamp *Stamp

	mu       sync.Mutex
	lastSeen time.Time
}

func newWorkspace(subject string, svc Services, now func() time.Time) *Workspace {
	stamp := newStamp(now)
	upload := newUploadForm(svc.Materials)
	return &Workspace{
		ID:         uuid.New().String(),
		Subject:    subject,
		Materials:  newMaterialsBoard(svc.Materials, stamp),
		Upload:     upload,
		Categories: newCategoryBoard(svc.Categories, stamp, upload),
		Series:     newSeriesBoard(svc.Series, stamp, upload),
		Inbox:      newInbox(svc.Messages),
		Stamp:      stamp,
		lastSeen:   now(),
	}
}

func (w *Workspace) touch(t time.Time) {
	w.mu.Lock()
	w.lastSeen = t
	w.mu.Unlock()
}

// LastSeen returns when the workspace was last used.
func (w *Workspace) LastSeen() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastSeen
}

// Registry maps subjects to their workspaces.
type Registry struct {
	svc Services
	now func() time.Time

	mu     sync.Mutex
	spaces map[string]*Workspace
}

// NewRegistry creates an empty Registry.
func NewRegistry(svc Services) *Registry {
	return &Registry{svc: svc, now: time.Now, spaces: make(map[string]*Workspace)}
}

// Acquire returns the workspace of subject, creating it on first use, and
// marks it as active.
func (r *Registry) Acquire(subject string) *Workspace {
	now := r.now()
	r.mu.Lock()
	ws, ok := r.spaces[subject]
	if !ok {
		ws = newWorkspace(subject, r.svc, r.now)
		r.spaces[subject] = ws
	}
	r.mu.Unlock()

	ws.touch(now)
	if !ok {
		log.Debug().Str("subject", subject).Str("workspace_id", ws.ID).Msg("Workspace opened")
	}
	return ws
}

// Drop discards the workspace of subject, as on sign-out.
func (r *Registry) Drop(subject string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.spaces[subject]; !ok {
		return false
	}
	delete(r.spaces, subject)
	return true
}

// Sweep discards workspaces idle for longer than ttl and returns how many
// were removed.
func (r *Registry) Sweep(ttl time.Duration) int {
	cutoff := r.now().Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	removed := 0
	for subject, ws := range r.spaces {
		if ws.LastSeen().Before(cutoff) {
			delete(r.spaces, subject)
			removed++
		}
	}
	return removed
}

// Len returns the number of open workspaces.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.spaces)
}
