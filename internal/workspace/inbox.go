package workspace

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/service"
	"github.com/solidoro/bmw-admin/internal/utils"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// StatusFilter selects messages by their done flag.
type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusDone   StatusFilter = "done"
	StatusUndone StatusFilter = "undone"
)

const dayLayout = "2006-01-02"

// InboxFilter narrows the message list. Date is a UTC calendar day.
type InboxFilter struct {
	Search string       `json:"search"`
	Date   string       `json:"date"`
	Status StatusFilter `json:"status"`
}

// Normalize validates f and fills in the default status.
func (f InboxFilter) Normalize() (InboxFilter, error) {
	switch f.Status {
	case "":
		f.Status = StatusAll
	case StatusAll, StatusDone, StatusUndone:
	default:
		return f, fmt.Errorf("%w: status %q", utils.ErrInvalidFilter, f.Status)
	}
	if f.Date != "" {
		if _, err := time.Parse(dayLayout, f.Date); err != nil {
			return f, fmt.Errorf("%w: date %q", utils.ErrInvalidFilter, f.Date)
		}
	}
	return f, nil
}

// InboxView is a rendered snapshot of the inbox.
type InboxView struct {
	Items    []catalogapi.Message `json:"items"`
	Showing  int                  `json:"showing"`
	Total    int                  `json:"total"`
	Pending  int                  `json:"pending"`
	Filter   InboxFilter          `json:"filter"`
	Selected *catalogapi.Message  `json:"selected,omitempty"`
	Stale    bool                 `json:"stale"`
	Error    string               `json:"error,omitempty"`
}

// Inbox holds one session's messages, filters and selection.
type Inbox struct {
	svc *service.MessageService

	mu       sync.Mutex
	messages []catalogapi.Message
	filter   InboxFilter
	selected int
	lastErr  string
}

func newInbox(svc *service.MessageService) *Inbox {
	return &Inbox{svc: svc, filter: InboxFilter{Status: StatusAll}}
}

// Refresh refetches every message, keeping the previous list on failure.
func (in *Inbox) Refresh(ctx context.Context) error {
	msgs, err := in.svc.List(ctx)
	in.mu.Lock()
	defer in.mu.Unlock()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch messages")
		in.lastErr = err.Error()
		return err
	}
	for i := range msgs {
		if msgs[i].Attachments == nil {
			msgs[i].Attachments = []string{}
		}
	}
	in.messages, in.lastErr = msgs, ""
	if in.selected != 0 && in.indexOf(in.selected) < 0 {
		in.selected = 0
	}
	return nil
}

// SetFilter validates and applies f.
func (in *Inbox) SetFilter(f InboxFilter) (InboxFilter, error) {
	f, err := f.Normalize()
	if err != nil {
		return f, err
	}
	in.mu.Lock()
	in.filter = f
	in.mu.Unlock()
	return f, nil
}

// Filter returns the active filter.
func (in *Inbox) Filter() InboxFilter {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.filter
}

// Select opens message id.
func (in *Inbox) Select(id int) (*catalogapi.Message, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.indexOf(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: message %d", utils.ErrNotFound, id)
	}
	in.selected = id
	m := in.messages[i]
	return &m, nil
}

// ClearSelection closes the open message.
func (in *Inbox) ClearSelection() {
	in.mu.Lock()
	in.selected = 0
	in.mu.Unlock()
}

// SetDone updates the done flag upstream and, once accepted, in the local
// list. A rejected update leaves local state untouched.
func (in *Inbox) SetDone(ctx context.Context, id int, done bool) (*catalogapi.Message, error) {
	if err := in.svc.SetDone(ctx, id, done); err != nil {
		return nil, err
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	i := in.indexOf(id)
	if i < 0 {
		return &catalogapi.Message{ID: id, Done: done}, nil
	}
	in.messages[i].Done = done
	m := in.messages[i]
	return &m, nil
}

// View renders the filtered inbox.
func (in *Inbox) View() InboxView {
	in.mu.Lock()
	defer in.mu.Unlock()
	items := FilterMessages(in.messages, in.filter)
	pending := 0
	for _, m := range in.messages {
		if !m.Done {
			pending++
		}
	}
	v := InboxView{
		Items:   items,
		Showing: len(items),
		Total:   len(in.messages),
		Pending: pending,
		Filter:  in.filter,
		Stale:   in.lastErr != "",
		Error:   in.lastErr,
	}
	if i := in.indexOf(in.selected); i >= 0 {
		m := in.messages[i]
		v.Selected = &m
	}
	return v
}

func (in *Inbox) indexOf(id int) int {
	if id == 0 {
		return -1
	}
	for i := range in.messages {
		if in.messages[i].ID == id {
			return i
		}
	}
	return -1
}

// FilterMessages keeps messages matching f, in input order. Search matches
// email and subject case-insensitively and phone as typed.
func FilterMessages(msgs []catalogapi.Message, f InboxFilter) []catalogapi.Message {
	search := strings.ToLower(f.Search)
	out := make([]catalogapi.Message, 0, len(msgs))
	for _, m := range msgs {
		if f.Search != "" &&
			!strings.Contains(strings.ToLower(m.Email), search) &&
			!strings.Contains(m.Phone, f.Search) &&
			!strings.Contains(strings.ToLower(m.Subject), search) {
			continue
		}
		if f.Date != "" && MessageDay(m.CreatedAt) != f.Date {
			continue
		}
		switch f.Status {
		case StatusDone:
			if !m.Done {
				continue
			}
		case StatusUndone:
			if m.Done {
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

var createdAtLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
}

// MessageDay returns the UTC calendar day of a created_at timestamp, or ""
// when it cannot be parsed. Timestamps without a zone are read as UTC.
func MessageDay(createdAt string) string {
	for _, layout := range createdAtLayouts {
		if t, err := time.Parse(layout, createdAt); err == nil {
			return t.UTC().Format(dayLayout)
		}
	}
	return ""
}
