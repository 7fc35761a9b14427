package access

import (
	"context"
	"strings"
)

// BearerSession adapts an HTTP Authorization header to Session. The session
// provider has already run in the browser, so it is always ready. A header
// that is not a bearer credential counts as signed out.
type BearerSession struct {
	header string
}

// NewBearerSession wraps the raw Authorization header value.
func NewBearerSession(header string) BearerSession {
	return BearerSession{header: strings.TrimSpace(header)}
}

func (s BearerSession) Ready() bool { return true }

func (s BearerSession) Token(ctx context.Context) (string, error) {
	scheme, token, ok := strings.Cut(s.header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", nil
	}
	return strings.TrimSpace(token), nil
}
