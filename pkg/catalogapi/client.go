package catalogapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultBaseURL is the production catalog backend.
	DefaultBaseURL = "https://solidoro-backend-production.up.railway.app/api"

	materialsPath  = "/building-materials"
	categoriesPath = "/building-material-categories"
	seriesPath     = "/building-material-series"
	messagesPath   = "/messages"
)

// Config configures a Client.
type Config struct {
	BaseURL string
	// Timeout of zero means no client-side timeout; the request context is
	// the only way a call ends early.
	Timeout time.Duration
	Debug   bool
}

// Client talks to the catalog backend. A Client is safe for concurrent use;
// WithToken derives a per-session copy carrying the bearer token.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	debug      bool
}

// NewClient constructs a Client. Trailing slashes on the base URL are dropped.
func NewClient(cfg Config) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(base, "/"),
		debug:      cfg.Debug,
	}
}

// WithToken returns a copy of the client that authenticates with token.
func (c *Client) WithToken(token string) *Client {
	cp := *c
	cp.token = token
	return &cp
}

// URL builds an absolute upstream URL, adding the leading slash if missing.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Me resolves the identity behind the client's token.
func (c *Client) Me(ctx context.Context) (*Identity, error) {
	var resp meResponse
	if err := c.doJSON(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	// An empty body or one without "auth" is unusable, not a refusal.
	if resp.Auth == nil {
		return nil, transportErr("decode /auth/me", errors.New("missing auth object"))
	}
	return resp.Auth, nil
}

// ListMaterials returns every material; the upstream applies no filtering.
func (c *Client) ListMaterials(ctx context.Context) ([]Material, error) {
	var env envelope[[]Material]
	if err := c.doJSON(ctx, http.MethodGet, materialsPath, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// CreateMaterial uploads a new material. The trailing slash matches the
// upstream route.
func (c *Client) CreateMaterial(ctx context.Context, form *Form) (*Material, error) {
	var env envelope[*Material]
	if err := c.doForm(ctx, http.MethodPost, materialsPath+"/", form, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// UpdateMaterial replaces the mutable fields of the material identified by code.
func (c *Client) UpdateMaterial(ctx context.Context, code string, form *Form) (*Material, error) {
	var env envelope[*Material]
	if err := c.doForm(ctx, http.MethodPut, materialsPath+"/"+url.PathEscape(code), form, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}

// DeleteMaterial removes a material by code.
func (c *Client) DeleteMaterial(ctx context.Context, code string) error {
	return c.doJSON(ctx, http.MethodDelete, materialsPath+"/"+url.PathEscape(code), nil, nil)
}

// ListCategories returns every category.
func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var env envelope[[]Category]
	if err := c.doJSON(ctx, http.MethodGet, categoriesPath, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, form *Form) error {
	return c.doForm(ctx, http.MethodPost, categoriesPath, form, nil)
}

// UpdateCategory edits the category with the given id.
func (c *Client) UpdateCategory(ctx context.Context, id int, form *Form) error {
	return c.doForm(ctx, http.MethodPut, categoriesPath+"/"+strconv.Itoa(id), form, nil)
}

// DeleteCategory removes a category. Materials referencing it are untouched.
func (c *Client) DeleteCategory(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, categoriesPath+"/"+strconv.Itoa(id), nil, nil)
}

// ListSeries returns every series.
func (c *Client) ListSeries(ctx context.Context) ([]Series, error) {
	var env envelope[[]Series]
	if err := c.doJSON(ctx, http.MethodGet, seriesPath, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// CreateSeries creates a series.
func (c *Client) CreateSeries(ctx context.Context, form *Form) error {
	return c.doForm(ctx, http.MethodPost, seriesPath, form, nil)
}

// UpdateSeries edits the series with the given id.
func (c *Client) UpdateSeries(ctx context.Context, id int, form *Form) error {
	return c.doForm(ctx, http.MethodPut, seriesPath+"/"+strconv.Itoa(id), form, nil)
}

// DeleteSeries removes a series.
func (c *Client) DeleteSeries(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, seriesPath+"/"+strconv.Itoa(id), nil, nil)
}

// ListMessages returns every customer message.
func (c *Client) ListMessages(ctx context.Context) ([]Message, error) {
	var env envelope[[]Message]
	if err := c.doJSON(ctx, http.MethodGet, messagesPath, nil, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Data), nil
}

// SetMessageStatus flips the done flag of a message.
func (c *Client) SetMessageStatus(ctx context.Context, id int, done bool) error {
	return c.doJSON(ctx, http.MethodPatch, messagesPath+"/"+strconv.Itoa(id)+"/status", statusRequest{Done: done}, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var (
		reader      io.Reader
		contentType string
	)
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, reader, contentType, result)
}

func (c *Client) doForm(ctx context.Context, method, path string, form *Form, result any) error {
	if form == nil {
		form = NewForm()
	}
	buf, contentType, err := form.encode()
	if err != nil {
		return err
	}
	return c.do(ctx, method, path, buf, contentType, result)
}

// do executes the request and decodes a 2xx body into result. Non-2xx
// answers become *StatusError carrying the upstream "message" when present.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	token := c.token
	if token == "" {
		token = BearerFrom(ctx)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return transportErr(method+" "+path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr("read "+path, err)
	}

	if c.debug {
		log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status_code", resp.StatusCode).
			Dur("latency", time.Since(start)).
			Int("bytes", len(respBody)).
			Msg("[CATALOG] upstream response")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    upstreamMessage(respBody),
		}
	}

	if result == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return transportErr("decode "+path, err)
	}
	return nil
}

func upstreamMessage(body []byte) string {
	var e struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err != nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
