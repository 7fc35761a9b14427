// Package access decides whether a session may use the admin dashboard.
package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/solidoro/bmw-admin/internal/cache"
	"github.com/solidoro/bmw-admin/pkg/catalogapi"
)

// State is the outcome of an access check.
type State string

const (
	StateLoading      State = "loading"
	StateAuthorized   State = "authorized"
	StateUnauthorized State = "unauthorized"
	StateError        State = "error"
)

// Terminal reports whether the state only allows signing out.
func (s State) Terminal() bool {
	return s == StateUnauthorized || s == StateError
}

// Session is the caller's view of the session provider.
type Session interface {
	// Ready reports whether the provider has finished loading.
	Ready() bool
	// Token returns the bearer token, or "" when signed out.
	Token(ctx context.Context) (string, error)
}

// Resolver looks up the identity behind a token.
type Resolver interface {
	ResolveIdentity(ctx context.Context, token string) (*catalogapi.Identity, error)
}

// IdentityStore caches identities per token.
type IdentityStore interface {
	Get(ctx context.Context, token string) (*catalogapi.Identity, error)
	Put(ctx context.Context, token string, id *catalogapi.Identity, expiresAt time.Time) error
	Drop(ctx context.Context, token string) error
}

// Decision is the result of Check.
type Decision struct {
	State    State
	Identity *catalogapi.Identity
	Token    string
	Subject  string
	Reason   string
}

// Guard runs the access check.
type Guard struct {
	resolver Resolver
	store    IdentityStore
	verifier *TokenVerifier
	allowed  map[string]struct{}
}

// NewGuard constructs a Guard admitting exactly the given roles. store and
// verifier are optional.
func NewGuard(resolver Resolver, store IdentityStore, verifier *TokenVerifier, roles []string) *Guard {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return &Guard{resolver: resolver, store: store, verifier: verifier, allowed: allowed}
}

// Admits reports whether role is in the admitted set.
func (g *Guard) Admits(role string) bool {
	_, ok := g.allowed[role]
	return ok
}

// Check evaluates the session. It never returns an error: failures map to
// StateUnauthorized or StateError.
func (g *Guard) Check(ctx context.Context, sess Session) Decision {
	if !sess.Ready() {
		return Decision{State: StateLoading}
	}

	token, err := sess.Token(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to obtain session token")
		return Decision{State: StateError, Reason: "token unavailable"}
	}
	if token == "" {
		return Decision{State: StateUnauthorized, Reason: "missing token"}
	}

	var claims Claims
	if g.verifier != nil {
		claims, err = g.verifier.Verify(token)
		if err != nil {
			log.Warn().Err(err).Msg("Session token failed verification")
			return Decision{State: StateUnauthorized, Token: token, Reason: "invalid token"}
		}
	} else {
		claims = ReadClaims(token)
	}

	if g.store != nil {
		id, err := g.store.Get(ctx, token)
		switch {
		case err == nil && g.Admits(id.Role):
			return g.authorized(token, id, claims)
		case err != nil && !errors.Is(err, cache.ErrMiss):
			log.Warn().Err(err).Msg("Identity cache lookup failed")
		}
	}

	id, err := g.resolver.ResolveIdentity(ctx, token)
	if err != nil {
		if se, ok := catalogapi.IsStatus(err); ok {
			log.Info().Int("status", se.StatusCode).Msg("Identity lookup rejected")
			return Decision{State: StateUnauthorized, Token: token, Reason: "identity lookup rejected"}
		}
		log.Error().Err(err).Msg("Identity lookup failed")
		return Decision{State: StateError, Token: token, Reason: "identity lookup failed"}
	}

	if !g.Admits(id.Role) {
		log.Info().Str("role", id.Role).Msg("Role not admitted")
		return Decision{State: StateUnauthorized, Token: token, Identity: id, Reason: "role not admitted"}
	}

	if g.store != nil {
		if err := g.store.Put(ctx, token, id, claims.ExpiresAt); err != nil {
			log.Warn().Err(err).Msg("Failed to cache identity")
		}
	}
	return g.authorized(token, id, claims)
}

// Forget drops any cached identity for token.
func (g *Guard) Forget(ctx context.Context, token string) {
	if g.store == nil || token == "" {
		return
	}
	if err := g.store.Drop(ctx, token); err != nil {
		log.Warn().Err(err).Msg("Failed to drop cached identity")
	}
}

// SubjectOf returns the workspace key of token without an upstream call.
// The cached identity is used when present.
func (g *Guard) SubjectOf(ctx context.Context, token string) string {
	var id *catalogapi.Identity
	if g.store != nil {
		if cached, err := g.store.Get(ctx, token); err == nil {
			id = cached
		}
	}
	return SubjectFor(token, id, ReadClaims(token))
}

func (g *Guard) authorized(token string, id *catalogapi.Identity, claims Claims) Decision {
	return Decision{
		State:    StateAuthorized,
		Identity: id,
		Token:    token,
		Subject:  SubjectFor(token, id, claims),
	}
}

// SubjectFor picks a stable per-user key: the upstream user id, then the
// token subject, then a hash of the token itself.
func SubjectFor(token string, id *catalogapi.Identity, claims Claims) string {
	if id != nil && id.UserID != "" {
		return id.UserID
	}
	if claims.Subject != "" {
		return claims.Subject
	}
	sum := sha256.Sum256([]byte(token))
	return "tok_" + hex.EncodeToString(sum[:8])
}

// ClientResolver resolves identities through the catalog API.
type ClientResolver struct {
	client *catalogapi.Client
}

// NewClientResolver wraps client.
func NewClientResolver(client *catalogapi.Client) *ClientResolver {
	return &ClientResolver{client: client}
}

func (r *ClientResolver) ResolveIdentity(ctx context.Context, token string) (*catalogapi.Identity, error) {
	return r.client.WithToken(token).Me(ctx)
}
