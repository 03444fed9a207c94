package auth

import (
	"context"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Request identity                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// Identity is the caller resolved from a bearer token, stored in the request
// context for the lifetime of one request.
type Identity struct {
	UserID primitive.ObjectID
	Name   string
	Email  string
}

// ID returns the caller's hex user ID.
func (i *Identity) ID() string { return i.UserID.Hex() }

type ctxKey string

const identityKey ctxKey = "identity"

// CurrentIdentity returns the identity attached to ctx and a found flag.
func CurrentIdentity(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(identityKey).(*Identity)
	return id, ok && id != nil
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// UserFetcher loads the current state of a user on each request, so a
// deleted account stops authenticating even while its token is unexpired.
// FetchUser returns nil when the user does not exist or cannot be loaded.
type UserFetcher interface {
	FetchUser(ctx context.Context, userID string) *Identity
}

/*─────────────────────────────────────────────────────────────────────────────*
| Token middleware                                                           |
*─────────────────────────────────────────────────────────────────────────────*/

// TokenAuth resolves the Authorization header into an Identity.
type TokenAuth struct {
	tokens *TokenManager
	users  UserFetcher
	log    *zap.Logger
}

// NewTokenAuth wires a token manager and user fetcher into middleware.
func NewTokenAuth(tokens *TokenManager, users UserFetcher, logger *zap.Logger) *TokenAuth {
	return &TokenAuth{tokens: tokens, users: users, log: logger}
}

// LoadTokenUser attaches an Identity to the request context when the request
// carries a valid token for an existing user. Every other case leaves the
// request anonymous; operations that need an identity reject it later.
func (a *TokenAuth) LoadTokenUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := a.Resolve(r.Context(), r.Header.Get("Authorization")); id != nil {
			r = r.WithContext(WithIdentity(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}

// Resolve turns a raw Authorization header value into an Identity, or nil.
// The value may be the bare token or "Bearer <token>".
func (a *TokenAuth) Resolve(ctx context.Context, header string) *Identity {
	raw := BearerToken(header)
	if raw == "" {
		return nil
	}
	claims, err := a.tokens.Verify(raw)
	if err != nil {
		a.log.Debug("rejected bearer token", zap.Error(err))
		return nil
	}
	id := a.users.FetchUser(ctx, claims.UserID)
	if id == nil {
		a.log.Debug("token for unknown user", zap.String("user_id", claims.UserID))
	}
	return id
}

// BearerToken strips an optional "Bearer " prefix (any case) and whitespace.
func BearerToken(header string) string {
	h := strings.TrimSpace(header)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		h = strings.TrimSpace(h[7:])
	}
	return h
}
