package session

import (
	"context"
	"net/http"
)

// UserIDKey is the session key holding the authenticated user's id.
const UserIDKey = "user_id"

// OIDCStateKey is the session key holding the pending OIDC state.
const OIDCStateKey = "oidc_state"

// Manager is an interface that abstracts the session management implementation.
// This allows for easier testing and dependency injection.
type Manager interface {
	LoadAndSave(next http.Handler) http.Handler
	Put(ctx context.Context, key string, val interface{})
	GetInt64(ctx context.Context, key string) int64
	GetString(ctx context.Context, key string) string
	PopString(ctx context.Context, key string) string
	RenewToken(ctx context.Context) error
	Destroy(ctx context.Context) error
	Remove(ctx context.Context, key string)
}
