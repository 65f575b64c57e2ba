package middleware

import (
	"context"
	"go-newsroom/internal/auth"
)

// contextKey defines a custom type for context keys to avoid collisions.
type contextKey string

const actorContextKey = contextKey("actor")

// ActorFrom retrieves the authenticated actor from the request context.
// It returns nil for anonymous requests.
func ActorFrom(ctx context.Context) *auth.Actor {
	if actor, ok := ctx.Value(actorContextKey).(*auth.Actor); ok {
		return actor
	}
	return nil
}

// WithActor adds the actor to the request context.
func WithActor(ctx context.Context, actor *auth.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey, actor)
}
