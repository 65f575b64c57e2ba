package middleware

import (
	"context"
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/data"
	"go-newsroom/internal/logger"
	"go-newsroom/internal/session"
	"net/http"
)

// UserLoader resolves the user behind a session.
type UserLoader interface {
	SessionUser(ctx context.Context, id int64) (*data.User, error)
}

// Actor loads the session user and stores it as the request's actor.
// Requests without a valid session proceed anonymously; a session pointing
// at a missing or deactivated user is cleared.
func Actor(sm session.Manager, users UserLoader, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := sm.GetInt64(ctx, session.UserIDKey)
			if id == 0 {
				next.ServeHTTP(w, r)
				return
			}

			user, err := users.SessionUser(ctx, id)
			if err != nil {
				if apperr.KindOf(err) == apperr.KindUnauthenticated {
					sm.Remove(ctx, session.UserIDKey)
				} else {
					log.Error(err, fmt.Sprintf("Failed to load session user %d", id))
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(ctx, user.Actor())))
		})
	}
}
