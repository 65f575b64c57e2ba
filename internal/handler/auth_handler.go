package handler

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/middleware"
	"go-newsroom/internal/session"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/oauth2"
)

// AuthServicer defines the interface for verifying users.
type AuthServicer interface {
	Login(ctx context.Context, email, password string) (*data.User, error)
	LoginWithIdentity(ctx context.Context, claims *auth.IdentityClaims) (*data.User, error)
	SessionUser(ctx context.Context, id int64) (*data.User, error)
}

// IdentityProvider is the OIDC round trip used for single sign-on.
type IdentityProvider interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	VerifyCode(ctx context.Context, code string) (*auth.IdentityClaims, error)
}

// AuthHandler holds the dependencies for the authentication handlers.
type AuthHandler struct {
	svc     AuthServicer
	session session.Manager
	oidc    IdentityProvider
}

// NewAuthHandler creates a new AuthHandler. idp may be nil when single
// sign-on is not configured.
func NewAuthHandler(svc AuthServicer, sm session.Manager, idp IdentityProvider) *AuthHandler {
	return &AuthHandler{svc: svc, session: sm, oidc: idp}
}

// Mount registers the authentication routes.
func (h *AuthHandler) Mount(r chi.Router, wrap func(middleware.AppHandler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Method(http.MethodPost, "/login", wrap(h.handleLogin))
		r.Method(http.MethodPost, "/logout", wrap(h.handleLogout))
		r.Method(http.MethodGet, "/me", wrap(h.handleMe))
		if h.oidc != nil {
			r.Get("/oidc/login", h.handleOIDCLogin)
			r.Method(http.MethodGet, "/oidc/callback", wrap(h.handleOIDCCallback))
		}
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleLogin verifies credentials and binds the user to the session.
func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var req loginRequest
	if appErr := decodeJSON(r, &req); appErr != nil {
		return appErr
	}
	user, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		return middleware.FromError(err)
	}
	if appErr := h.startSession(r.Context(), user); appErr != nil {
		return appErr
	}
	respond(w, r, http.StatusOK, user)
	return nil
}

// handleLogout destroys the session.
func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.session.Destroy(r.Context()); err != nil {
		return middleware.FromError(apperr.Internal(err, "failed to end session"))
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// handleMe returns the user behind the current session.
func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	actor := middleware.ActorFrom(r.Context())
	if actor == nil {
		return middleware.FromError(apperr.Unauthenticated("not logged in"))
	}
	user, err := h.svc.SessionUser(r.Context(), actor.ID)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, user)
	return nil
}

// handleOIDCLogin redirects the user to the OIDC provider to log in.
// It uses a random 'state' string for CSRF protection.
func (h *AuthHandler) handleOIDCLogin(w http.ResponseWriter, r *http.Request) {
	state, err := randString(16)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	h.session.Put(r.Context(), session.OIDCStateKey, state)
	http.Redirect(w, r, h.oidc.AuthCodeURL(state), http.StatusFound)
}

// handleOIDCCallback is the redirect URL for the OIDC provider. It verifies
// the state, exchanges the code and maps the identity to a local user.
func (h *AuthHandler) handleOIDCCallback(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	expected := h.session.PopString(r.Context(), session.OIDCStateKey)
	if expected == "" || r.URL.Query().Get("state") != expected {
		return middleware.BadRequest("state did not match")
	}

	claims, err := h.oidc.VerifyCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		return middleware.FromError(apperr.Unauthenticated("identity provider rejected the login: %v", err))
	}
	user, err := h.svc.LoginWithIdentity(r.Context(), claims)
	if err != nil {
		return middleware.FromError(err)
	}
	if appErr := h.startSession(r.Context(), user); appErr != nil {
		return appErr
	}
	respond(w, r, http.StatusOK, user)
	return nil
}

// startSession rotates the session token before storing the user id, so a
// pre-login token cannot be reused.
func (h *AuthHandler) startSession(ctx context.Context, user *data.User) *middleware.AppError {
	if err := h.session.RenewToken(ctx); err != nil {
		return middleware.FromError(apperr.Internal(err, "failed to start session"))
	}
	h.session.Put(ctx, session.UserIDKey, user.ID)
	return nil
}

// randString is a helper function to generate a random string for the 'state' parameter.
func randString(nByte int) (string, error) {
	b := make([]byte, nByte)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
