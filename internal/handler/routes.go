package handler

import (
	"context"
	"go-newsroom/internal/data"
	"go-newsroom/internal/logger"
	appmw "go-newsroom/internal/middleware"
	"go-newsroom/internal/session"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Pinger reports whether the database is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handlers groups every endpoint handler mounted by NewRouter.
type Handlers struct {
	Content    []*ContentHandler
	Categories CategoryServicer
	Tags       *TagHandler
	Auth       *AuthHandler
	Seo        *SeoHandler
	DB         Pinger
}

// NewRouter creates and configures a new chi router.
func NewRouter(h Handlers, sm session.Manager, actor func(http.Handler) http.Handler, log logger.Logger) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	wrap := appmw.Error(log)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if h.DB != nil {
			if err := h.DB.PingContext(r.Context()); err != nil {
				log.Error(err, "Health check failed")
				render.Status(r, http.StatusServiceUnavailable)
				render.JSON(w, r, map[string]string{"status": "unavailable"})
				return
			}
		}
		render.JSON(w, r, map[string]string{"status": "ok"})
	})
	r.Get("/robots.txt", h.Seo.robotsHandler)
	r.Get("/sitemap.xml", h.Seo.sitemapHandler)

	// API routes carry a session and, when logged in, an actor.
	r.Group(func(r chi.Router) {
		r.Use(sm.LoadAndSave)
		r.Use(actor)

		h.Auth.Mount(r, wrap)
		for _, ch := range h.Content {
			ch.Mount(r, wrap)
		}
		NewCategoryHandler(h.Categories, data.ScopeEditorial).Mount(r, "/categories", wrap)
		NewCategoryHandler(h.Categories, data.ScopeCatalog).Mount(r, "/product-categories", wrap)
		h.Tags.Mount(r, wrap)
	})

	return r
}
