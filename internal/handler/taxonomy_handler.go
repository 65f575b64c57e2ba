package handler

import (
	"context"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/middleware"
	"go-newsroom/internal/service"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CategoryServicer defines the interface for managing categories.
type CategoryServicer interface {
	List(ctx context.Context, scope data.CategoryScope, search string) ([]*data.Category, error)
	Get(ctx context.Context, scope data.CategoryScope, slug string) (*data.Category, error)
	Create(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, in service.CategoryInput) (*data.Category, error)
	Update(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, id int64, in service.CategoryInput) (*data.Category, error)
	Delete(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, id int64) error
}

// TagServicer defines the interface for managing tags.
type TagServicer interface {
	List(ctx context.Context) ([]*data.Tag, error)
	Create(ctx context.Context, actor *auth.Actor, name string) (*data.Tag, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
}

// CategoryHandler serves the categories of one scope.
type CategoryHandler struct {
	svc   CategoryServicer
	scope data.CategoryScope
}

// NewCategoryHandler creates a handler for the categories of scope.
func NewCategoryHandler(svc CategoryServicer, scope data.CategoryScope) *CategoryHandler {
	return &CategoryHandler{svc: svc, scope: scope}
}

// Mount registers the category routes under path.
func (h *CategoryHandler) Mount(r chi.Router, path string, wrap func(middleware.AppHandler) http.Handler) {
	r.Route(path, func(r chi.Router) {
		r.Method(http.MethodGet, "/", wrap(h.list))
		r.Method(http.MethodGet, "/{slug}", wrap(h.get))
		r.Method(http.MethodPost, "/", wrap(h.create))
		r.Method(http.MethodPut, "/{id}", wrap(h.update))
		r.Method(http.MethodDelete, "/{id}", wrap(h.delete))
	})
}

func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	categories, err := h.svc.List(r.Context(), h.scope, r.URL.Query().Get("search"))
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, map[string]interface{}{"items": categories})
	return nil
}

func (h *CategoryHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	category, err := h.svc.Get(r.Context(), h.scope, chi.URLParam(r, "slug"))
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, category)
	return nil
}

func (h *CategoryHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.CategoryInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	category, err := h.svc.Create(r.Context(), middleware.ActorFrom(r.Context()), h.scope, in)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusCreated, category)
	return nil
}

func (h *CategoryHandler) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var in service.CategoryInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	category, err := h.svc.Update(r.Context(), middleware.ActorFrom(r.Context()), h.scope, id, in)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, category)
	return nil
}

func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	if err := h.svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), h.scope, id); err != nil {
		return middleware.FromError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// TagHandler serves the tag vocabulary.
type TagHandler struct {
	svc TagServicer
}

// NewTagHandler creates a new TagHandler.
func NewTagHandler(svc TagServicer) *TagHandler {
	return &TagHandler{svc: svc}
}

// Mount registers the tag routes.
func (h *TagHandler) Mount(r chi.Router, wrap func(middleware.AppHandler) http.Handler) {
	r.Route("/tags", func(r chi.Router) {
		r.Method(http.MethodGet, "/", wrap(h.list))
		r.Method(http.MethodPost, "/", wrap(h.create))
		r.Method(http.MethodDelete, "/{id}", wrap(h.delete))
	})
}

func (h *TagHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	tags, err := h.svc.List(r.Context())
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, map[string]interface{}{"items": tags})
	return nil
}

func (h *TagHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in struct {
		Name string `json:"name"`
	}
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	tag, err := h.svc.Create(r.Context(), middleware.ActorFrom(r.Context()), in.Name)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusCreated, tag)
	return nil
}

func (h *TagHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	if err := h.svc.Delete(r.Context(), middleware.ActorFrom(r.Context()), id); err != nil {
		return middleware.FromError(err)
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
