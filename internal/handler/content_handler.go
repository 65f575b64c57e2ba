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

// ContentServicer defines the interface for interacting with one content kind.
type ContentServicer interface {
	Spec() service.KindSpec
	List(ctx context.Context, actor *auth.Actor, p service.ListParams) (*service.ListResult, error)
	Featured(ctx context.Context, p service.ListParams) (*service.ListResult, error)
	AdminList(ctx context.Context, actor *auth.Actor, p service.ListParams) (*service.ListResult, error)
	Get(ctx context.Context, actor *auth.Actor, ref string) (*data.ContentItem, error)
	Create(ctx context.Context, actor *auth.Actor, in service.ContentInput) (*data.ContentItem, error)
	Update(ctx context.Context, actor *auth.Actor, id int64, in service.ContentInput) (*data.ContentItem, error)
	Delete(ctx context.Context, actor *auth.Actor, id int64) error
}

// ContentHandler serves the REST endpoints of one content kind.
type ContentHandler struct {
	svc ContentServicer
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(svc ContentServicer) *ContentHandler {
	return &ContentHandler{svc: svc}
}

// Mount registers the kind's routes under its path.
func (h *ContentHandler) Mount(r chi.Router, wrap func(middleware.AppHandler) http.Handler) {
	r.Route(h.svc.Spec().Path, func(r chi.Router) {
		r.Method(http.MethodGet, "/", wrap(h.list))
		r.Method(http.MethodGet, "/featured", wrap(h.featured))
		r.Method(http.MethodGet, "/admin/all", wrap(h.adminList))
		r.Method(http.MethodGet, "/{ref}", wrap(h.get))
		r.Method(http.MethodPost, "/", wrap(h.create))
		r.Method(http.MethodPut, "/{id}", wrap(h.update))
		r.Method(http.MethodDelete, "/{id}", wrap(h.delete))
	})
}

func (h *ContentHandler) list(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	p, appErr := listParams(r)
	if appErr != nil {
		return appErr
	}
	res, err := h.svc.List(r.Context(), middleware.ActorFrom(r.Context()), p)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, res)
	return nil
}

func (h *ContentHandler) featured(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	p, appErr := listParams(r)
	if appErr != nil {
		return appErr
	}
	res, err := h.svc.Featured(r.Context(), p)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, res)
	return nil
}

func (h *ContentHandler) adminList(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	p, appErr := listParams(r)
	if appErr != nil {
		return appErr
	}
	res, err := h.svc.AdminList(r.Context(), middleware.ActorFrom(r.Context()), p)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, res)
	return nil
}

func (h *ContentHandler) get(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	item, err := h.svc.Get(r.Context(), middleware.ActorFrom(r.Context()), chi.URLParam(r, "ref"))
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, item)
	return nil
}

func (h *ContentHandler) create(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	var in service.ContentInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	item, err := h.svc.Create(r.Context(), middleware.ActorFrom(r.Context()), in)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusCreated, item)
	return nil
}

func (h *ContentHandler) update(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	id, appErr := idParam(r)
	if appErr != nil {
		return appErr
	}
	var in service.ContentInput
	if appErr := decodeJSON(r, &in); appErr != nil {
		return appErr
	}
	item, err := h.svc.Update(r.Context(), middleware.ActorFrom(r.Context()), id, in)
	if err != nil {
		return middleware.FromError(err)
	}
	respond(w, r, http.StatusOK, item)
	return nil
}

func (h *ContentHandler) delete(w http.ResponseWriter, r *http.Request) *middleware.AppError {
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
