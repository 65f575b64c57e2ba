package handler

import (
	"errors"
	"go-newsroom/internal/middleware"
	"go-newsroom/internal/service"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v interface{}) *middleware.AppError {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		if errors.Is(err, io.EOF) {
			return middleware.BadRequest("request body is empty")
		}
		return middleware.BadRequest("malformed JSON body: %v", err)
	}
	return nil
}

// respond writes v as JSON with the given status.
func respond(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

// idParam parses the numeric {id} URL parameter.
func idParam(r *http.Request) (int64, *middleware.AppError) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, middleware.BadRequest("invalid id %q", raw)
	}
	return id, nil
}

// listParams reads the listing query string. Unknown parameters are ignored.
func listParams(r *http.Request) (service.ListParams, *middleware.AppError) {
	q := r.URL.Query()
	p := service.ListParams{
		Status:   q.Get("status"),
		Category: q.Get("category"),
		Search:   q.Get("search"),
		Type:     q.Get("type"),
	}

	var err error
	if v := q.Get("page"); v != "" {
		if p.Page, err = strconv.Atoi(v); err != nil {
			return p, middleware.BadRequest("page must be a number")
		}
	}
	if v := q.Get("limit"); v != "" {
		if p.Limit, err = strconv.Atoi(v); err != nil {
			return p, middleware.BadRequest("limit must be a number")
		}
	}
	if v := q.Get("featured"); v != "" {
		featured, err := strconv.ParseBool(v)
		if err != nil {
			return p, middleware.BadRequest("featured must be true or false")
		}
		p.Featured = &featured
	}
	if v := q.Get("author"); v != "" {
		authorID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return p, middleware.BadRequest("author must be a numeric id")
		}
		p.AuthorID = &authorID
	}
	return p, nil
}
