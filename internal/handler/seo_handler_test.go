package handler

import (
	"context"
	"encoding/xml"
	"errors"
	"go-newsroom/internal/data"
	"go-newsroom/internal/lifecycle"
	"go-newsroom/internal/logger"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublishedLister struct {
	items []*data.ContentItem
	err   error
}

func (m *mockPublishedLister) Published(ctx context.Context) ([]*data.ContentItem, error) {
	return m.items, m.err
}

type mockPinger struct{ err error }

func (m mockPinger) PingContext(ctx context.Context) error { return m.err }

func newSeoTestRouter(lister PublishedLister, db Pinger) http.Handler {
	sm := newMockSession()
	svc := &mockAuthService{user: &data.User{ID: 1}}
	return NewRouter(Handlers{
		Seo:        NewSeoHandler(lister, "https://news.example.com/"),
		Auth:       NewAuthHandler(svc, sm, nil),
		Tags:       NewTagHandler(nil),
		Categories: nil,
		DB:         db,
	}, sm, withActor(nil), logger.Nop())
}

func TestRobotsHandler(t *testing.T) {
	router := newSeoTestRouter(&mockPublishedLister{}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/robots.txt", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/plain", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "Disallow: /auth/")
	assert.Contains(t, rr.Body.String(), "Sitemap: https://news.example.com/sitemap.xml")
}

func TestSitemapHandler(t *testing.T) {
	updated := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	lister := &mockPublishedLister{items: []*data.ContentItem{
		{Kind: data.KindArticle, Slug: "lagos-chronicles", Status: lifecycle.StatusPublished, UpdatedAt: updated},
		{Kind: data.KindProduct, Slug: "ankara-tote", Status: lifecycle.StatusPublished, UpdatedAt: updated},
		{Kind: data.Kind("unknown"), Slug: "ignored", UpdatedAt: updated},
	}}
	router := newSeoTestRouter(lister, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/xml", rr.Header().Get("Content-Type"))

	var set urlSet
	require.NoError(t, xml.Unmarshal(rr.Body.Bytes(), &set))
	require.Len(t, set.URLs, 2)
	assert.Equal(t, "https://news.example.com/articles/lagos-chronicles", set.URLs[0].Loc)
	assert.Equal(t, "https://news.example.com/products/ankara-tote", set.URLs[1].Loc)
	assert.Equal(t, "2026-03-14", set.URLs[0].LastMod)
}

func TestSitemapHandler_Error(t *testing.T) {
	router := newSeoTestRouter(&mockPublishedLister{err: errors.New("db down")}, nil)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil))
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newSeoTestRouter(&mockPublishedLister{}, mockPinger{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"ok"`)

	rr = httptest.NewRecorder()
	newSeoTestRouter(&mockPublishedLister{}, mockPinger{err: errors.New("gone")}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
