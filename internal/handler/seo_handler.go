package handler

import (
	"context"
	"encoding/xml"
	"fmt"
	"go-newsroom/internal/data"
	"go-newsroom/internal/service"
	"net/http"
	"strings"
)

// PublishedLister lists every published item for the sitemap.
type PublishedLister interface {
	Published(ctx context.Context) ([]*data.ContentItem, error)
}

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	content PublishedLister
	baseURL string
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public site root.
func NewSeoHandler(content PublishedLister, baseURL string) *SeoHandler {
	return &SeoHandler{content: content, baseURL: strings.TrimRight(baseURL, "/")}
}

// robotsHandler serves robots.txt pointing at the sitemap.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /auth/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s/sitemap.xml\n", h.baseURL)
}

const sitemapDateFormat = "2006-01-02"

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a dynamic sitemap.xml of published content.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.Published(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve content for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(items)),
	}
	for _, item := range items {
		spec, ok := service.KindSpecFor(item.Kind)
		if !ok {
			continue
		}
		sitemap.URLs = append(sitemap.URLs, sitemapURL{
			Loc:     h.baseURL + spec.Path + "/" + item.Slug,
			LastMod: item.UpdatedAt.Format(sitemapDateFormat),
		})
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
