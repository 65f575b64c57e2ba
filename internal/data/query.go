package data

import (
	"go-newsroom/internal/lifecycle"
	"strings"
)

const (
	// MaxLimit caps caller-supplied page sizes.
	MaxLimit = 100
)

// Predicate is one typed condition of a listing. A ListSpec ANDs its
// predicates in order.
type Predicate interface {
	clause() (string, []any)
}

// StatusIs matches a lifecycle status.
type StatusIs struct{ Status lifecycle.Status }

// CategoryIs matches a category id. Category slugs are resolved before the
// predicate is built.
type CategoryIs struct{ ID int64 }

// TitleContains is a case-insensitive substring match on the title.
type TitleContains struct{ Text string }

// TypeIs matches the kind-specific discriminator (media type, event type...).
type TypeIs struct{ Type string }

// FeaturedIs matches the featured flag.
type FeaturedIs struct{ Featured bool }

// AuthorIs scopes a listing to one owner.
type AuthorIs struct{ ID int64 }

// NoMatch matches nothing, e.g. when a category slug does not resolve.
type NoMatch struct{}

func (p StatusIs) clause() (string, []any)   { return "status = ?", []any{p.Status} }
func (p CategoryIs) clause() (string, []any) { return "category_id = ?", []any{p.ID} }
func (p TypeIs) clause() (string, []any)     { return "item_type = ?", []any{p.Type} }
func (p FeaturedIs) clause() (string, []any) { return "is_featured = ?", []any{p.Featured} }
func (p AuthorIs) clause() (string, []any)   { return "author_id = ?", []any{p.ID} }
func (NoMatch) clause() (string, []any)      { return "1 = 0", nil }

func (p TitleContains) clause() (string, []any) {
	return "LOWER(title) LIKE ? ESCAPE '!'", []any{"%" + escapeLike(strings.ToLower(p.Text)) + "%"}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Order selects the sort of a listing.
type Order int

const (
	// OrderRecency sorts by publish time, falling back to creation time, newest first.
	OrderRecency Order = iota
	// OrderManual sorts by the explicit sort_order, then title.
	OrderManual
)

func (o Order) sql() string {
	if o == OrderManual {
		return " ORDER BY sort_order ASC, title ASC, id ASC"
	}
	return " ORDER BY COALESCE(published_at, created_at) DESC, id DESC"
}

// ListSpec describes a filtered, paginated listing of one kind. The page and
// its total are both derived from Where, so they cannot disagree.
type ListSpec struct {
	Kind       Kind
	Predicates []Predicate
	Order      Order
	Page       int
	Limit      int
}

// Where renders the full filter, starting with the kind.
func (s ListSpec) Where() (string, []any) {
	clauses := []string{"kind = ?"}
	args := []any{s.Kind}
	for _, p := range s.Predicates {
		c, a := p.clause()
		clauses = append(clauses, c)
		args = append(args, a...)
	}
	return strings.Join(clauses, " AND "), args
}

// Offset returns the row offset of the requested page.
func (s ListSpec) Offset() int {
	return (s.Page - 1) * s.Limit
}

// NormalizePage applies defaults and bounds: page is at least 1 and limit
// falls back to defaultLimit and never exceeds MaxLimit.
func NormalizePage(page, limit, defaultLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit
}

// Pagination is the metadata returned with every listing.
type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int   `json:"pages"`
}

// NewPagination computes the page count for total rows.
func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, Pages: pages}
}
