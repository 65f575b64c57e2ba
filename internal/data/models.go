package data

import (
	"go-newsroom/internal/auth"
	"go-newsroom/internal/lifecycle"
	"time"
)

// Kind discriminates the content entity types sharing the content_items table.
type Kind string

const (
	KindArticle Kind = "article"
	KindProduct Kind = "product"
	KindMedia   Kind = "media"
	KindEvent   Kind = "event"
	KindTeam    Kind = "team"
)

// CategoryScope separates editorial categories from catalog (product) categories.
type CategoryScope string

const (
	ScopeEditorial CategoryScope = "editorial"
	ScopeCatalog   CategoryScope = "catalog"
)

// ContentItem is the shape shared by articles, products, media items, events
// and team members.
type ContentItem struct {
	ID           int64            `db:"id" json:"id"`
	Kind         Kind             `db:"kind" json:"kind"`
	Slug         string           `db:"slug" json:"slug"`
	Title        string           `db:"title" json:"title"`
	Summary      string           `db:"summary" json:"summary"`
	Body         string           `db:"body" json:"body"`
	BodyHTML     string           `db:"-" json:"body_html,omitempty"`
	ItemType     string           `db:"item_type" json:"type,omitempty"`
	AuthorID     *int64           `db:"author_id" json:"author_id,omitempty"`
	CategoryID   *int64           `db:"category_id" json:"category_id,omitempty"`
	Status       lifecycle.Status `db:"status" json:"status"`
	IsFeatured   bool             `db:"is_featured" json:"is_featured"`
	SortOrder    int              `db:"sort_order" json:"sort_order"`
	PriceCents   *int64           `db:"price_cents" json:"price_cents,omitempty"`
	Location     string           `db:"location" json:"location,omitempty"`
	StartsAt     *time.Time       `db:"starts_at" json:"starts_at,omitempty"`
	EndsAt       *time.Time       `db:"ends_at" json:"ends_at,omitempty"`
	ViewCount    int64            `db:"view_count" json:"view_count"`
	PublishedAt  *time.Time       `db:"published_at" json:"published_at,omitempty"`
	ScheduledFor *time.Time       `db:"scheduled_for" json:"scheduled_for,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at" json:"updated_at"`
	Tags         []Tag            `db:"-" json:"tags"`
}

// State returns the lifecycle-relevant fields of the item.
func (c *ContentItem) State() lifecycle.State {
	return lifecycle.State{Status: c.Status, PublishedAt: c.PublishedAt, ScheduledFor: c.ScheduledFor}
}

// SetState copies a lifecycle state back onto the item.
func (c *ContentItem) SetState(st lifecycle.State) {
	c.Status = st.Status
	c.PublishedAt = st.PublishedAt
	c.ScheduledFor = st.ScheduledFor
}

// IsPublished returns true if the item is publicly visible.
func (c *ContentItem) IsPublished() bool {
	return c.Status == lifecycle.StatusPublished
}

// Category groups content within one scope.
type Category struct {
	ID          int64         `db:"id" json:"id"`
	Scope       CategoryScope `db:"scope" json:"scope"`
	Name        string        `db:"name" json:"name"`
	Slug        string        `db:"slug" json:"slug"`
	Description string        `db:"description" json:"description,omitempty"`
	SortOrder   int           `db:"sort_order" json:"sort_order"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

// Tag is a free-form label attached to content items.
type Tag struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// User is a console account.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Email        string    `db:"email" json:"email"`
	Name         string    `db:"name" json:"name"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         auth.Role `db:"role" json:"role"`
	Active       bool      `db:"active" json:"active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Actor returns the authorization principal for the user.
func (u *User) Actor() *auth.Actor {
	return &auth.Actor{ID: u.ID, Role: u.Role}
}
