package service

import (
	"context"
	"errors"
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/lifecycle"
	"go-newsroom/internal/logger"
	"go-newsroom/internal/slug"
	"strconv"
	"strings"
	"time"
)

// maxSlugRetries bounds how often a permissive write is retried after losing
// a slug to a concurrent insert.
const maxSlugRetries = 3

// ContentRepository defines the persistence operations on content items.
type ContentRepository interface {
	Create(ctx context.Context, item *data.ContentItem, tagIDs []int64) error
	Update(ctx context.Context, item *data.ContentItem, tagIDs *[]int64) error
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*data.ContentItem, error)
	GetBySlug(ctx context.Context, kind data.Kind, slug string) (*data.ContentItem, error)
	SlugExists(ctx context.Context, kind data.Kind, slug string, excludeID int64) (bool, error)
	List(ctx context.Context, spec data.ListSpec) ([]*data.ContentItem, int64, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
}

// CategoryResolver resolves category references made by content.
type CategoryResolver interface {
	ResolveSlug(ctx context.Context, scope data.CategoryScope, slug string) (int64, error)
	CheckID(ctx context.Context, scope data.CategoryScope, id int64) error
}

// ListParams are the query options of a listing. Zero values mean "not set".
type ListParams struct {
	Page     int
	Limit    int
	Status   string
	Category string
	Search   string
	Type     string
	Featured *bool
	AuthorID *int64
}

// ListResult is one page of a listing.
type ListResult struct {
	Items      []*data.ContentItem `json:"items"`
	Pagination data.Pagination     `json:"pagination"`
}

// ContentInput carries the writable fields of a content item. On update, nil
// fields are left untouched. TagIDs distinguishes absent (nil) from an
// explicit empty list, which clears the tags.
type ContentInput struct {
	Title        *string           `json:"title"`
	Slug         *string           `json:"slug"`
	Summary      *string           `json:"summary"`
	Body         *string           `json:"body"`
	Type         *string           `json:"type"`
	CategoryID   *int64            `json:"category_id"`
	Status       *lifecycle.Status `json:"status"`
	ScheduledFor *time.Time        `json:"scheduled_for"`
	IsFeatured   *bool             `json:"is_featured"`
	SortOrder    *int              `json:"sort_order"`
	PriceCents   *int64            `json:"price_cents"`
	Location     *string           `json:"location"`
	StartsAt     *time.Time        `json:"starts_at"`
	EndsAt       *time.Time        `json:"ends_at"`
	TagIDs       *[]int64          `json:"tag_ids"`
}

// ContentService provides the business logic of one content kind.
type ContentService struct {
	spec       KindSpec
	repo       ContentRepository
	categories CategoryResolver
	gate       *auth.Gate
	slugs      *slug.Allocator
	renderer   *Renderer
	log        logger.Logger
	now        func() time.Time
}

// NewContentService creates the service for the kind described by spec.
func NewContentService(spec KindSpec, repo ContentRepository, categories CategoryResolver, gate *auth.Gate, log logger.Logger) *ContentService {
	return &ContentService{
		spec:       spec,
		repo:       repo,
		categories: categories,
		gate:       gate,
		slugs:      slug.New(spec.SlugMode),
		renderer:   NewRenderer(),
		log:        log.With(map[string]interface{}{"kind": string(spec.Kind)}),
		now:        defaultNow,
	}
}

func defaultNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Spec returns the kind description the service was built for.
func (s *ContentService) Spec() KindSpec {
	return s.spec
}

// List serves the public listing. Published is the only visible status
// unless the actor may list everything of this kind.
func (s *ContentService) List(ctx context.Context, actor *auth.Actor, p ListParams) (*ListResult, error) {
	privileged := actor != nil && s.gate.Can(actor, auth.OpListAll, s.anyResource())
	status, err := lifecycle.ListFilter(p.Status, privileged)
	if err != nil {
		return nil, err
	}
	return s.list(ctx, status, nil, p)
}

// Featured lists published featured items.
func (s *ContentService) Featured(ctx context.Context, p ListParams) (*ListResult, error) {
	featured := true
	p.Featured = &featured
	published := lifecycle.StatusPublished
	return s.list(ctx, &published, nil, p)
}

// AdminList lists items in every status. Authors only see their own items
// of owned kinds.
func (s *ContentService) AdminList(ctx context.Context, actor *auth.Actor, p ListParams) (*ListResult, error) {
	if err := s.gate.Authorize(actor, auth.OpListAll, nil); err != nil {
		return nil, err
	}

	var status *lifecycle.Status
	if p.Status != "" && p.Status != lifecycle.StatusAll {
		st, err := lifecycle.ParseStatus(p.Status)
		if err != nil {
			return nil, err
		}
		status = &st
	}

	var owner *int64
	if !s.gate.Can(actor, auth.OpListAll, s.anyResource()) {
		owner = &actor.ID
	}
	return s.list(ctx, status, owner, p)
}

func (s *ContentService) list(ctx context.Context, status *lifecycle.Status, owner *int64, p ListParams) (*ListResult, error) {
	var preds []data.Predicate
	if status != nil {
		preds = append(preds, data.StatusIs{Status: *status})
	}
	if p.Category != "" {
		id, err := s.categories.ResolveSlug(ctx, s.spec.CategoryScope, p.Category)
		switch {
		case apperr.KindOf(err) == apperr.KindNotFound:
			preds = append(preds, data.NoMatch{})
		case err != nil:
			return nil, err
		default:
			preds = append(preds, data.CategoryIs{ID: id})
		}
	}
	if search := strings.TrimSpace(p.Search); search != "" {
		preds = append(preds, data.TitleContains{Text: search})
	}
	if p.Type != "" {
		preds = append(preds, data.TypeIs{Type: p.Type})
	}
	if p.Featured != nil {
		preds = append(preds, data.FeaturedIs{Featured: *p.Featured})
	}
	switch {
	case owner != nil:
		preds = append(preds, data.AuthorIs{ID: *owner})
	case p.AuthorID != nil:
		preds = append(preds, data.AuthorIs{ID: *p.AuthorID})
	}

	page, limit := data.NormalizePage(p.Page, p.Limit, s.spec.DefaultLimit)
	spec := data.ListSpec{
		Kind:       s.spec.Kind,
		Predicates: preds,
		Order:      s.spec.order(),
		Page:       page,
		Limit:      limit,
	}
	items, total, err := s.repo.List(ctx, spec)
	if err != nil {
		return nil, apperr.Internal(err, fmt.Sprintf("failed to list %s items", s.spec.Kind))
	}
	return &ListResult{Items: items, Pagination: data.NewPagination(page, limit, total)}, nil
}

// Get returns one item by numeric id or slug. Unpublished items are hidden
// from callers who could not list them. Reading a published item of a
// counting kind increments its view count.
func (s *ContentService) Get(ctx context.Context, actor *auth.Actor, ref string) (*data.ContentItem, error) {
	item, err := s.lookup(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !item.IsPublished() && (actor == nil || !s.gate.Can(actor, auth.OpListAll, s.resource(item))) {
		return nil, apperr.NotFound("%s not found", s.spec.Kind)
	}

	if s.spec.CountsViews && item.IsPublished() {
		views, err := s.repo.IncrementViews(ctx, item.ID)
		if err != nil {
			return nil, repoErr(err, string(s.spec.Kind))
		}
		item.ViewCount = views
	}

	html, err := s.renderer.HTML(item.Body)
	if err != nil {
		return nil, apperr.Internal(err, "failed to render body")
	}
	item.BodyHTML = html
	return item, nil
}

// lookup resolves ref as an id first and falls back to a slug, since titles
// made of digits produce numeric slugs.
func (s *ContentService) lookup(ctx context.Context, ref string) (*data.ContentItem, error) {
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		item, err := s.getByID(ctx, id)
		if err == nil || apperr.KindOf(err) != apperr.KindNotFound {
			return item, err
		}
	}
	item, err := s.repo.GetBySlug(ctx, s.spec.Kind, ref)
	if err != nil {
		return nil, repoErr(err, string(s.spec.Kind))
	}
	return item, nil
}

func (s *ContentService) getByID(ctx context.Context, id int64) (*data.ContentItem, error) {
	item, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, string(s.spec.Kind))
	}
	if item.Kind != s.spec.Kind {
		return nil, apperr.NotFound("%s not found", s.spec.Kind)
	}
	return item, nil
}

// Create validates in, assigns a slug and lifecycle state and stores the
// item together with its tags.
func (s *ContentService) Create(ctx context.Context, actor *auth.Actor, in ContentInput) (*data.ContentItem, error) {
	if err := s.gate.Authorize(actor, auth.OpCreate, nil); err != nil {
		return nil, err
	}

	item := &data.ContentItem{Kind: s.spec.Kind}
	if err := s.apply(ctx, item, in); err != nil {
		return nil, err
	}
	if item.Title == "" {
		return nil, apperr.Validation("title is required")
	}

	now := s.now()
	var requested lifecycle.Status
	if in.Status != nil {
		requested = *in.Status
	}
	st, err := lifecycle.OnCreate(requested, utc(in.ScheduledFor), now)
	if err != nil {
		return nil, err
	}
	item.SetState(st)
	item.CreatedAt, item.UpdatedAt = now, now
	if s.spec.Owned {
		authorID := actor.ID
		item.AuthorID = &authorID
	}

	raw := item.Title
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		raw = *in.Slug
	}
	var tagIDs []int64
	if in.TagIDs != nil {
		tagIDs = *in.TagIDs
	}

	alloc := func() (string, error) { return s.slugs.Allocate(ctx, raw, s.slugExists(0)) }
	write := func() error { return s.repo.Create(ctx, item, tagIDs) }
	if err := s.persist(item, alloc, write); err != nil {
		return nil, err
	}

	s.log.Info(fmt.Sprintf("created %s %q (id %d)", s.spec.Kind, item.Slug, item.ID))
	return s.getByID(ctx, item.ID)
}

// Update applies a partial update. The slug changes only when the title
// changes or a new slug is given explicitly.
func (s *ContentService) Update(ctx context.Context, actor *auth.Actor, id int64, in ContentInput) (*data.ContentItem, error) {
	if err := s.gate.Authorize(actor, auth.OpUpdate, nil); err != nil {
		return nil, err
	}
	item, err := s.getByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, auth.OpUpdate, s.resource(item)); err != nil {
		return nil, err
	}

	oldTitle, currentSlug := item.Title, item.Slug
	if err := s.apply(ctx, item, in); err != nil {
		return nil, err
	}
	if item.Title == "" {
		return nil, apperr.Validation("title is required")
	}

	now := s.now()
	st, err := lifecycle.OnUpdate(item.State(), in.Status, utc(in.ScheduledFor), now)
	if err != nil {
		return nil, err
	}
	item.SetState(st)
	item.UpdatedAt = now

	var alloc func() (string, error)
	switch {
	case in.Slug != nil && strings.TrimSpace(*in.Slug) != "":
		alloc = func() (string, error) { return s.slugs.Allocate(ctx, *in.Slug, s.slugExists(item.ID)) }
	case item.Title != oldTitle:
		alloc = func() (string, error) {
			return s.slugs.Rename(ctx, currentSlug, oldTitle, item.Title, s.slugExists(item.ID))
		}
	}
	write := func() error { return s.repo.Update(ctx, item, in.TagIDs) }
	if err := s.persist(item, alloc, write); err != nil {
		return nil, err
	}
	return s.getByID(ctx, item.ID)
}

// Delete removes an item and its tag associations.
func (s *ContentService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	if err := s.gate.Authorize(actor, auth.OpDelete, nil); err != nil {
		return err
	}
	item, err := s.getByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.gate.Authorize(actor, auth.OpDelete, s.resource(item)); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, item.ID); err != nil {
		return repoErr(err, string(s.spec.Kind))
	}
	s.log.Info(fmt.Sprintf("deleted %s %q (id %d)", s.spec.Kind, item.Slug, item.ID))
	return nil
}

// persist runs write after allocating a slug with alloc. A permissive write
// that loses its slug to a concurrent insert is retried with a fresh slug.
func (s *ContentService) persist(item *data.ContentItem, alloc func() (string, error), write func() error) error {
	for attempt := 0; ; attempt++ {
		if alloc != nil {
			sl, err := alloc()
			if err != nil {
				return err
			}
			item.Slug = sl
		}
		err := write()
		if alloc != nil && errors.Is(err, data.ErrDuplicate) &&
			s.spec.SlugMode == slug.Permissive && attempt < maxSlugRetries {
			continue
		}
		return repoErr(err, string(s.spec.Kind))
	}
}

func (s *ContentService) slugExists(excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, s.spec.Kind, candidate, excludeID)
	}
}

// apply copies the non-nil fields of in onto item, validating as it goes.
func (s *ContentService) apply(ctx context.Context, item *data.ContentItem, in ContentInput) error {
	if in.Title != nil {
		item.Title = strings.TrimSpace(s.renderer.Plain(*in.Title))
	}
	if in.Summary != nil {
		item.Summary = s.renderer.Plain(*in.Summary)
	}
	if in.Body != nil {
		item.Body = *in.Body
	}
	if in.Type != nil {
		item.ItemType = strings.ToLower(strings.TrimSpace(*in.Type))
	}
	if in.CategoryID != nil {
		if err := s.categories.CheckID(ctx, s.spec.CategoryScope, *in.CategoryID); err != nil {
			return err
		}
		categoryID := *in.CategoryID
		item.CategoryID = &categoryID
	}
	if in.IsFeatured != nil {
		item.IsFeatured = *in.IsFeatured
	}
	if in.SortOrder != nil {
		item.SortOrder = *in.SortOrder
	}
	if in.PriceCents != nil {
		if *in.PriceCents < 0 {
			return apperr.Validation("price_cents must not be negative")
		}
		price := *in.PriceCents
		item.PriceCents = &price
	}
	if in.Location != nil {
		item.Location = s.renderer.Plain(*in.Location)
	}
	if in.StartsAt != nil {
		item.StartsAt = utc(in.StartsAt)
	}
	if in.EndsAt != nil {
		item.EndsAt = utc(in.EndsAt)
	}
	if item.StartsAt != nil && item.EndsAt != nil && item.EndsAt.Before(*item.StartsAt) {
		return apperr.Validation("ends_at must not be before starts_at")
	}
	return nil
}

// utc converts a client timestamp to UTC at the precision the store keeps.
func utc(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC().Truncate(time.Microsecond)
	return &u
}

func (s *ContentService) resource(item *data.ContentItem) *auth.Resource {
	if !s.spec.Owned {
		return nil
	}
	return auth.OwnedBy(item.AuthorID)
}

// anyResource stands for "items owned by anyone" when checking list rights.
func (s *ContentService) anyResource() *auth.Resource {
	if !s.spec.Owned {
		return nil
	}
	return auth.OwnedBy(nil)
}
