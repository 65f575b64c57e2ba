package service

import (
	"context"
	"errors"
	"fmt"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/cache"
	"go-newsroom/internal/data"
	"go-newsroom/internal/logger"
	"go-newsroom/internal/slug"
	"strconv"
	"strings"
	"time"
)

// CategoryRepository defines the persistence operations on categories.
type CategoryRepository interface {
	List(ctx context.Context, scope data.CategoryScope) ([]*data.Category, error)
	SearchByName(ctx context.Context, scope data.CategoryScope, query string) ([]*data.Category, error)
	GetByID(ctx context.Context, id int64) (*data.Category, error)
	GetBySlug(ctx context.Context, scope data.CategoryScope, slug string) (*data.Category, error)
	SlugExists(ctx context.Context, scope data.CategoryScope, slug string, excludeID int64) (bool, error)
	Create(ctx context.Context, category *data.Category) error
	Update(ctx context.Context, category *data.Category) error
	Delete(ctx context.Context, id int64) error
}

// CategoryInput carries the writable fields of a category.
type CategoryInput struct {
	Name        *string `json:"name"`
	Slug        *string `json:"slug"`
	Description *string `json:"description"`
	SortOrder   *int    `json:"sort_order"`
}

// CategoryService manages editorial and catalog categories.
type CategoryService struct {
	repo     CategoryRepository
	gate     *auth.Gate
	cache    cache.Cache
	ttl      time.Duration
	renderer *Renderer
	log      logger.Logger
	now      func() time.Time
}

// NewCategoryService creates a new CategoryService. Slug lookups are cached
// in c for ttl.
func NewCategoryService(repo CategoryRepository, gate *auth.Gate, c cache.Cache, ttl time.Duration, log logger.Logger) *CategoryService {
	return &CategoryService{
		repo:     repo,
		gate:     gate,
		cache:    c,
		ttl:      ttl,
		renderer: NewRenderer(),
		log:      log,
		now:      defaultNow,
	}
}

// SlugMode returns the collision policy of scope: catalog slugs are
// disambiguated, editorial slugs must be unique.
func SlugMode(scope data.CategoryScope) slug.Mode {
	if scope == data.ScopeCatalog {
		return slug.Permissive
	}
	return slug.Strict
}

// List returns the categories of scope, optionally filtered by name.
func (s *CategoryService) List(ctx context.Context, scope data.CategoryScope, search string) ([]*data.Category, error) {
	var (
		categories []*data.Category
		err        error
	)
	if search = strings.TrimSpace(search); search != "" {
		categories, err = s.repo.SearchByName(ctx, scope, search)
	} else {
		categories, err = s.repo.List(ctx, scope)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return categories, nil
}

// Get returns a category of scope by slug.
func (s *CategoryService) Get(ctx context.Context, scope data.CategoryScope, slug string) (*data.Category, error) {
	category, err := s.repo.GetBySlug(ctx, scope, slug)
	if err != nil {
		return nil, repoErr(err, "category")
	}
	return category, nil
}

// ResolveSlug maps a category slug to its id, going through the cache.
func (s *CategoryService) ResolveSlug(ctx context.Context, scope data.CategoryScope, slug string) (int64, error) {
	key := cacheKey(scope, slug)
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key)
		switch {
		case err == nil:
			if id, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
				return id, nil
			}
		case !errors.Is(err, cache.ErrCacheMiss):
			s.log.Warn(fmt.Sprintf("category cache read failed: %v", err))
		}
	}

	category, err := s.repo.GetBySlug(ctx, scope, slug)
	if err != nil {
		return 0, repoErr(err, "category")
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, []byte(strconv.FormatInt(category.ID, 10)), s.ttl); err != nil {
			s.log.Warn(fmt.Sprintf("category cache write failed: %v", err))
		}
	}
	return category.ID, nil
}

// CheckID verifies that id names a category of scope.
func (s *CategoryService) CheckID(ctx context.Context, scope data.CategoryScope, id int64) error {
	category, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, data.ErrNotFound) || (err == nil && category.Scope != scope) {
		return apperr.Validation("category %d does not exist", id)
	}
	if err != nil {
		return apperr.Internal(err, "failed to load category")
	}
	return nil
}

// Create adds a category to scope.
func (s *CategoryService) Create(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, in CategoryInput) (*data.Category, error) {
	if err := s.gate.Authorize(actor, auth.OpManageTaxonomy, nil); err != nil {
		return nil, err
	}
	category := &data.Category{Scope: scope}
	s.apply(category, in)
	if category.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	raw := category.Name
	if in.Slug != nil && strings.TrimSpace(*in.Slug) != "" {
		raw = *in.Slug
	}
	sl, err := slug.New(SlugMode(scope)).Allocate(ctx, raw, s.slugExists(scope, 0))
	if err != nil {
		return nil, err
	}
	category.Slug = sl
	category.CreatedAt = s.now()
	category.UpdatedAt = category.CreatedAt

	if err := s.repo.Create(ctx, category); err != nil {
		return nil, repoErr(err, "category")
	}
	return category, nil
}

// Update changes a category of scope. Renaming re-slugs it.
func (s *CategoryService) Update(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, id int64, in CategoryInput) (*data.Category, error) {
	if err := s.gate.Authorize(actor, auth.OpManageTaxonomy, nil); err != nil {
		return nil, err
	}
	category, err := s.byID(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	oldName, oldSlug := category.Name, category.Slug
	s.apply(category, in)
	if category.Name == "" {
		return nil, apperr.Validation("name is required")
	}

	allocator := slug.New(SlugMode(scope))
	switch {
	case in.Slug != nil && strings.TrimSpace(*in.Slug) != "":
		category.Slug, err = allocator.Allocate(ctx, *in.Slug, s.slugExists(scope, id))
	default:
		category.Slug, err = allocator.Rename(ctx, oldSlug, oldName, category.Name, s.slugExists(scope, id))
	}
	if err != nil {
		return nil, err
	}
	category.UpdatedAt = s.now()

	if err := s.repo.Update(ctx, category); err != nil {
		return nil, repoErr(err, "category")
	}
	if category.Slug != oldSlug {
		s.forget(ctx, scope, oldSlug)
	}
	return category, nil
}

// Delete removes a category of scope.
func (s *CategoryService) Delete(ctx context.Context, actor *auth.Actor, scope data.CategoryScope, id int64) error {
	if err := s.gate.Authorize(actor, auth.OpManageTaxonomy, nil); err != nil {
		return err
	}
	category, err := s.byID(ctx, scope, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return repoErr(err, "category")
	}
	s.forget(ctx, scope, category.Slug)
	return nil
}

func (s *CategoryService) byID(ctx context.Context, scope data.CategoryScope, id int64) (*data.Category, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, repoErr(err, "category")
	}
	if category.Scope != scope {
		return nil, apperr.NotFound("category not found")
	}
	return category, nil
}

func (s *CategoryService) apply(category *data.Category, in CategoryInput) {
	if in.Name != nil {
		category.Name = strings.TrimSpace(s.renderer.Plain(*in.Name))
	}
	if in.Description != nil {
		category.Description = s.renderer.Plain(*in.Description)
	}
	if in.SortOrder != nil {
		category.SortOrder = *in.SortOrder
	}
}

func (s *CategoryService) slugExists(scope data.CategoryScope, excludeID int64) slug.ExistsFunc {
	return func(ctx context.Context, candidate string) (bool, error) {
		return s.repo.SlugExists(ctx, scope, candidate, excludeID)
	}
}

func (s *CategoryService) forget(ctx context.Context, scope data.CategoryScope, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, cacheKey(scope, slug)); err != nil {
		s.log.Warn(fmt.Sprintf("category cache invalidation failed: %v", err))
	}
}

func cacheKey(scope data.CategoryScope, slug string) string {
	return "category:" + string(scope) + ":" + slug
}
