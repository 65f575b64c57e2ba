package service

import (
	"context"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/slug"
	"strings"
	"time"
)

// TagRepository defines the persistence operations on tags.
type TagRepository interface {
	List(ctx context.Context) ([]*data.Tag, error)
	GetByID(ctx context.Context, id int64) (*data.Tag, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, tag *data.Tag) error
	Delete(ctx context.Context, id int64) error
}

// TagService manages the tag vocabulary.
type TagService struct {
	repo     TagRepository
	gate     *auth.Gate
	slugs    *slug.Allocator
	renderer *Renderer
	now      func() time.Time
}

// NewTagService creates a new TagService.
func NewTagService(repo TagRepository, gate *auth.Gate) *TagService {
	return &TagService{
		repo:     repo,
		gate:     gate,
		slugs:    slug.New(slug.Strict),
		renderer: NewRenderer(),
		now:      defaultNow,
	}
}

// List returns every tag.
func (s *TagService) List(ctx context.Context) ([]*data.Tag, error) {
	tags, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Internal(err, "failed to list tags")
	}
	return tags, nil
}

// Create adds a tag. Anyone who may create content may create tags.
func (s *TagService) Create(ctx context.Context, actor *auth.Actor, name string) (*data.Tag, error) {
	if err := s.gate.Authorize(actor, auth.OpCreate, nil); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(s.renderer.Plain(name))
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	sl, err := s.slugs.Allocate(ctx, name, s.repo.SlugExists)
	if err != nil {
		return nil, err
	}
	tag := &data.Tag{Name: name, Slug: sl, CreatedAt: s.now()}
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, repoErr(err, "tag")
	}
	return tag, nil
}

// Delete removes a tag from the vocabulary and from every item.
func (s *TagService) Delete(ctx context.Context, actor *auth.Actor, id int64) error {
	if err := s.gate.Authorize(actor, auth.OpManageTaxonomy, nil); err != nil {
		return err
	}
	return repoErr(s.repo.Delete(ctx, id), "tag")
}
