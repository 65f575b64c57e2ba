package service

import (
	"context"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/data"
	"go-newsroom/internal/lifecycle"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeContentRepo is an in-memory ContentRepository.
type fakeContentRepo struct {
	mu     sync.Mutex
	items  map[int64]*data.ContentItem
	tags   map[int64][]int64
	nextID int64

	createErrs  []error // returned, in order, by the next Create calls
	updateTags  []*[]int64
	lastSpec    data.ListSpec
	listItems   []*data.ContentItem
	listTotal   int64
	deleteCalls int
}

var _ ContentRepository = (*fakeContentRepo)(nil)

func newFakeContentRepo() *fakeContentRepo {
	return &fakeContentRepo{items: map[int64]*data.ContentItem{}, tags: map[int64][]int64{}}
}

func (f *fakeContentRepo) slugTaken(kind data.Kind, slug string, excludeID int64) bool {
	for _, it := range f.items {
		if it.Kind == kind && it.Slug == slug && it.ID != excludeID {
			return true
		}
	}
	return false
}

func (f *fakeContentRepo) Create(ctx context.Context, item *data.ContentItem, tagIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.createErrs) > 0 {
		err := f.createErrs[0]
		f.createErrs = f.createErrs[1:]
		return err
	}
	if f.slugTaken(item.Kind, item.Slug, 0) {
		return data.ErrDuplicate
	}
	f.nextID++
	item.ID = f.nextID
	stored := *item
	f.items[item.ID] = &stored
	f.tags[item.ID] = append([]int64{}, tagIDs...)
	return nil
}

func (f *fakeContentRepo) Update(ctx context.Context, item *data.ContentItem, tagIDs *[]int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateTags = append(f.updateTags, tagIDs)
	if _, ok := f.items[item.ID]; !ok {
		return data.ErrNotFound
	}
	if f.slugTaken(item.Kind, item.Slug, item.ID) {
		return data.ErrDuplicate
	}
	stored := *item
	f.items[item.ID] = &stored
	if tagIDs != nil {
		f.tags[item.ID] = append([]int64{}, (*tagIDs)...)
	}
	return nil
}

func (f *fakeContentRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if _, ok := f.items[id]; !ok {
		return data.ErrNotFound
	}
	delete(f.items, id)
	delete(f.tags, id)
	return nil
}

func (f *fakeContentRepo) GetByID(ctx context.Context, id int64) (*data.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *it
	return &clone, nil
}

func (f *fakeContentRepo) GetBySlug(ctx context.Context, kind data.Kind, slug string) (*data.ContentItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, it := range f.items {
		if it.Kind == kind && it.Slug == slug {
			clone := *it
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeContentRepo) SlugExists(ctx context.Context, kind data.Kind, slug string, excludeID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.slugTaken(kind, slug, excludeID), nil
}

func (f *fakeContentRepo) List(ctx context.Context, spec data.ListSpec) ([]*data.ContentItem, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSpec = spec
	return f.listItems, f.listTotal, nil
}

func (f *fakeContentRepo) IncrementViews(ctx context.Context, id int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.items[id]
	if !ok {
		return 0, data.ErrNotFound
	}
	it.ViewCount++
	return it.ViewCount, nil
}

// fakeResolver knows a fixed set of categories per scope.
type fakeResolver struct {
	slugs map[string]int64 // "scope:slug" -> id
	ids   map[int64]data.CategoryScope
}

func (f *fakeResolver) ResolveSlug(ctx context.Context, scope data.CategoryScope, slug string) (int64, error) {
	if id, ok := f.slugs[string(scope)+":"+slug]; ok {
		return id, nil
	}
	return 0, apperr.NotFound("category not found")
}

func (f *fakeResolver) CheckID(ctx context.Context, scope data.CategoryScope, id int64) error {
	if s, ok := f.ids[id]; ok && s == scope {
		return nil
	}
	return apperr.Validation("category %d does not exist", id)
}

func newTestGate(t *testing.T) *auth.Gate {
	t.Helper()
	gate, err := auth.NewMemoryGate()
	require.NoError(t, err)
	return gate
}

var (
	superAdmin  = &auth.Actor{ID: 1, Role: auth.RoleSuperAdmin}
	editor      = &auth.Actor{ID: 2, Role: auth.RoleEditor}
	author      = &auth.Actor{ID: 3, Role: auth.RoleAuthor}
	otherAuthor = &auth.Actor{ID: 4, Role: auth.RoleAuthor}
	contributor = &auth.Actor{ID: 5, Role: auth.RoleContributor}
)

func strPtr(s string) *string { return &s }

func intPtr(v int) *int { return &v }

func statusPtr(s lifecycle.Status) *lifecycle.Status { return &s }
