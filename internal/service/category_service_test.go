package service

import (
	"context"
	"go-newsroom/internal/apperr"
	"go-newsroom/internal/cache"
	"go-newsroom/internal/data"
	"go-newsroom/internal/logger"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCategoryRepo is an in-memory CategoryRepository counting slug lookups.
type fakeCategoryRepo struct {
	categories   map[int64]*data.Category
	nextID       int64
	slugLookups  int
	deleteResult error
}

var _ CategoryRepository = (*fakeCategoryRepo)(nil)

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{categories: map[int64]*data.Category{}}
}

func (f *fakeCategoryRepo) List(ctx context.Context, scope data.CategoryScope) ([]*data.Category, error) {
	var out []*data.Category
	for _, c := range f.categories {
		if c.Scope == scope {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) SearchByName(ctx context.Context, scope data.CategoryScope, query string) ([]*data.Category, error) {
	var out []*data.Category
	for _, c := range f.categories {
		if c.Scope == scope && strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id int64) (*data.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, data.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (f *fakeCategoryRepo) GetBySlug(ctx context.Context, scope data.CategoryScope, slug string) (*data.Category, error) {
	f.slugLookups++
	for _, c := range f.categories {
		if c.Scope == scope && c.Slug == slug {
			clone := *c
			return &clone, nil
		}
	}
	return nil, data.ErrNotFound
}

func (f *fakeCategoryRepo) SlugExists(ctx context.Context, scope data.CategoryScope, slug string, excludeID int64) (bool, error) {
	for _, c := range f.categories {
		if c.Scope == scope && c.Slug == slug && c.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeCategoryRepo) Create(ctx context.Context, category *data.Category) error {
	f.nextID++
	category.ID = f.nextID
	stored := *category
	f.categories[category.ID] = &stored
	return nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, category *data.Category) error {
	stored := *category
	f.categories[category.ID] = &stored
	return nil
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, id int64) error {
	if f.deleteResult != nil {
		return f.deleteResult
	}
	delete(f.categories, id)
	return nil
}

func newCategoryFixture(t *testing.T) (*CategoryService, *fakeCategoryRepo) {
	t.Helper()
	c, err := cache.NewSQLite("file::memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	repo := newFakeCategoryRepo()
	return NewCategoryService(repo, newTestGate(t), c, time.Minute, logger.Nop()), repo
}

func TestCategoryService_CreateAndResolve(t *testing.T) {
	svc, repo := newCategoryFixture(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, editor, data.ScopeEditorial, CategoryInput{Name: strPtr("Politics & Power")})
	require.NoError(t, err)
	assert.Equal(t, "politics-power", created.Slug)

	id, err := svc.ResolveSlug(ctx, data.ScopeEditorial, "politics-power")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
	id, err = svc.ResolveSlug(ctx, data.ScopeEditorial, "politics-power")
	require.NoError(t, err)
	assert.Equal(t, created.ID, id)
	assert.Equal(t, 1, repo.slugLookups, "second lookup must be served from the cache")

	_, err = svc.ResolveSlug(ctx, data.ScopeCatalog, "politics-power")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCategoryService_SlugModes(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, editor, data.ScopeEditorial, CategoryInput{Name: strPtr("Culture")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, editor, data.ScopeEditorial, CategoryInput{Name: strPtr("culture")})
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	first, err := svc.Create(ctx, editor, data.ScopeCatalog, CategoryInput{Name: strPtr("Books")})
	require.NoError(t, err)
	second, err := svc.Create(ctx, editor, data.ScopeCatalog, CategoryInput{Slug: strPtr("books"), Name: strPtr("Books II")})
	require.NoError(t, err)
	assert.NotEqual(t, first.Slug, second.Slug)
}

func TestCategoryService_RenameInvalidatesCache(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, superAdmin, data.ScopeEditorial, CategoryInput{Name: strPtr("Sport")})
	require.NoError(t, err)
	_, err = svc.ResolveSlug(ctx, data.ScopeEditorial, "sport")
	require.NoError(t, err)

	updated, err := svc.Update(ctx, superAdmin, data.ScopeEditorial, c.ID, CategoryInput{Name: strPtr("Sports")})
	require.NoError(t, err)
	assert.Equal(t, "sports", updated.Slug)

	_, err = svc.ResolveSlug(ctx, data.ScopeEditorial, "sport")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	require.NoError(t, svc.Delete(ctx, superAdmin, data.ScopeEditorial, c.ID))
	_, err = svc.ResolveSlug(ctx, data.ScopeEditorial, "sports")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}

func TestCategoryService_UpdateBlankSlugIsIgnored(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, editor, data.ScopeEditorial, CategoryInput{Name: strPtr("Travel")})
	require.NoError(t, err)

	updated, err := svc.Update(ctx, editor, data.ScopeEditorial, c.ID, CategoryInput{Slug: strPtr(""), SortOrder: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "travel", updated.Slug)
	assert.Equal(t, 4, updated.SortOrder)
}

func TestCategoryService_Authorization(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, author, data.ScopeEditorial, CategoryInput{Name: strPtr("Nope")})
	assert.Equal(t, apperr.KindForbidden, apperr.KindOf(err))
	_, err = svc.Create(ctx, nil, data.ScopeEditorial, CategoryInput{Name: strPtr("Nope")})
	assert.Equal(t, apperr.KindUnauthenticated, apperr.KindOf(err))
}

func TestCategoryService_DeleteInUse(t *testing.T) {
	svc, repo := newCategoryFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, editor, data.ScopeCatalog, CategoryInput{Name: strPtr("Books")})
	require.NoError(t, err)
	repo.deleteResult = data.ErrCategoryInUse

	err = svc.Delete(ctx, editor, data.ScopeCatalog, c.ID)
	assert.Equal(t, apperr.KindConflict, apperr.KindOf(err))

	err = svc.Delete(ctx, editor, data.ScopeEditorial, c.ID)
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err), "scope mismatch hides the category")
}

func TestCategoryService_CheckID(t *testing.T) {
	svc, _ := newCategoryFixture(t)
	ctx := context.Background()

	c, err := svc.Create(ctx, editor, data.ScopeCatalog, CategoryInput{Name: strPtr("Books")})
	require.NoError(t, err)

	assert.NoError(t, svc.CheckID(ctx, data.ScopeCatalog, c.ID))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(svc.CheckID(ctx, data.ScopeEditorial, c.ID)))
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(svc.CheckID(ctx, data.ScopeCatalog, 999)))
}
