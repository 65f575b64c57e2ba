//go:build integration

package data

import (
	"context"
	"go-newsroom/internal/auth"
	"go-newsroom/internal/config"
	"go-newsroom/internal/lifecycle"
	"sync"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates a migrated in-memory SQLite database. Every test gets
// its own database for complete isolation.
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	db, err := NewDB(config.DBConfig{Driver: DriverSQLite, DSN: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, ApplyMigrations(db))
	return db
}

type testRepos struct {
	content    *ContentRepository
	tags       *TagRepository
	categories *CategoryRepository
	users      *UserRepository
}

func setupRepos(t *testing.T) testRepos {
	db := setupTestDB(t)
	tags := NewTagRepository(db)
	return testRepos{
		content:    NewContentRepository(db, tags),
		tags:       tags,
		categories: NewCategoryRepository(db),
		users:      NewUserRepository(db),
	}
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newItem(kind Kind, slug, title string, status lifecycle.Status) *ContentItem {
	item := &ContentItem{
		Kind:      kind,
		Slug:      slug,
		Title:     title,
		Status:    status,
		CreatedAt: testNow,
		UpdatedAt: testNow,
	}
	if status == lifecycle.StatusPublished {
		at := testNow
		item.PublishedAt = &at
	}
	return item
}

func mustTag(t *testing.T, r testRepos, name, slug string) *Tag {
	t.Helper()
	tag := &Tag{Name: name, Slug: slug, CreatedAt: testNow}
	require.NoError(t, r.tags.Create(context.Background(), tag))
	return tag
}

func mustCategory(t *testing.T, r testRepos, scope CategoryScope, name, slug string) *Category {
	t.Helper()
	c := &Category{Scope: scope, Name: name, Slug: slug, CreatedAt: testNow, UpdatedAt: testNow}
	require.NoError(t, r.categories.Create(context.Background(), c))
	return c
}

func TestContentRepository_CreateAndGet(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	news := mustTag(t, r, "News", "news")

	item := newItem(KindArticle, "lagos-chronicles", "Lagos Chronicles!", lifecycle.StatusDraft)
	require.NoError(t, r.content.Create(ctx, item, []int64{news.ID}))
	assert.NotZero(t, item.ID)

	got, err := r.content.GetBySlug(ctx, KindArticle, "lagos-chronicles")
	require.NoError(t, err)
	assert.Equal(t, "Lagos Chronicles!", got.Title)
	assert.Equal(t, lifecycle.StatusDraft, got.Status)
	assert.Nil(t, got.PublishedAt)
	require.Len(t, got.Tags, 1)
	assert.Equal(t, "news", got.Tags[0].Slug)

	_, err = r.content.GetBySlug(ctx, KindProduct, "lagos-chronicles")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentRepository_DuplicateSlugPerKind(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	require.NoError(t, r.content.Create(ctx, newItem(KindArticle, "same", "Same", lifecycle.StatusDraft), nil))
	err := r.content.Create(ctx, newItem(KindArticle, "same", "Same", lifecycle.StatusDraft), nil)
	assert.ErrorIs(t, err, ErrDuplicate)

	// The same slug is free in another kind.
	require.NoError(t, r.content.Create(ctx, newItem(KindProduct, "same", "Same", lifecycle.StatusDraft), nil))

	exists, err := r.content.SlugExists(ctx, KindArticle, "same", 0)
	require.NoError(t, err)
	assert.True(t, exists)
	exists, err = r.content.SlugExists(ctx, KindMedia, "same", 0)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestContentRepository_CreateRollsBackOnUnknownTag(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	err := r.content.Create(ctx, newItem(KindArticle, "orphan", "Orphan", lifecycle.StatusDraft), []int64{999})
	assert.ErrorIs(t, err, ErrReference)

	exists, err := r.content.SlugExists(ctx, KindArticle, "orphan", 0)
	require.NoError(t, err)
	assert.False(t, exists, "item insert must roll back with the failed association")
}

func TestContentRepository_ReplaceTags(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	t1 := mustTag(t, r, "One", "one")
	t2 := mustTag(t, r, "Two", "two")

	item := newItem(KindArticle, "tagged", "Tagged", lifecycle.StatusDraft)
	require.NoError(t, r.content.Create(ctx, item, []int64{t1.ID}))

	both := []int64{t1.ID, t2.ID, t2.ID}
	for i := 0; i < 2; i++ {
		require.NoError(t, r.content.Update(ctx, item, &both))
		got, err := r.content.GetByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Len(t, got.Tags, 2)
	}

	// nil leaves the associations alone.
	item.Title = "Retitled"
	require.NoError(t, r.content.Update(ctx, item, nil))
	got, err := r.content.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Retitled", got.Title)
	assert.Len(t, got.Tags, 2)

	empty := []int64{}
	require.NoError(t, r.content.Update(ctx, item, &empty))
	got, err = r.content.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
	assert.NotNil(t, got.Tags)
}

func TestContentRepository_ListAndCountAgree(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	books := mustCategory(t, r, ScopeCatalog, "Books", "books")
	art := mustCategory(t, r, ScopeCatalog, "Art", "art")

	seed := []struct {
		title    string
		category int64
	}{
		{"African Folktales", books.ID},
		{"Modern African Poetry", books.ID},
		{"European History", books.ID},
		{"African Masks", art.ID},
	}
	for i, s := range seed {
		item := newItem(KindProduct, "p"+string(rune('a'+i)), s.title, lifecycle.StatusPublished)
		cat := s.category
		item.CategoryID = &cat
		require.NoError(t, r.content.Create(ctx, item, nil))
	}

	spec := ListSpec{
		Kind: KindProduct,
		Predicates: []Predicate{
			StatusIs{Status: lifecycle.StatusPublished},
			CategoryIs{ID: books.ID},
			TitleContains{Text: "african"},
		},
		Page:  1,
		Limit: 1,
	}
	items, total, err := r.content.List(ctx, spec)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, int64(2), total)
	assert.Equal(t, 2, NewPagination(spec.Page, spec.Limit, total).Pages)

	spec.Page = 2
	page2, _, err := r.content.List(ctx, spec)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.NotEqual(t, items[0].ID, page2[0].ID)

	spec.Predicates = append(spec.Predicates, NoMatch{})
	items, total, err = r.content.List(ctx, spec)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Zero(t, total)
}

func TestContentRepository_IncrementViewsConcurrently(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	item := newItem(KindArticle, "popular", "Popular", lifecycle.StatusPublished)
	require.NoError(t, r.content.Create(ctx, item, nil))

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.content.IncrementViews(ctx, item.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := r.content.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(n), got.ViewCount)

	_, err = r.content.IncrementViews(ctx, 12345)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestContentRepository_DueScheduledAndPromote(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	due := newItem(KindEvent, "due", "Due", lifecycle.StatusScheduled)
	past := testNow.Add(-time.Hour)
	due.ScheduledFor = &past
	later := newItem(KindEvent, "later", "Later", lifecycle.StatusScheduled)
	future := testNow.Add(time.Hour)
	later.ScheduledFor = &future
	require.NoError(t, r.content.Create(ctx, due, nil))
	require.NoError(t, r.content.Create(ctx, later, nil))

	items, err := r.content.DueScheduled(ctx, testNow)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, due.ID, items[0].ID)

	st, ok := lifecycle.Promote(items[0].State(), testNow)
	require.True(t, ok)
	items[0].SetState(st)
	items[0].UpdatedAt = testNow

	changed, err := r.content.Promote(ctx, items[0])
	require.NoError(t, err)
	assert.True(t, changed)
	changed, err = r.content.Promote(ctx, items[0])
	require.NoError(t, err)
	assert.False(t, changed, "second sweep must not touch the row")

	published, err := r.content.Published(ctx)
	require.NoError(t, err)
	require.Len(t, published, 1)
	assert.Equal(t, "due", published[0].Slug)
}

func TestContentRepository_Delete(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()
	tag := mustTag(t, r, "One", "one")
	item := newItem(KindMedia, "clip", "Clip", lifecycle.StatusDraft)
	require.NoError(t, r.content.Create(ctx, item, []int64{tag.ID}))

	require.NoError(t, r.content.Delete(ctx, item.ID))
	_, err := r.content.GetByID(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.content.Delete(ctx, item.ID), ErrNotFound)
}

func TestCategoryRepository_DeleteGuards(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	shop := mustCategory(t, r, ScopeCatalog, "Books", "books")
	product := newItem(KindProduct, "novel", "Novel", lifecycle.StatusDraft)
	product.CategoryID = &shop.ID
	require.NoError(t, r.content.Create(ctx, product, nil))

	assert.ErrorIs(t, r.categories.Delete(ctx, shop.ID), ErrCategoryInUse)

	desk := mustCategory(t, r, ScopeEditorial, "Politics", "politics")
	article := newItem(KindArticle, "vote", "Vote", lifecycle.StatusDraft)
	article.CategoryID = &desk.ID
	require.NoError(t, r.content.Create(ctx, article, nil))

	require.NoError(t, r.categories.Delete(ctx, desk.ID))
	got, err := r.content.GetByID(ctx, article.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	assert.ErrorIs(t, r.categories.Delete(ctx, desk.ID), ErrNotFound)
}

func TestCategoryRepository_ScopedSlugs(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	mustCategory(t, r, ScopeEditorial, "Culture", "culture")
	mustCategory(t, r, ScopeCatalog, "Culture", "culture")

	err := r.categories.Create(ctx, &Category{Scope: ScopeEditorial, Name: "Culture 2", Slug: "culture", CreatedAt: testNow, UpdatedAt: testNow})
	assert.ErrorIs(t, err, ErrDuplicate)

	list, err := r.categories.List(ctx, ScopeCatalog)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	found, err := r.categories.SearchByName(ctx, ScopeEditorial, "CULT")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	c, err := r.categories.GetBySlug(ctx, ScopeCatalog, "culture")
	require.NoError(t, err)
	assert.Equal(t, ScopeCatalog, c.Scope)
}

func TestUserRepository(t *testing.T) {
	r := setupRepos(t)
	ctx := context.Background()

	n, err := r.users.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	u := &User{Email: "ed@example.com", Name: "Ed", PasswordHash: "x", Role: auth.RoleEditor, Active: true, CreatedAt: testNow}
	require.NoError(t, r.users.Create(ctx, u))

	got, err := r.users.GetByEmail(ctx, "ed@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, auth.RoleEditor, got.Role)
	assert.True(t, got.Active)

	_, err = r.users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, r.users.Create(ctx, &User{Email: "ed@example.com", PasswordHash: "y", Role: auth.RoleAuthor, CreatedAt: testNow}), ErrDuplicate)
}
