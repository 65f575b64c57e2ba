package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-newsroom/internal/lifecycle"
	"time"

	"github.com/jmoiron/sqlx"
)

const contentColumns = `id, kind, slug, title, summary, body, item_type, author_id, category_id,
	status, is_featured, sort_order, price_cents, location, starts_at, ends_at, view_count,
	published_at, scheduled_for, created_at, updated_at`

// ContentRepository stores content items of every kind.
type ContentRepository struct {
	db   *sqlx.DB
	tags *TagRepository
}

// NewContentRepository creates a new ContentRepository.
func NewContentRepository(db *sqlx.DB, tags *TagRepository) *ContentRepository {
	return &ContentRepository{db: db, tags: tags}
}

// Create inserts item and associates tagIDs in one transaction, then sets
// item.ID. A slug collision surfaces as ErrDuplicate.
func (r *ContentRepository) Create(ctx context.Context, item *ContentItem, tagIDs []int64) error {
	query := `INSERT INTO content_items (kind, slug, title, summary, body, item_type, author_id,
		category_id, status, is_featured, sort_order, price_cents, location, starts_at, ends_at,
		view_count, published_at, scheduled_for, created_at, updated_at)
		VALUES (:kind, :slug, :title, :summary, :body, :item_type, :author_id, :category_id,
		:status, :is_featured, :sort_order, :price_cents, :location, :starts_at, :ends_at,
		0, :published_at, :scheduled_for, :created_at, :updated_at)`

	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, query, item)
		if err != nil {
			return fmt.Errorf("failed to insert content item: %w", translate(err))
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to read content item id: %w", err)
		}
		if err := r.tags.ReplaceTags(ctx, tx, id, tagIDs); err != nil {
			return err
		}
		item.ID = id
		return nil
	})
}

// Update writes every mutable column of item. When tagIDs is non-nil the tag
// set is replaced in the same transaction; nil leaves associations untouched.
func (r *ContentRepository) Update(ctx context.Context, item *ContentItem, tagIDs *[]int64) error {
	query := `UPDATE content_items SET slug = :slug, title = :title, summary = :summary,
		body = :body, item_type = :item_type, author_id = :author_id, category_id = :category_id,
		status = :status, is_featured = :is_featured, sort_order = :sort_order,
		price_cents = :price_cents, location = :location, starts_at = :starts_at,
		ends_at = :ends_at, published_at = :published_at, scheduled_for = :scheduled_for,
		updated_at = :updated_at
		WHERE id = :id`

	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.NamedExecContext(ctx, query, item)
		if err != nil {
			return fmt.Errorf("failed to update content item: %w", translate(err))
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		if tagIDs != nil {
			return r.tags.ReplaceTags(ctx, tx, item.ID, *tagIDs)
		}
		return nil
	})
}

// Delete removes an item and its tag associations in one transaction.
func (r *ContentRepository) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM content_tags WHERE content_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete tag associations: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM content_items WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete content item: %w", err)
		}
		rowsAffected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetByID retrieves a single item with its tags.
func (r *ContentRepository) GetByID(ctx context.Context, id int64) (*ContentItem, error) {
	return r.getOne(ctx, `SELECT `+contentColumns+` FROM content_items WHERE id = ?`, id)
}

// GetBySlug retrieves a single item of kind by slug.
func (r *ContentRepository) GetBySlug(ctx context.Context, kind Kind, slug string) (*ContentItem, error) {
	return r.getOne(ctx, `SELECT `+contentColumns+` FROM content_items WHERE kind = ? AND slug = ?`, kind, slug)
}

func (r *ContentRepository) getOne(ctx context.Context, query string, args ...any) (*ContentItem, error) {
	var item ContentItem
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get content item: %w", err)
	}
	if err := r.attachTags(ctx, []*ContentItem{&item}); err != nil {
		return nil, err
	}
	return &item, nil
}

// SlugExists reports whether slug is used by another item of kind.
// excludeID skips the row being renamed; pass 0 on create.
func (r *ContentRepository) SlugExists(ctx context.Context, kind Kind, slug string, excludeID int64) (bool, error) {
	var n int
	query := `SELECT COUNT(*) FROM content_items WHERE kind = ? AND slug = ? AND id <> ?`
	if err := r.db.GetContext(ctx, &n, query, kind, slug, excludeID); err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return n > 0, nil
}

// List returns one page of items matching spec together with the total
// number of matches. Both queries render the same WHERE clause.
func (r *ContentRepository) List(ctx context.Context, spec ListSpec) ([]*ContentItem, int64, error) {
	where, args := spec.Where()

	var total int64
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM content_items WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count content items: %w", err)
	}

	items := []*ContentItem{}
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE ` + where + spec.Order.sql() + ` LIMIT ? OFFSET ?`
	pageArgs := append(append([]any{}, args...), spec.Limit, spec.Offset())
	if err := r.db.SelectContext(ctx, &items, query, pageArgs...); err != nil {
		return nil, 0, fmt.Errorf("failed to list content items: %w", err)
	}
	if err := r.attachTags(ctx, items); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// IncrementViews atomically bumps the view counter and returns the new value.
func (r *ContentRepository) IncrementViews(ctx context.Context, id int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE content_items SET view_count = view_count + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return 0, ErrNotFound
	}
	var views int64
	if err := r.db.GetContext(ctx, &views, `SELECT view_count FROM content_items WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to read views: %w", err)
	}
	return views, nil
}

// DueScheduled returns scheduled items whose publish time has passed.
func (r *ContentRepository) DueScheduled(ctx context.Context, now time.Time) ([]*ContentItem, error) {
	items := []*ContentItem{}
	query := `SELECT ` + contentColumns + ` FROM content_items
		WHERE status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?
		ORDER BY scheduled_for ASC`
	if err := r.db.SelectContext(ctx, &items, query, lifecycle.StatusScheduled, now); err != nil {
		return nil, fmt.Errorf("failed to list scheduled items: %w", err)
	}
	return items, nil
}

// Promote publishes a scheduled item. The status guard makes concurrent
// sweeps harmless: only one of them changes the row.
func (r *ContentRepository) Promote(ctx context.Context, item *ContentItem) (bool, error) {
	query := `UPDATE content_items SET status = ?, published_at = ?, updated_at = ?
		WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, query, item.Status, item.PublishedAt, item.UpdatedAt, item.ID, lifecycle.StatusScheduled)
	if err != nil {
		return false, fmt.Errorf("failed to publish scheduled item: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n > 0, nil
}

// Published returns every published item, newest first, for the sitemap.
func (r *ContentRepository) Published(ctx context.Context) ([]*ContentItem, error) {
	items := []*ContentItem{}
	query := `SELECT ` + contentColumns + ` FROM content_items WHERE status = ?` + OrderRecency.sql()
	if err := r.db.SelectContext(ctx, &items, query, lifecycle.StatusPublished); err != nil {
		return nil, fmt.Errorf("failed to list published items: %w", err)
	}
	return items, nil
}

func (r *ContentRepository) attachTags(ctx context.Context, items []*ContentItem) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	byItem, err := r.tags.TagsFor(ctx, ids)
	if err != nil {
		return err
	}
	for _, it := range items {
		it.Tags = byItem[it.ID]
		if it.Tags == nil {
			it.Tags = []Tag{}
		}
	}
	return nil
}
