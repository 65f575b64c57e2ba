package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TagRepository handles database operations for tags and their associations.
type TagRepository struct {
	DB *sqlx.DB
}

// NewTagRepository creates a new TagRepository.
func NewTagRepository(db *sqlx.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// List retrieves all tags ordered by name.
func (r *TagRepository) List(ctx context.Context) ([]*Tag, error) {
	tags := []*Tag{}
	if err := r.DB.SelectContext(ctx, &tags, "SELECT id, name, slug, created_at FROM tags ORDER BY name"); err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return tags, nil
}

// GetByID finds a tag by its ID.
func (r *TagRepository) GetByID(ctx context.Context, id int64) (*Tag, error) {
	var tag Tag
	err := r.DB.GetContext(ctx, &tag, "SELECT id, name, slug, created_at FROM tags WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}
	return &tag, nil
}

// SlugExists reports whether a tag already uses slug.
func (r *TagRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, "SELECT COUNT(*) FROM tags WHERE slug = ?", slug); err != nil {
		return false, fmt.Errorf("failed to check tag slug: %w", err)
	}
	return n > 0, nil
}

// Create inserts a tag and sets its ID.
func (r *TagRepository) Create(ctx context.Context, tag *Tag) error {
	res, err := r.DB.NamedExecContext(ctx,
		"INSERT INTO tags (name, slug, created_at) VALUES (:name, :slug, :created_at)", tag)
	if err != nil {
		return fmt.Errorf("failed to create tag: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read tag id: %w", err)
	}
	tag.ID = id
	return nil
}

// Delete removes a tag. Its associations go with it.
func (r *TagRepository) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM content_tags WHERE tag_id = ?", id); err != nil {
			return fmt.Errorf("failed to delete tag associations: %w", err)
		}
		res, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE id = ?", id)
		if err != nil {
			return fmt.Errorf("failed to delete tag: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// ReplaceTags makes the tag set of contentID exactly tagIDs. Duplicate ids
// are collapsed and an empty slice clears every association. It must run on
// the caller's transaction so the item write and its tags commit together.
func (r *TagRepository) ReplaceTags(ctx context.Context, q sqlx.ExecerContext, contentID int64, tagIDs []int64) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM content_tags WHERE content_id = ?", contentID); err != nil {
		return fmt.Errorf("failed to clear tags: %w", err)
	}
	seen := make(map[int64]bool, len(tagIDs))
	for _, tagID := range tagIDs {
		if seen[tagID] {
			continue
		}
		seen[tagID] = true
		if _, err := q.ExecContext(ctx,
			"INSERT INTO content_tags (content_id, tag_id) VALUES (?, ?)", contentID, tagID); err != nil {
			return fmt.Errorf("failed to associate tag %d: %w", tagID, translate(err))
		}
	}
	return nil
}

// TagsFor loads the tags of several items at once, keyed by item id.
func (r *TagRepository) TagsFor(ctx context.Context, contentIDs []int64) (map[int64][]Tag, error) {
	out := make(map[int64][]Tag, len(contentIDs))
	if len(contentIDs) == 0 {
		return out, nil
	}
	query, args, err := sqlx.In(`SELECT ct.content_id, t.id, t.name, t.slug, t.created_at
		FROM content_tags ct JOIN tags t ON t.id = ct.tag_id
		WHERE ct.content_id IN (?) ORDER BY t.name`, contentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build tag query: %w", err)
	}
	var rows []struct {
		ContentID int64 `db:"content_id"`
		Tag
	}
	if err := r.DB.SelectContext(ctx, &rows, r.DB.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	for _, row := range rows {
		out[row.ContentID] = append(out[row.ContentID], row.Tag)
	}
	return out, nil
}
