package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

const categoryColumns = "id, scope, name, slug, description, sort_order, created_at, updated_at"

// ErrCategoryInUse is returned when a catalog category still has products.
var ErrCategoryInUse = errors.New("category has content attached")

// CategoryRepository handles database operations for categories.
type CategoryRepository struct {
	DB *sqlx.DB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db *sqlx.DB) *CategoryRepository {
	return &CategoryRepository{DB: db}
}

// List retrieves all categories of a scope in display order.
func (r *CategoryRepository) List(ctx context.Context, scope CategoryScope) ([]*Category, error) {
	categories := []*Category{}
	err := r.DB.SelectContext(ctx, &categories,
		"SELECT "+categoryColumns+" FROM categories WHERE scope = ? ORDER BY sort_order, name", scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

// SearchByName searches for categories of a scope by name.
func (r *CategoryRepository) SearchByName(ctx context.Context, scope CategoryScope, query string) ([]*Category, error) {
	categories := []*Category{}
	err := r.DB.SelectContext(ctx, &categories,
		"SELECT "+categoryColumns+" FROM categories WHERE scope = ? AND LOWER(name) LIKE ? ESCAPE '!' ORDER BY sort_order, name",
		scope, "%"+escapeLike(strings.ToLower(query))+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to search categories: %w", err)
	}
	return categories, nil
}

// GetByID finds a category by its ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id int64) (*Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE id = ?", id)
}

// GetBySlug finds a category of a scope by slug.
func (r *CategoryRepository) GetBySlug(ctx context.Context, scope CategoryScope, slug string) (*Category, error) {
	return r.getOne(ctx, "SELECT "+categoryColumns+" FROM categories WHERE scope = ? AND slug = ?", scope, slug)
}

func (r *CategoryRepository) getOne(ctx context.Context, query string, args ...any) (*Category, error) {
	var category Category
	if err := r.DB.GetContext(ctx, &category, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

// SlugExists reports whether slug is taken within scope by a category other
// than excludeID.
func (r *CategoryRepository) SlugExists(ctx context.Context, scope CategoryScope, slug string, excludeID int64) (bool, error) {
	var n int
	err := r.DB.GetContext(ctx, &n,
		"SELECT COUNT(*) FROM categories WHERE scope = ? AND slug = ? AND id <> ?", scope, slug, excludeID)
	if err != nil {
		return false, fmt.Errorf("failed to check category slug: %w", err)
	}
	return n > 0, nil
}

// Create inserts a category and sets its ID.
func (r *CategoryRepository) Create(ctx context.Context, category *Category) error {
	res, err := r.DB.NamedExecContext(ctx, `INSERT INTO categories
		(scope, name, slug, description, sort_order, created_at, updated_at)
		VALUES (:scope, :name, :slug, :description, :sort_order, :created_at, :updated_at)`, category)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read category id: %w", err)
	}
	category.ID = id
	return nil
}

// Update writes the mutable fields of a category.
func (r *CategoryRepository) Update(ctx context.Context, category *Category) error {
	res, err := r.DB.NamedExecContext(ctx, `UPDATE categories SET name = :name, slug = :slug,
		description = :description, sort_order = :sort_order, updated_at = :updated_at
		WHERE id = :id`, category)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", translate(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a category. Catalog categories that still have products are
// refused with ErrCategoryInUse; editorial categories are detached from their
// articles instead.
func (r *CategoryRepository) Delete(ctx context.Context, id int64) error {
	return WithTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		var scope CategoryScope
		if err := tx.GetContext(ctx, &scope, "SELECT scope FROM categories WHERE id = ?", id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to get category: %w", err)
		}

		if scope == ScopeCatalog {
			var n int64
			if err := tx.GetContext(ctx, &n, "SELECT COUNT(*) FROM content_items WHERE category_id = ?", id); err != nil {
				return fmt.Errorf("failed to count category content: %w", err)
			}
			if n > 0 {
				return ErrCategoryInUse
			}
		} else {
			if _, err := tx.ExecContext(ctx, "UPDATE content_items SET category_id = NULL WHERE category_id = ?", id); err != nil {
				return fmt.Errorf("failed to detach category: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to delete category: %w", err)
		}
		return nil
	})
}
