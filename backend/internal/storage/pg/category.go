package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

const categoryColumns = `id, name, sortkey, added_actor, added_ip, added_at, edited_actor, edited_ip, edited_at`

func scanCategory(row scanner) (domain.Category, error) {
	var c domain.Category
	var edited nullSignature
	dest := append([]any{&c.Id, &c.Name, &c.SortKey}, sigDest(&c.Added)...)
	if err := row.Scan(append(dest, edited.dest()...)...); err != nil {
		return domain.Category{}, err
	}
	utc(&c.Added)
	c.Edited = edited.ptr()
	return c, nil
}

// CreateCategory appends the category at the end of the root scope.
func (s *Storage) CreateCategory(ctx context.Context, data domain.CategoryCreationData) (domain.CategoryId, error) {
	var id domain.CategoryId
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, sortkey, added_actor, added_ip, added_at)
		SELECT $1, COALESCE(MAX(sortkey) + 1, 0), $2, $3, $4 FROM categories
		RETURNING id
	`, data.Name, data.Added.Actor, data.Added.IP, data.Added.At).Scan(&id)
	if err != nil {
		return -1, fmt.Errorf("failed to insert category: %w", err)
	}
	return id, nil
}

func (s *Storage) GetCategory(ctx context.Context, id domain.CategoryId) (domain.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, internal_errors.NotFound("Category not found")
		}
		return domain.Category{}, fmt.Errorf("failed to fetch category: %w", err)
	}
	return c, nil
}

func (s *Storage) GetCategoryByName(ctx context.Context, name domain.CategoryName) (domain.Category, error) {
	c, err := scanCategory(s.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE name = $1 ORDER BY id LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Category{}, internal_errors.NotFound("Category not found")
		}
		return domain.Category{}, fmt.Errorf("failed to fetch category: %w", err)
	}
	return c, nil
}

func (s *Storage) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories ORDER BY sortkey, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return categories, nil
}

func (s *Storage) UpdateCategory(ctx context.Context, id domain.CategoryId, name domain.CategoryName, edited domain.Signature) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE categories
		SET name = $2, edited_actor = $3, edited_ip = $4, edited_at = $5
		WHERE id = $1
	`, id, name, edited.Actor, edited.IP, edited.At)
	if err != nil {
		return fmt.Errorf("failed to update category: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Category not found")
	}
	return nil
}

// DeleteCategory removes the category; its forums, threads and replies go
// with it through foreign key cascades.
func (s *Storage) DeleteCategory(ctx context.Context, id domain.CategoryId) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Category not found")
	}
	return nil
}
