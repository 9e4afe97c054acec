package pg

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
	"github.com/lib/pq"
)

// orderedScope describes one sibling collection: the table and, for forums,
// the parent filter.
type orderedScope struct {
	table    string
	where    string
	args     []any
	notFound string
}

func categoryScope() orderedScope {
	return orderedScope{table: "categories", where: "TRUE", notFound: "Category not found"}
}

func forumScope(categoryId domain.CategoryId) orderedScope {
	return orderedScope{table: "forums", where: "category_id = $1", args: []any{categoryId}, notFound: "Forum not found"}
}

// loadScope locks every sibling of the scope for the rest of the transaction.
func loadScope(ctx context.Context, q sharedpg.Querier, scope orderedScope) ([]ordering.Sibling, error) {
	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT id, sortkey FROM %s WHERE %s ORDER BY sortkey, id FOR UPDATE`, scope.table, scope.where),
		scope.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", scope.table, err)
	}
	defer rows.Close()

	var siblings []ordering.Sibling
	for rows.Next() {
		var s ordering.Sibling
		if err := rows.Scan(&s.Id, &s.SortKey); err != nil {
			return nil, fmt.Errorf("failed to scan sibling: %w", err)
		}
		siblings = append(siblings, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return siblings, nil
}

// storeScope writes all N keys back with a single statement.
func storeScope(ctx context.Context, q sharedpg.Querier, table string, siblings []ordering.Sibling) error {
	if len(siblings) == 0 {
		return nil
	}
	ids := make([]int64, len(siblings))
	keys := make([]int64, len(siblings))
	for i, s := range siblings {
		ids[i] = s.Id
		keys[i] = int64(s.SortKey)
	}
	_, err := q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE %s AS t
		SET sortkey = v.sortkey
		FROM unnest($1::bigint[], $2::int[]) AS v(id, sortkey)
		WHERE t.id = v.id
	`, table), pq.Array(ids), pq.Array(keys))
	if err != nil {
		return fmt.Errorf("failed to store %s order: %w", table, err)
	}
	return nil
}

func (s *Storage) moveInScope(ctx context.Context, scope orderedScope, id int64, dir ordering.Direction) (bool, error) {
	moved := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		siblings, err := loadScope(ctx, tx, scope)
		if err != nil {
			return err
		}
		result, ok, found := ordering.Move(siblings, id, dir)
		if !found {
			return internal_errors.NotFound(scope.notFound)
		}
		moved = ok
		return storeScope(ctx, tx, scope.table, result)
	})
	return moved, err
}

// MoveCategory swaps the category with its neighbour. Every category is
// renumbered 0..N-1 even when the move is a boundary no-op.
func (s *Storage) MoveCategory(ctx context.Context, id domain.CategoryId, dir ordering.Direction) (bool, error) {
	return s.moveInScope(ctx, categoryScope(), id, dir)
}

// MoveForum reorders the forum within its own category.
func (s *Storage) MoveForum(ctx context.Context, id domain.ForumId, dir ordering.Direction) (bool, error) {
	f, err := s.GetForum(ctx, id)
	if err != nil {
		return false, err
	}
	return s.moveInScope(ctx, forumScope(f.CategoryId), id, dir)
}

func (s *Storage) normalizeScope(ctx context.Context, scope orderedScope) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		siblings, err := loadScope(ctx, tx, scope)
		if err != nil {
			return err
		}
		return storeScope(ctx, tx, scope.table, ordering.Normalize(siblings))
	})
}

func (s *Storage) NormalizeCategories(ctx context.Context) error {
	return s.normalizeScope(ctx, categoryScope())
}

func (s *Storage) NormalizeForums(ctx context.Context, categoryId domain.CategoryId) error {
	return s.normalizeScope(ctx, forumScope(categoryId))
}
