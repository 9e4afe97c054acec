package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

const forumColumns = `id, category_id, name, description, is_announcement, sortkey,
	thread_count, reply_count, last_post_actor, last_post_ip, last_post_at,
	added_actor, added_ip, added_at, edited_actor, edited_ip, edited_at`

func scanForum(row scanner) (domain.Forum, error) {
	var f domain.Forum
	var lastPost, edited nullSignature
	dest := []any{&f.Id, &f.CategoryId, &f.Name, &f.Description, &f.IsAnnouncement, &f.SortKey,
		&f.ThreadCount, &f.ReplyCount}
	dest = append(dest, lastPost.dest()...)
	dest = append(dest, sigDest(&f.Added)...)
	dest = append(dest, edited.dest()...)
	if err := row.Scan(dest...); err != nil {
		return domain.Forum{}, err
	}
	utc(&f.Added)
	f.LastPost = lastPost.ptr()
	f.Edited = edited.ptr()
	return f, nil
}

// CreateForum appends the forum at the end of its category's scope.
func (s *Storage) CreateForum(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error) {
	var id domain.ForumId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var categoryId domain.CategoryId
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM categories WHERE id = $1 FOR SHARE`, data.CategoryId).Scan(&categoryId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Category not found")
			}
			return fmt.Errorf("failed to validate category: %w", err)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO forums (category_id, name, description, is_announcement, sortkey, added_actor, added_ip, added_at)
			SELECT $1, $2, $3, $4, COALESCE(MAX(sortkey) + 1, 0), $5, $6, $7
			FROM forums WHERE category_id = $1
			RETURNING id
		`, data.CategoryId, data.Name, data.Description, data.IsAnnouncement,
			data.Added.Actor, data.Added.IP, data.Added.At).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert forum: %w", err)
		}
		return nil
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *Storage) GetForum(ctx context.Context, id domain.ForumId) (domain.Forum, error) {
	f, err := scanForum(s.db.QueryRowContext(ctx,
		`SELECT `+forumColumns+` FROM forums WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Forum{}, internal_errors.NotFound("Forum not found")
		}
		return domain.Forum{}, fmt.Errorf("failed to fetch forum: %w", err)
	}
	return f, nil
}

func (s *Storage) GetForumByName(ctx context.Context, name domain.ForumName) (domain.Forum, error) {
	f, err := scanForum(s.db.QueryRowContext(ctx,
		`SELECT `+forumColumns+` FROM forums WHERE name = $1 ORDER BY id LIMIT 1`, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Forum{}, internal_errors.NotFound("Forum not found")
		}
		return domain.Forum{}, fmt.Errorf("failed to fetch forum: %w", err)
	}
	return f, nil
}

// ListForums returns the forums of one category ordered by sortkey then id.
func (s *Storage) ListForums(ctx context.Context, categoryId domain.CategoryId) ([]domain.Forum, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+forumColumns+` FROM forums WHERE category_id = $1 ORDER BY sortkey, id`, categoryId)
	if err != nil {
		return nil, fmt.Errorf("failed to query forums: %w", err)
	}
	defer rows.Close()

	forums := []domain.Forum{}
	for rows.Next() {
		f, err := scanForum(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan forum: %w", err)
		}
		forums = append(forums, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return forums, nil
}

func (s *Storage) UpdateForum(ctx context.Context, id domain.ForumId, data domain.ForumEditData) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE forums
		SET name = $2, description = $3, is_announcement = $4,
			edited_actor = $5, edited_ip = $6, edited_at = $7
		WHERE id = $1
	`, id, data.Name, data.Description, data.IsAnnouncement, data.Edited.Actor, data.Edited.IP, data.Edited.At)
	if err != nil {
		return fmt.Errorf("failed to update forum: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Forum not found")
	}
	return nil
}

// DeleteForum removes the forum; its threads and replies go with it
// through foreign key cascades. Categories carry no aggregates, so there is
// nothing else to maintain.
func (s *Storage) DeleteForum(ctx context.Context, id domain.ForumId) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM forums WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete forum: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Forum not found")
	}
	return nil
}
