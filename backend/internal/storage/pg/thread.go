package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
)

const threadColumns = `id, forum_id, title, text, is_sticky, closed_at, closed_actor,
	reply_count, view_count, posted_actor, posted_ip, posted_at,
	edited_actor, edited_ip, edited_at, last_post_actor, last_post_ip, last_post_at`

// threadSortColumns maps the public sort names to SQL; anything not in the
// map never reaches a query string.
var threadSortColumns = map[domain.ThreadSortColumn]string{
	domain.SortByLastPost: "last_post_at",
	domain.SortByReplies:  "reply_count",
	domain.SortByViews:    "view_count",
	domain.SortByTitle:    "title",
}

func scanThread(row scanner) (domain.Thread, error) {
	var t domain.Thread
	var closedAt sql.NullTime
	var closedBy sql.NullInt64
	var edited nullSignature
	dest := []any{&t.Id, &t.ForumId, &t.Title, &t.Text, &t.IsSticky, &closedAt, &closedBy,
		&t.ReplyCount, &t.ViewCount}
	dest = append(dest, sigDest(&t.Posted)...)
	dest = append(dest, edited.dest()...)
	dest = append(dest, sigDest(&t.LastPost)...)
	if err := row.Scan(dest...); err != nil {
		return domain.Thread{}, err
	}
	utc(&t.Posted)
	utc(&t.LastPost)
	t.Edited = edited.ptr()
	t.ClosedAt = nullTimePtr(closedAt)
	if closedBy.Valid {
		t.ClosedBy = &closedBy.Int64
	}
	return t, nil
}

func scanThreads(rows *sql.Rows) ([]domain.Thread, error) {
	defer rows.Close()
	threads := []domain.Thread{}
	for rows.Next() {
		t, err := scanThread(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan thread: %w", err)
		}
		threads = append(threads, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return threads, nil
}

// duplicateExists looks for a post with the same body by the same author in
// the same parent since the given moment. Anonymous posts share actor 0, so
// they are told apart by ip.
func duplicateExists(ctx context.Context, q sharedpg.Querier, table, parentColumn string, parentId int64, text domain.PostText, posted domain.Signature, since time.Time) (bool, error) {
	if since.IsZero() {
		return false, nil
	}
	var exists bool
	err := q.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT EXISTS (
			SELECT 1 FROM %s
			WHERE %s = $1 AND posted_actor = $2 AND text_hash = $3 AND posted_at > $4
				AND ($2 <> 0 OR posted_ip = $5)
		)
	`, table, parentColumn), parentId, posted.Actor, textHash(text), since, posted.IP).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check for double post: %w", err)
	}
	return exists, nil
}

func titleTaken(ctx context.Context, q sharedpg.Querier, title domain.ThreadTitle, exceptId domain.ThreadId) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM threads WHERE title = $1 AND id <> $2)`, title, exceptId).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check title: %w", err)
	}
	return exists, nil
}

func titleConflict(title domain.ThreadTitle) error {
	return internal_errors.ConstraintViolation(fmt.Sprintf("Thread titled %q already exists", title))
}

// CreateThread inserts the thread and updates the forum aggregates in one
// transaction. The double-post check runs before the title check, so an
// identical resubmission reports DoublePost rather than a title clash.
func (s *Storage) CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error) {
	var id domain.ThreadId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := lockForum(ctx, tx, data.ForumId); err != nil {
			return err
		}

		dup, err := duplicateExists(ctx, tx, "threads", "forum_id", data.ForumId, data.Text, data.Posted, data.DuplicateSince)
		if err != nil {
			return err
		}
		if dup {
			return internal_errors.New(internal_errors.ErrDoublePost, "This thread was already posted")
		}

		taken, err := titleTaken(ctx, tx, data.Title, 0)
		if err != nil {
			return err
		}
		if taken {
			return titleConflict(data.Title)
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO threads (forum_id, title, text, text_hash, posted_actor, posted_ip, posted_at,
				last_post_actor, last_post_ip, last_post_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $5, $6, $7)
			RETURNING id
		`, data.ForumId, data.Title, data.Text, textHash(data.Text),
			data.Posted.Actor, data.Posted.IP, data.Posted.At).Scan(&id)
		if err != nil {
			if sharedpg.IsUniqueViolation(err, "threads_title_key") {
				return titleConflict(data.Title)
			}
			return fmt.Errorf("failed to insert thread: %w", err)
		}

		return threadInserted(ctx, tx, data.ForumId, data.Posted)
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *Storage) GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	t, err := scanThread(s.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// GetThreadByTitle accepts URL-style titles where spaces are underscores.
func (s *Storage) GetThreadByTitle(ctx context.Context, title domain.ThreadTitle) (domain.Thread, error) {
	title = strings.ReplaceAll(title, "_", " ")
	t, err := scanThread(s.db.QueryRowContext(ctx,
		`SELECT `+threadColumns+` FROM threads WHERE title = $1`, title))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Thread{}, internal_errors.NotFound("Thread not found")
		}
		return domain.Thread{}, fmt.Errorf("failed to fetch thread: %w", err)
	}
	return t, nil
}

// ListThreads returns every thread of the forum, sticky threads first, then
// by the requested column with id as the final tiebreaker.
func (s *Storage) ListThreads(ctx context.Context, forumId domain.ForumId, sort domain.ThreadSort) ([]domain.Thread, error) {
	column, ok := threadSortColumns[sort.Column]
	if !ok {
		column = threadSortColumns[domain.SortByLastPost]
	}
	dir := "ASC"
	if sort.Desc {
		dir = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM threads WHERE forum_id = $1 ORDER BY is_sticky DESC, %s %s, id %s`,
		threadColumns, column, dir, dir)
	rows, err := s.db.QueryContext(ctx, query, forumId)
	if err != nil {
		return nil, fmt.Errorf("failed to query threads: %w", err)
	}
	return scanThreads(rows)
}

// RecentThreads lists the most recently active threads across all forums.
func (s *Storage) RecentThreads(ctx context.Context, limit int) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+threadColumns+` FROM threads ORDER BY last_post_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent threads: %w", err)
	}
	return scanThreads(rows)
}

// InactiveThreads returns open threads whose last post is older than before,
// oldest first.
func (s *Storage) InactiveThreads(ctx context.Context, before time.Time, limit int) ([]domain.Thread, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+threadColumns+` FROM threads
		WHERE closed_at IS NULL AND last_post_at < $1
		ORDER BY last_post_at, id
		LIMIT $2
	`, before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query inactive threads: %w", err)
	}
	return scanThreads(rows)
}

func (s *Storage) UpdateThread(ctx context.Context, id domain.ThreadId, data domain.PostEditData) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := lockThread(ctx, tx, id)
		if err != nil {
			return err
		}
		if data.RequireOpen && t.closed {
			return editClosed()
		}
		taken, err := titleTaken(ctx, tx, data.Title, id)
		if err != nil {
			return err
		}
		if taken {
			return titleConflict(data.Title)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE threads
			SET title = $2, text = $3, text_hash = $4, edited_actor = $5, edited_ip = $6, edited_at = $7
			WHERE id = $1
		`, id, data.Title, data.Text, textHash(data.Text), data.Edited.Actor, data.Edited.IP, data.Edited.At)
		if err != nil {
			if sharedpg.IsUniqueViolation(err, "threads_title_key") {
				return titleConflict(data.Title)
			}
			return fmt.Errorf("failed to update thread: %w", err)
		}
		return nil
	})
}

// SetThreadClosed closes the thread when closed is non-nil and reopens it
// otherwise. changed is false when the thread was already in that state.
func (s *Storage) SetThreadClosed(ctx context.Context, id domain.ThreadId, closed *domain.Signature) (bool, error) {
	var result sql.Result
	var err error
	if closed != nil {
		result, err = s.db.ExecContext(ctx, `
			UPDATE threads SET closed_at = $2, closed_actor = $3, closed_ip = $4
			WHERE id = $1 AND closed_at IS NULL
		`, id, closed.At, closed.Actor, closed.IP)
	} else {
		result, err = s.db.ExecContext(ctx, `
			UPDATE threads SET closed_at = NULL, closed_actor = NULL, closed_ip = NULL
			WHERE id = $1 AND closed_at IS NOT NULL
		`, id)
	}
	if err != nil {
		return false, fmt.Errorf("failed to update thread state: %w", err)
	}
	return s.changedOrMissing(ctx, result, id)
}

// SetThreadSticky reports changed=false when the flag already had that value.
func (s *Storage) SetThreadSticky(ctx context.Context, id domain.ThreadId, sticky bool) (bool, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE threads SET is_sticky = $2 WHERE id = $1 AND is_sticky <> $2`, id, sticky)
	if err != nil {
		return false, fmt.Errorf("failed to update sticky flag: %w", err)
	}
	return s.changedOrMissing(ctx, result, id)
}

// changedOrMissing tells a conditional update that matched nothing because
// the state was already set apart from one whose thread does not exist.
func (s *Storage) changedOrMissing(ctx context.Context, result sql.Result, id domain.ThreadId) (bool, error) {
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	if affected > 0 {
		return true, nil
	}
	var exists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM threads WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check thread: %w", err)
	}
	if !exists {
		return false, internal_errors.NotFound("Thread not found")
	}
	return false, nil
}

// MoveThread re-parents a thread and carries its counters from the source
// forum to the target. Moving into the current forum is a no-op.
func (s *Storage) MoveThread(ctx context.Context, id domain.ThreadId, to domain.ForumId) (bool, error) {
	moved := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := lockThread(ctx, tx, id)
		if err != nil {
			return err
		}
		if t.forumId == to {
			return nil
		}

		first, second := t.forumId, to
		if second < first {
			first, second = second, first
		}
		if err := lockForum(ctx, tx, first); err != nil {
			return err
		}
		if err := lockForum(ctx, tx, second); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, `UPDATE threads SET forum_id = $2 WHERE id = $1`, id, to); err != nil {
			return fmt.Errorf("failed to move thread: %w", err)
		}
		if err := threadMoved(ctx, tx, t, to); err != nil {
			return err
		}
		moved = true
		return nil
	})
	return moved, err
}

// DeleteThread removes the thread with its replies and maintains the
// forum aggregates in the same transaction.
func (s *Storage) DeleteThread(ctx context.Context, id domain.ThreadId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := lockThread(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := lockForum(ctx, tx, t.forumId); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM threads WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete thread: %w", err)
		}
		return threadDeleted(ctx, tx, t.forumId, t.replyCount)
	})
}

func (s *Storage) IncrementViews(ctx context.Context, id domain.ThreadId) error {
	result, err := s.db.ExecContext(ctx, `UPDATE threads SET view_count = view_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return internal_errors.NotFound("Thread not found")
	}
	return nil
}
