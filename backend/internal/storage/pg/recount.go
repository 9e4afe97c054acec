package pg

import (
	"context"
	"database/sql"
	"fmt"
)

// RecountStats reports how many rows a Recount had to repair.
type RecountStats struct {
	ThreadsFixed int64
	ForumsFixed  int64
}

// Recount rebuilds every denormalized counter and last-post pointer from the
// child rows. Rows that already match are left untouched.
func (s *Storage) Recount(ctx context.Context) (RecountStats, error) {
	var stats RecountStats
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
			UPDATE threads t
			SET reply_count = c.n
			FROM (
				SELECT th.id, COUNT(r.id)::int AS n
				FROM threads th LEFT JOIN replies r ON r.thread_id = th.id
				GROUP BY th.id
			) c
			WHERE t.id = c.id AND t.reply_count <> c.n
		`)
		if err != nil {
			return fmt.Errorf("failed to recount threads: %w", err)
		}
		stats.ThreadsFixed, _ = result.RowsAffected()

		result, err = tx.ExecContext(ctx, `
			UPDATE forums f
			SET thread_count = c.threads,
				reply_count = c.replies,
				last_post_actor = c.last_actor,
				last_post_ip = c.last_ip,
				last_post_at = c.last_at
			FROM (
				SELECT fo.id,
					COUNT(t.id)::int AS threads,
					COALESCE(SUM(t.reply_count), 0)::int AS replies,
					(ARRAY_AGG(t.last_post_actor ORDER BY t.last_post_at DESC, t.id DESC))[1] AS last_actor,
					(ARRAY_AGG(t.last_post_ip ORDER BY t.last_post_at DESC, t.id DESC))[1] AS last_ip,
					MAX(t.last_post_at) AS last_at
				FROM forums fo LEFT JOIN threads t ON t.forum_id = fo.id
				GROUP BY fo.id
			) c
			WHERE f.id = c.id AND (
				f.thread_count <> c.threads
				OR f.reply_count <> c.replies
				OR f.last_post_at IS DISTINCT FROM c.last_at
				OR f.last_post_actor IS DISTINCT FROM c.last_actor
			)
		`)
		if err != nil {
			return fmt.Errorf("failed to recount forums: %w", err)
		}
		stats.ForumsFixed, _ = result.RowsAffected()
		return nil
	})
	return stats, err
}
