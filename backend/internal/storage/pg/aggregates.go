package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
)

// The helpers below keep the denormalized counters and last-post pointers in
// step with row changes. They are always called with the transaction that
// performs the row change, after the affected thread and forum rows have
// been locked with lockThread/lockForum.

func lockForum(ctx context.Context, q sharedpg.Querier, id domain.ForumId) error {
	var locked domain.ForumId
	err := q.QueryRowContext(ctx, `SELECT id FROM forums WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return internal_errors.NotFound("Forum not found")
		}
		return fmt.Errorf("failed to lock forum: %w", err)
	}
	return nil
}

// lockedThread is the part of a thread row the aggregate helpers need.
type lockedThread struct {
	id         domain.ThreadId
	forumId    domain.ForumId
	replyCount int
	closed     bool
}

func editClosed() error {
	return internal_errors.PermissionDenied("Thread is closed")
}

func lockThread(ctx context.Context, q sharedpg.Querier, id domain.ThreadId) (lockedThread, error) {
	t := lockedThread{id: id}
	err := q.QueryRowContext(ctx, `
		SELECT forum_id, reply_count, closed_at IS NOT NULL FROM threads WHERE id = $1 FOR UPDATE
	`, id).Scan(&t.forumId, &t.replyCount, &t.closed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return lockedThread{}, internal_errors.NotFound("Thread not found")
		}
		return lockedThread{}, fmt.Errorf("failed to lock thread: %w", err)
	}
	return t, nil
}

func threadInserted(ctx context.Context, q sharedpg.Querier, forumId domain.ForumId, posted domain.Signature) error {
	_, err := q.ExecContext(ctx, `
		UPDATE forums
		SET thread_count = thread_count + 1,
			last_post_actor = $2, last_post_ip = $3, last_post_at = $4
		WHERE id = $1
	`, forumId, posted.Actor, posted.IP, posted.At)
	if err != nil {
		return fmt.Errorf("failed to update forum aggregates: %w", err)
	}
	return nil
}

// threadDeleted runs after the thread row is gone. replyCount is the
// deleted thread's own counter, captured before the delete.
func threadDeleted(ctx context.Context, q sharedpg.Querier, forumId domain.ForumId, replyCount int) error {
	_, err := q.ExecContext(ctx, `
		UPDATE forums
		SET thread_count = thread_count - 1,
			reply_count = reply_count - $2
		WHERE id = $1
	`, forumId, replyCount)
	if err != nil {
		return fmt.Errorf("failed to update forum counters: %w", err)
	}
	return recomputeForumLastPost(ctx, q, forumId)
}

// recomputeForumLastPost points the forum at its most recently active
// remaining thread, or clears the pointer when none remain.
func recomputeForumLastPost(ctx context.Context, q sharedpg.Querier, forumId domain.ForumId) error {
	_, err := q.ExecContext(ctx, `
		UPDATE forums
		SET (last_post_actor, last_post_ip, last_post_at) = (
			SELECT last_post_actor, last_post_ip, last_post_at
			FROM threads
			WHERE forum_id = $1
			ORDER BY last_post_at DESC, id DESC
			LIMIT 1
		)
		WHERE id = $1
	`, forumId)
	if err != nil {
		return fmt.Errorf("failed to recompute forum last post: %w", err)
	}
	return nil
}

// threadMoved runs after the thread row points at its new forum.
func threadMoved(ctx context.Context, q sharedpg.Querier, t lockedThread, to domain.ForumId) error {
	if err := threadDeleted(ctx, q, t.forumId, t.replyCount); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE forums
		SET thread_count = thread_count + 1, reply_count = reply_count + $2
		WHERE id = $1
	`, to, t.replyCount)
	if err != nil {
		return fmt.Errorf("failed to update forum counters: %w", err)
	}
	return recomputeForumLastPost(ctx, q, to)
}

func replyInserted(ctx context.Context, q sharedpg.Querier, t lockedThread, posted domain.Signature) error {
	_, err := q.ExecContext(ctx, `
		UPDATE threads
		SET reply_count = reply_count + 1,
			last_post_actor = $2, last_post_ip = $3, last_post_at = $4
		WHERE id = $1
	`, t.id, posted.Actor, posted.IP, posted.At)
	if err != nil {
		return fmt.Errorf("failed to update thread aggregates: %w", err)
	}

	_, err = q.ExecContext(ctx, `
		UPDATE forums
		SET reply_count = reply_count + 1,
			last_post_actor = $2, last_post_ip = $3, last_post_at = $4
		WHERE id = $1
	`, t.forumId, posted.Actor, posted.IP, posted.At)
	if err != nil {
		return fmt.Errorf("failed to update forum aggregates: %w", err)
	}
	return nil
}

// replyDeleted decrements both counters. The thread's last-post pointer is
// left alone unless recompute is set, in which case it falls back to the
// newest remaining reply or the thread's own post.
func replyDeleted(ctx context.Context, q sharedpg.Querier, t lockedThread, recompute bool) error {
	_, err := q.ExecContext(ctx, `UPDATE threads SET reply_count = reply_count - 1 WHERE id = $1`, t.id)
	if err != nil {
		return fmt.Errorf("failed to update thread counters: %w", err)
	}
	_, err = q.ExecContext(ctx, `UPDATE forums SET reply_count = reply_count - 1 WHERE id = $1`, t.forumId)
	if err != nil {
		return fmt.Errorf("failed to update forum counters: %w", err)
	}
	if !recompute {
		return nil
	}

	_, err = q.ExecContext(ctx, `
		UPDATE threads
		SET (last_post_actor, last_post_ip, last_post_at) = (
			SELECT posted_actor, posted_ip, posted_at
			FROM (
				SELECT posted_actor, posted_ip, posted_at, id FROM replies WHERE thread_id = $1
				UNION ALL
				SELECT posted_actor, posted_ip, posted_at, 0 FROM threads WHERE id = $1
			) p
			ORDER BY posted_at DESC, id DESC
			LIMIT 1
		)
		WHERE id = $1
	`, t.id)
	if err != nil {
		return fmt.Errorf("failed to recompute thread last post: %w", err)
	}
	return recomputeForumLastPost(ctx, q, t.forumId)
}
