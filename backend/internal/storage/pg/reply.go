package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

const replyColumns = `id, thread_id, text, posted_actor, posted_ip, posted_at, edited_actor, edited_ip, edited_at`

func scanReply(row scanner) (domain.Reply, error) {
	var r domain.Reply
	var edited nullSignature
	dest := append([]any{&r.Id, &r.ThreadId, &r.Text}, sigDest(&r.Posted)...)
	if err := row.Scan(append(dest, edited.dest()...)...); err != nil {
		return domain.Reply{}, err
	}
	utc(&r.Posted)
	r.Edited = edited.ptr()
	return r, nil
}

// CreateReply appends a reply to an open thread. Closed threads reject every
// reply regardless of who posts it.
func (s *Storage) CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.ReplyId, error) {
	var id domain.ReplyId
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		t, err := lockThread(ctx, tx, data.ThreadId)
		if err != nil {
			return err
		}
		if t.closed {
			return internal_errors.New(internal_errors.ErrThreadClosed, "Thread is closed")
		}

		dup, err := duplicateExists(ctx, tx, "replies", "thread_id", data.ThreadId, data.Text, data.Posted, data.DuplicateSince)
		if err != nil {
			return err
		}
		if dup {
			return internal_errors.New(internal_errors.ErrDoublePost, "This reply was already posted")
		}

		err = tx.QueryRowContext(ctx, `
			INSERT INTO replies (thread_id, text, text_hash, posted_actor, posted_ip, posted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, data.ThreadId, data.Text, textHash(data.Text), data.Posted.Actor, data.Posted.IP, data.Posted.At).Scan(&id)
		if err != nil {
			return fmt.Errorf("failed to insert reply: %w", err)
		}

		return replyInserted(ctx, tx, t, data.Posted)
	})
	if err != nil {
		return -1, err
	}
	return id, nil
}

func (s *Storage) GetReply(ctx context.Context, id domain.ReplyId) (domain.Reply, error) {
	r, err := scanReply(s.db.QueryRowContext(ctx,
		`SELECT `+replyColumns+` FROM replies WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Reply{}, internal_errors.NotFound("Reply not found")
		}
		return domain.Reply{}, fmt.Errorf("failed to fetch reply: %w", err)
	}
	return r, nil
}

// ListReplies returns the replies of a thread in posting order.
func (s *Storage) ListReplies(ctx context.Context, threadId domain.ThreadId) ([]domain.Reply, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+replyColumns+` FROM replies WHERE thread_id = $1 ORDER BY posted_at, id`, threadId)
	if err != nil {
		return nil, fmt.Errorf("failed to query replies: %w", err)
	}
	defer rows.Close()

	replies := []domain.Reply{}
	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reply: %w", err)
		}
		replies = append(replies, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return replies, nil
}

// UpdateReply holds the thread lock so a concurrent close is seen when
// data.RequireOpen is set.
func (s *Storage) UpdateReply(ctx context.Context, id domain.ReplyId, data domain.PostEditData) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var threadId domain.ThreadId
		err := tx.QueryRowContext(ctx, `SELECT thread_id FROM replies WHERE id = $1`, id).Scan(&threadId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Reply not found")
			}
			return fmt.Errorf("failed to fetch reply: %w", err)
		}

		t, err := lockThread(ctx, tx, threadId)
		if err != nil {
			return err
		}
		if data.RequireOpen && t.closed {
			return editClosed()
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE replies
			SET text = $2, text_hash = $3, edited_actor = $4, edited_ip = $5, edited_at = $6
			WHERE id = $1
		`, id, data.Text, textHash(data.Text), data.Edited.Actor, data.Edited.IP, data.Edited.At)
		if err != nil {
			return fmt.Errorf("failed to update reply: %w", err)
		}
		return nil
	})
}

// DeleteReply removes the reply and decrements the thread and forum
// counters in one transaction.
func (s *Storage) DeleteReply(ctx context.Context, id domain.ReplyId) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var threadId domain.ThreadId
		err := tx.QueryRowContext(ctx, `SELECT thread_id FROM replies WHERE id = $1`, id).Scan(&threadId)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return internal_errors.NotFound("Reply not found")
			}
			return fmt.Errorf("failed to fetch reply: %w", err)
		}

		t, err := lockThread(ctx, tx, threadId)
		if err != nil {
			return err
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM replies WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete reply: %w", err)
		}
		// a concurrent delete may have won between the lookup and the lock
		if affected, _ := result.RowsAffected(); affected == 0 {
			return internal_errors.NotFound("Reply not found")
		}
		return replyDeleted(ctx, tx, t, s.cfg.Public.RecomputeLastPostOnReplyDelete)
	})
}
