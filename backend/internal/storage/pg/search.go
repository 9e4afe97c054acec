package pg

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/itchan-dev/forum/shared/domain"
)

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern turns user input into a case-insensitive substring pattern
// where wildcard characters match themselves.
func likePattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

// Search matches the query as a plain substring against thread titles and
// bodies and against reply bodies. Hits of both kinds are merged newest
// first and capped at limit.
func (s *Storage) Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error) {
	pattern := likePattern(query)
	hits := []domain.SearchHit{}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, text, posted_actor, posted_ip, posted_at
		FROM threads
		WHERE title ILIKE $1 OR text ILIKE $1
		ORDER BY posted_at DESC, id DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search threads: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		h := domain.SearchHit{Kind: domain.HitThread}
		if err := rows.Scan(&h.ThreadId, &h.ThreadTitle, &h.Text, &h.Posted.Actor, &h.Posted.IP, &h.Posted.At); err != nil {
			return nil, fmt.Errorf("failed to scan thread hit: %w", err)
		}
		utc(&h.Posted)
		hits = append(hits, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	replyRows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.thread_id, t.title, r.text, r.posted_actor, r.posted_ip, r.posted_at
		FROM replies r
		JOIN threads t ON t.id = r.thread_id
		WHERE r.text ILIKE $1
		ORDER BY r.posted_at DESC, r.id DESC
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search replies: %w", err)
	}
	defer replyRows.Close()
	for replyRows.Next() {
		h := domain.SearchHit{Kind: domain.HitReply}
		if err := replyRows.Scan(&h.ReplyId, &h.ThreadId, &h.ThreadTitle, &h.Text, &h.Posted.Actor, &h.Posted.IP, &h.Posted.At); err != nil {
			return nil, fmt.Errorf("failed to scan reply hit: %w", err)
		}
		utc(&h.Posted)
		hits = append(hits, h)
	}
	if err := replyRows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Posted.At.After(hits[j].Posted.At)
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}
