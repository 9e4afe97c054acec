package service

import (
	"context"

	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
)

// to mock service in tests
type OrderingService interface {
	MoveCategory(ctx context.Context, actor domain.Actor, id domain.CategoryId, dir ordering.Direction) error
	MoveForum(ctx context.Context, actor domain.Actor, id domain.ForumId, dir ordering.Direction) error
	NormalizeCategories(ctx context.Context, actor domain.Actor) error
	NormalizeForums(ctx context.Context, actor domain.Actor, categoryId domain.CategoryId) error
}

type OrderingStorage interface {
	MoveCategory(ctx context.Context, id domain.CategoryId, dir ordering.Direction) (bool, error)
	MoveForum(ctx context.Context, id domain.ForumId, dir ordering.Direction) (bool, error)
	NormalizeCategories(ctx context.Context) error
	NormalizeForums(ctx context.Context, categoryId domain.CategoryId) error
}

// Ordering authorizes sibling reordering. Permission is checked before
// storage is touched, so a refused move writes nothing. A move renumbers the
// whole scope, so the record cache is flushed rather than invalidated by id.
type Ordering struct {
	storage OrderingStorage
	cache   RecordCache
	audit   AuditSink
	cfg     *config.Public
	now     Clock
}

func NewOrdering(storage OrderingStorage, cache RecordCache, audit AuditSink, cfg *config.Public, now Clock) *Ordering {
	if now == nil {
		now = SystemClock
	}
	return &Ordering{storage: storage, cache: cache, audit: audit, cfg: cfg, now: now}
}

func (s *Ordering) MoveCategory(ctx context.Context, actor domain.Actor, id domain.CategoryId, dir ordering.Direction) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("reorder categories")
	}
	moved, err := s.storage.MoveCategory(ctx, id, dir)
	if err != nil {
		return err
	}
	s.cache.Flush(ctx)
	if moved {
		s.audit.Record(ctx, newEvent(domain.ActionSortCategory, actor, categoryTarget(id), dir.String(), s.now()))
	}
	return nil
}

func (s *Ordering) MoveForum(ctx context.Context, actor domain.Actor, id domain.ForumId, dir ordering.Direction) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("reorder forums")
	}
	moved, err := s.storage.MoveForum(ctx, id, dir)
	if err != nil {
		return err
	}
	s.cache.Flush(ctx)
	if moved {
		s.audit.Record(ctx, newEvent(domain.ActionSortForum, actor, forumTarget(id), dir.String(), s.now()))
	}
	return nil
}

func (s *Ordering) NormalizeCategories(ctx context.Context, actor domain.Actor) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("reorder categories")
	}
	if err := s.storage.NormalizeCategories(ctx); err != nil {
		return err
	}
	s.cache.Flush(ctx)
	return nil
}

func (s *Ordering) NormalizeForums(ctx context.Context, actor domain.Actor, categoryId domain.CategoryId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("reorder forums")
	}
	if err := s.storage.NormalizeForums(ctx, categoryId); err != nil {
		return err
	}
	s.cache.Flush(ctx)
	return nil
}
