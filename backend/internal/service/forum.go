package service

import (
	"context"
	"strconv"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
)

// to mock service in tests
type ForumService interface {
	Create(ctx context.Context, actor domain.Actor, data domain.ForumCreationData) (domain.ForumId, error)
	Get(ctx context.Context, id domain.ForumId, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error)
	GetByName(ctx context.Context, name domain.ForumName, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error)
	Edit(ctx context.Context, actor domain.Actor, id domain.ForumId, data domain.ForumEditData) error
	Delete(ctx context.Context, actor domain.Actor, id domain.ForumId) error
}

type ForumStorage interface {
	CreateForum(ctx context.Context, data domain.ForumCreationData) (domain.ForumId, error)
	GetForum(ctx context.Context, id domain.ForumId) (domain.Forum, error)
	GetForumByName(ctx context.Context, name domain.ForumName) (domain.Forum, error)
	ListThreads(ctx context.Context, forumId domain.ForumId, sort domain.ThreadSort) ([]domain.Thread, error)
	UpdateForum(ctx context.Context, id domain.ForumId, data domain.ForumEditData) error
	DeleteForum(ctx context.Context, id domain.ForumId) error
}

type Forum struct {
	storage ForumStorage
	guard   *Guard
	cache   RecordCache
	audit   AuditSink
	cfg     *config.Public
}

func NewForum(storage ForumStorage, guard *Guard, cache RecordCache, audit AuditSink, cfg *config.Public) *Forum {
	return &Forum{storage: storage, guard: guard, cache: cache, audit: audit, cfg: cfg}
}

func (s *Forum) Create(ctx context.Context, actor domain.Actor, data domain.ForumCreationData) (domain.ForumId, error) {
	if err := writable(s.cfg); err != nil {
		return -1, err
	}
	if !canAdminister(actor) {
		return -1, permissionDenied("add forums")
	}
	name, err := s.guard.Name(data.Name)
	if err != nil {
		return -1, err
	}
	data.Name = name
	data.Added = actor.Sign(s.guard.Now())

	id, err := s.storage.CreateForum(ctx, data)
	if err != nil {
		return -1, err
	}
	s.audit.Record(ctx, newEvent(domain.ActionAddForum, actor, forumTarget(id), name, data.Added.At))
	return id, nil
}

func (s *Forum) forum(ctx context.Context, id domain.ForumId) (domain.Forum, error) {
	if f, ok := s.cache.Forum(ctx, id); ok {
		return f, nil
	}
	f, err := s.storage.GetForum(ctx, id)
	if err != nil {
		return domain.Forum{}, err
	}
	s.cache.SetForum(ctx, f)
	return f, nil
}

func (s *Forum) withThreads(ctx context.Context, f domain.Forum, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error) {
	threads, err := s.storage.ListThreads(ctx, f.Id, sort)
	if err != nil {
		return domain.ForumWithThreads{}, err
	}
	threads, info := domain.Paginate(threads, page, s.cfg.ThreadsPerPage)
	return domain.ForumWithThreads{Forum: f, Threads: threads, Page: info}, nil
}

// Get returns one page of the forum's threads, sticky threads first.
func (s *Forum) Get(ctx context.Context, id domain.ForumId, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error) {
	f, err := s.forum(ctx, id)
	if err != nil {
		return domain.ForumWithThreads{}, err
	}
	return s.withThreads(ctx, f, page, sort)
}

func (s *Forum) GetByName(ctx context.Context, name domain.ForumName, page int, sort domain.ThreadSort) (domain.ForumWithThreads, error) {
	f, err := s.storage.GetForumByName(ctx, name)
	if err != nil {
		return domain.ForumWithThreads{}, err
	}
	return s.withThreads(ctx, f, page, sort)
}

func (s *Forum) Edit(ctx context.Context, actor domain.Actor, id domain.ForumId, data domain.ForumEditData) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("edit forums")
	}
	name, err := s.guard.Name(data.Name)
	if err != nil {
		return err
	}
	data.Name = name
	data.Edited = actor.Sign(s.guard.Now())

	if err := s.storage.UpdateForum(ctx, id, data); err != nil {
		return err
	}
	s.cache.InvalidateForum(ctx, id)
	s.audit.Record(ctx, newEvent(domain.ActionEditForum, actor, forumTarget(id), name, data.Edited.At))
	return nil
}

// Delete removes the forum together with its threads and replies.
func (s *Forum) Delete(ctx context.Context, actor domain.Actor, id domain.ForumId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("delete forums")
	}
	if err := s.storage.DeleteForum(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateForum(ctx, id)
	s.audit.Record(ctx, newEvent(domain.ActionDeleteForum, actor, forumTarget(id), "", s.guard.Now()))
	return nil
}

func forumTarget(id domain.ForumId) string {
	return "forum:" + strconv.FormatInt(id, 10)
}
