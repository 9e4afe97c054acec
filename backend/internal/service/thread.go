package service

import (
	"context"
	"strconv"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/logger"
)

// to mock service in tests
type ThreadService interface {
	Create(ctx context.Context, actor domain.Actor, data domain.ThreadCreationData, captchaToken string) (domain.ThreadId, error)
	Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	View(ctx context.Context, id domain.ThreadId, page int) (domain.ThreadWithReplies, error)
	ViewByTitle(ctx context.Context, title domain.ThreadTitle, page int) (domain.ThreadWithReplies, error)
	Recent(ctx context.Context, limit int) ([]domain.Thread, error)
	Edit(ctx context.Context, actor domain.Actor, id domain.ThreadId, data domain.PostEditData) error
	Delete(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	Close(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	Reopen(ctx context.Context, actor domain.Actor, id domain.ThreadId) error
	SetSticky(ctx context.Context, actor domain.Actor, id domain.ThreadId, sticky bool) error
	Move(ctx context.Context, actor domain.Actor, id domain.ThreadId, to domain.ForumId) error
}

type ThreadStorage interface {
	GetForum(ctx context.Context, id domain.ForumId) (domain.Forum, error)
	CreateThread(ctx context.Context, data domain.ThreadCreationData) (domain.ThreadId, error)
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	GetThreadByTitle(ctx context.Context, title domain.ThreadTitle) (domain.Thread, error)
	ListReplies(ctx context.Context, threadId domain.ThreadId) ([]domain.Reply, error)
	RecentThreads(ctx context.Context, limit int) ([]domain.Thread, error)
	UpdateThread(ctx context.Context, id domain.ThreadId, data domain.PostEditData) error
	SetThreadClosed(ctx context.Context, id domain.ThreadId, closed *domain.Signature) (bool, error)
	SetThreadSticky(ctx context.Context, id domain.ThreadId, sticky bool) (bool, error)
	MoveThread(ctx context.Context, id domain.ThreadId, to domain.ForumId) (bool, error)
	DeleteThread(ctx context.Context, id domain.ThreadId) error
	IncrementViews(ctx context.Context, id domain.ThreadId) error
}

type Thread struct {
	storage ThreadStorage
	guard   *Guard
	cache   RecordCache
	audit   AuditSink
	cfg     *config.Public
}

func NewThread(storage ThreadStorage, guard *Guard, cache RecordCache, audit AuditSink, cfg *config.Public) *Thread {
	return &Thread{storage: storage, guard: guard, cache: cache, audit: audit, cfg: cfg}
}

// Create starts a thread. Validation runs first, then the role checks, then
// the insert, which also checks the double-post window and title uniqueness.
func (s *Thread) Create(ctx context.Context, actor domain.Actor, data domain.ThreadCreationData, captchaToken string) (domain.ThreadId, error) {
	if err := writable(s.cfg); err != nil {
		return -1, err
	}
	title, err := s.guard.Title(data.Title)
	if err != nil {
		return -1, err
	}
	text, err := s.guard.Text(data.Text)
	if err != nil {
		return -1, err
	}

	forum, err := s.storage.GetForum(ctx, data.ForumId)
	if err != nil {
		return -1, err
	}
	if !canStartThread(actor, forum, s.cfg) {
		return -1, permissionDenied("start threads in this forum")
	}
	if err := s.guard.Captcha(ctx, actor, captchaToken); err != nil {
		return -1, err
	}

	data.Title = title
	data.Text = text
	data.Posted = actor.Sign(s.guard.Now())
	data.DuplicateSince = s.guard.DuplicateSince()

	id, err := s.storage.CreateThread(ctx, data)
	if err != nil {
		return -1, err
	}
	s.cache.InvalidateForum(ctx, data.ForumId)
	s.audit.Record(ctx, newEvent(domain.ActionAddThread, actor, threadTarget(id), title, data.Posted.At))
	return id, nil
}

func (s *Thread) Get(ctx context.Context, id domain.ThreadId) (domain.Thread, error) {
	return s.storage.GetThread(ctx, id)
}

// View returns one page of replies and counts the view. Views are not
// counted in read-only mode.
func (s *Thread) View(ctx context.Context, id domain.ThreadId, page int) (domain.ThreadWithReplies, error) {
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return domain.ThreadWithReplies{}, err
	}
	return s.view(ctx, thread, page)
}

// ViewByTitle accepts titles with underscores in place of spaces.
func (s *Thread) ViewByTitle(ctx context.Context, title domain.ThreadTitle, page int) (domain.ThreadWithReplies, error) {
	thread, err := s.storage.GetThreadByTitle(ctx, title)
	if err != nil {
		return domain.ThreadWithReplies{}, err
	}
	return s.view(ctx, thread, page)
}

func (s *Thread) view(ctx context.Context, thread domain.Thread, page int) (domain.ThreadWithReplies, error) {
	replies, err := s.storage.ListReplies(ctx, thread.Id)
	if err != nil {
		return domain.ThreadWithReplies{}, err
	}
	replies, info := domain.Paginate(replies, page, s.cfg.RepliesPerPage)

	if !s.cfg.ReadOnly {
		if err := s.storage.IncrementViews(ctx, thread.Id); err != nil {
			return domain.ThreadWithReplies{}, err
		}
		thread.ViewCount++
	}
	return domain.ThreadWithReplies{Thread: thread, Replies: replies, Page: info}, nil
}

func (s *Thread) Recent(ctx context.Context, limit int) ([]domain.Thread, error) {
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}
	return s.storage.RecentThreads(ctx, limit)
}

func (s *Thread) Edit(ctx context.Context, actor domain.Actor, id domain.ThreadId, data domain.PostEditData) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	title, err := s.guard.Title(data.Title)
	if err != nil {
		return err
	}
	text, err := s.guard.Text(data.Text)
	if err != nil {
		return err
	}

	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if !canEditPost(actor, thread.Posted.Actor, thread.IsClosed()) {
		return permissionDenied("edit this thread")
	}

	data.Title = title
	data.Text = text
	data.Edited = actor.Sign(s.guard.Now())
	data.RequireOpen = !canModerate(actor)
	if err := s.storage.UpdateThread(ctx, id, data); err != nil {
		return err
	}
	s.audit.Record(ctx, newEvent(domain.ActionEditThread, actor, threadTarget(id), text, data.Edited.At))
	return nil
}

func (s *Thread) Delete(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	if !canDeletePost(actor, thread.Posted.Actor) {
		return permissionDenied("delete this thread")
	}
	if err := s.storage.DeleteThread(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateForum(ctx, thread.ForumId)
	s.audit.Record(ctx, newEvent(domain.ActionDeleteThread, actor, threadTarget(id), thread.Title, s.guard.Now()))
	return nil
}

// Close is a no-op without an audit event when the thread is already closed.
func (s *Thread) Close(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canModerate(actor) {
		return permissionDenied("close threads")
	}
	closed := actor.Sign(s.guard.Now())
	changed, err := s.storage.SetThreadClosed(ctx, id, &closed)
	if err != nil {
		return err
	}
	if changed {
		s.audit.Record(ctx, newEvent(domain.ActionCloseThread, actor, threadTarget(id), "", closed.At))
	}
	return nil
}

func (s *Thread) Reopen(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canModerate(actor) {
		return permissionDenied("reopen threads")
	}
	changed, err := s.storage.SetThreadClosed(ctx, id, nil)
	if err != nil {
		return err
	}
	if changed {
		s.audit.Record(ctx, newEvent(domain.ActionReopenThread, actor, threadTarget(id), "", s.guard.Now()))
	}
	return nil
}

func (s *Thread) SetSticky(ctx context.Context, actor domain.Actor, id domain.ThreadId, sticky bool) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canAdminister(actor) {
		return permissionDenied("change sticky threads")
	}
	changed, err := s.storage.SetThreadSticky(ctx, id, sticky)
	if err != nil {
		return err
	}
	if changed {
		action := domain.ActionStickyThread
		if !sticky {
			action = domain.ActionUnstickyThread
		}
		s.audit.Record(ctx, newEvent(action, actor, threadTarget(id), "", s.guard.Now()))
	}
	return nil
}

// Move re-parents a thread into another forum.
func (s *Thread) Move(ctx context.Context, actor domain.Actor, id domain.ThreadId, to domain.ForumId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	if !canModerate(actor) {
		return permissionDenied("move threads")
	}
	thread, err := s.storage.GetThread(ctx, id)
	if err != nil {
		return err
	}
	moved, err := s.storage.MoveThread(ctx, id, to)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}

	s.cache.InvalidateForum(ctx, thread.ForumId)
	s.cache.InvalidateForum(ctx, to)
	logger.Log.Info("thread moved", "component", "service", "thread_id", id, "from", thread.ForumId, "to", to)
	s.audit.Record(ctx, newEvent(domain.ActionMoveThread, actor, threadTarget(id), forumTarget(to), s.guard.Now()))
	return nil
}

func threadTarget(id domain.ThreadId) string {
	return "thread:" + strconv.FormatInt(id, 10)
}
