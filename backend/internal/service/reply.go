package service

import (
	"context"
	"strconv"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

// to mock service in tests
type ReplyService interface {
	Create(ctx context.Context, actor domain.Actor, data domain.ReplyCreationData, captchaToken string) (domain.ReplyId, error)
	Get(ctx context.Context, id domain.ReplyId) (domain.Reply, error)
	Edit(ctx context.Context, actor domain.Actor, id domain.ReplyId, text domain.PostText) error
	Delete(ctx context.Context, actor domain.Actor, id domain.ReplyId) error
}

type ReplyStorage interface {
	GetThread(ctx context.Context, id domain.ThreadId) (domain.Thread, error)
	CreateReply(ctx context.Context, data domain.ReplyCreationData) (domain.ReplyId, error)
	GetReply(ctx context.Context, id domain.ReplyId) (domain.Reply, error)
	UpdateReply(ctx context.Context, id domain.ReplyId, data domain.PostEditData) error
	DeleteReply(ctx context.Context, id domain.ReplyId) error
}

type Reply struct {
	storage ReplyStorage
	guard   *Guard
	cache   RecordCache
	audit   AuditSink
	cfg     *config.Public
}

func NewReply(storage ReplyStorage, guard *Guard, cache RecordCache, audit AuditSink, cfg *config.Public) *Reply {
	return &Reply{storage: storage, guard: guard, cache: cache, audit: audit, cfg: cfg}
}

// Create appends a reply. A closed thread rejects it with ThreadClosed for
// every actor; storage checks that again under the thread lock.
func (s *Reply) Create(ctx context.Context, actor domain.Actor, data domain.ReplyCreationData, captchaToken string) (domain.ReplyId, error) {
	if err := writable(s.cfg); err != nil {
		return -1, err
	}
	thread, err := s.storage.GetThread(ctx, data.ThreadId)
	if err != nil {
		return -1, err
	}
	if thread.IsClosed() {
		return -1, internal_errors.New(internal_errors.ErrThreadClosed, "Thread is closed")
	}
	if !canPost(actor, s.cfg) {
		return -1, permissionDenied("reply")
	}
	text, err := s.guard.Text(data.Text)
	if err != nil {
		return -1, err
	}
	if err := s.guard.Captcha(ctx, actor, captchaToken); err != nil {
		return -1, err
	}

	data.Text = text
	data.Posted = actor.Sign(s.guard.Now())
	data.DuplicateSince = s.guard.DuplicateSince()

	id, err := s.storage.CreateReply(ctx, data)
	if err != nil {
		return -1, err
	}
	s.cache.InvalidateForum(ctx, thread.ForumId)
	s.audit.Record(ctx, newEvent(domain.ActionAddReply, actor, replyTarget(id), text, data.Posted.At))
	return id, nil
}

func (s *Reply) Get(ctx context.Context, id domain.ReplyId) (domain.Reply, error) {
	return s.storage.GetReply(ctx, id)
}

func (s *Reply) Edit(ctx context.Context, actor domain.Actor, id domain.ReplyId, text domain.PostText) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	text, err := s.guard.Text(text)
	if err != nil {
		return err
	}
	reply, err := s.storage.GetReply(ctx, id)
	if err != nil {
		return err
	}
	thread, err := s.storage.GetThread(ctx, reply.ThreadId)
	if err != nil {
		return err
	}
	if !canEditPost(actor, reply.Posted.Actor, thread.IsClosed()) {
		return permissionDenied("edit this reply")
	}

	edited := actor.Sign(s.guard.Now())
	data := domain.PostEditData{Text: text, Edited: edited, RequireOpen: !canModerate(actor)}
	if err := s.storage.UpdateReply(ctx, id, data); err != nil {
		return err
	}
	s.audit.Record(ctx, newEvent(domain.ActionEditReply, actor, replyTarget(id), text, edited.At))
	return nil
}

func (s *Reply) Delete(ctx context.Context, actor domain.Actor, id domain.ReplyId) error {
	if err := writable(s.cfg); err != nil {
		return err
	}
	reply, err := s.storage.GetReply(ctx, id)
	if err != nil {
		return err
	}
	if !canDeletePost(actor, reply.Posted.Actor) {
		return permissionDenied("delete this reply")
	}
	thread, err := s.storage.GetThread(ctx, reply.ThreadId)
	if err != nil {
		return err
	}
	if err := s.storage.DeleteReply(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateForum(ctx, thread.ForumId)
	s.audit.Record(ctx, newEvent(domain.ActionDeleteReply, actor, replyTarget(id), reply.Text, s.guard.Now()))
	return nil
}

func replyTarget(id domain.ReplyId) string {
	return "reply:" + strconv.FormatInt(id, 10)
}
