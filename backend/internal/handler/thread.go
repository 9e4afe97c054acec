package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/utils"
)

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

func (h *Handler) CreateThread(w http.ResponseWriter, r *http.Request) {
	forumId, err := idParam(r, "forum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.CreateThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.thread.Create(r.Context(), mw.GetActorFromContext(r), domain.ThreadCreationData{
		ForumId: forumId,
		Title:   body.Title,
		Text:    body.Text,
	}, body.Captcha)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	thread, err := h.thread.View(r.Context(), id, page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.threadPage(thread))
}

func (h *Handler) GetThreadByTitle(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	thread, err := h.thread.ViewByTitle(r.Context(), chi.URLParam(r, "title"), page)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, h.threadPage(thread))
}

func (h *Handler) threadPage(t domain.ThreadWithReplies) api.ThreadPageResponse {
	replies := make([]api.PostResponse, len(t.Replies))
	for i, reply := range t.Replies {
		replies[i] = api.NewPost(reply.Id, reply.Text, h.render.Render(reply.Text), reply.Posted, reply.Edited)
	}
	return api.ThreadPageResponse{
		ThreadSummaryResponse: api.NewThreadSummary(t.Thread),
		Post:                  api.NewPost(t.Id, t.Text, h.render.Render(t.Text), t.Posted, t.Edited),
		ClosedAt:              t.ClosedAt,
		ClosedBy:              t.ClosedBy,
		Replies:               replies,
		Page:                  api.NewPage(t.Page),
	}
}

// RecentThreads lists threads with the newest activity across all forums.
func (h *Handler) RecentThreads(w http.ResponseWriter, r *http.Request) {
	limit, err := intQuery(r, "limit", defaultRecentLimit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	limit = min(max(limit, 1), maxRecentLimit)

	threads, err := h.thread.Recent(r.Context(), limit)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	response := api.ThreadListResponse{Threads: make([]api.ThreadSummaryResponse, len(threads))}
	for i, t := range threads {
		response.Threads[i] = api.NewThreadSummary(t)
	}
	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) EditThread(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EditThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.thread.Edit(r.Context(), mw.GetActorFromContext(r), id, domain.PostEditData{Title: body.Title, Text: body.Text})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteThread(w http.ResponseWriter, r *http.Request) {
	h.threadAction(w, r, h.thread.Delete)
}

func (h *Handler) CloseThread(w http.ResponseWriter, r *http.Request) {
	h.threadAction(w, r, h.thread.Close)
}

func (h *Handler) ReopenThread(w http.ResponseWriter, r *http.Request) {
	h.threadAction(w, r, h.thread.Reopen)
}

func (h *Handler) StickThread(w http.ResponseWriter, r *http.Request) {
	var body api.StickyRequest
	if err := utils.Decode(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.threadAction(w, r, func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
		return h.thread.SetSticky(ctx, actor, id, body.Sticky)
	})
}

func (h *Handler) MoveThread(w http.ResponseWriter, r *http.Request) {
	var body api.MoveThreadRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	h.threadAction(w, r, func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error {
		return h.thread.Move(ctx, actor, id, body.ForumId)
	})
}

type threadActionFunc func(ctx context.Context, actor domain.Actor, id domain.ThreadId) error

func (h *Handler) threadAction(w http.ResponseWriter, r *http.Request, action threadActionFunc) {
	id, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := action(r.Context(), mw.GetActorFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
