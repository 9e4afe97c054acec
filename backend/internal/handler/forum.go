package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) CreateForum(w http.ResponseWriter, r *http.Request) {
	var body api.CreateForumRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.forum.Create(r.Context(), mw.GetActorFromContext(r), domain.ForumCreationData{
		CategoryId:     body.CategoryId,
		Name:           body.Name,
		Description:    body.Description,
		IsAnnouncement: body.IsAnnouncement,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

// threadSort reads ?sort=last|replies|views|title and ?order=asc|desc.
func threadSort(r *http.Request) domain.ThreadSort {
	q := r.URL.Query()
	if q.Get("sort") == "" && q.Get("order") == "" {
		return domain.DefaultThreadSort
	}
	return domain.ThreadSort{
		Column: domain.ParseThreadSortColumn(q.Get("sort")),
		Desc:   q.Get("order") != "asc",
	}
}

func (h *Handler) GetForum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "forum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	page, err := pageParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	forum, err := h.forum.Get(r.Context(), id, page, threadSort(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, forumPage(forum))
}

func (h *Handler) GetForumByName(w http.ResponseWriter, r *http.Request) {
	page, err := pageParam(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	forum, err := h.forum.GetByName(r.Context(), chi.URLParam(r, "name"), page, threadSort(r))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, forumPage(forum))
}

func forumPage(f domain.ForumWithThreads) api.ForumPageResponse {
	threads := make([]api.ThreadSummaryResponse, len(f.Threads))
	for i, t := range f.Threads {
		threads[i] = api.NewThreadSummary(t)
	}
	return api.ForumPageResponse{ForumResponse: api.NewForum(f.Forum), Threads: threads, Page: api.NewPage(f.Page)}
}

func (h *Handler) EditForum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "forum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EditForumRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	err = h.forum.Edit(r.Context(), mw.GetActorFromContext(r), id, domain.ForumEditData{
		Name:           body.Name,
		Description:    body.Description,
		IsAnnouncement: body.IsAnnouncement,
	})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteForum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "forum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.forum.Delete(r.Context(), mw.GetActorFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SortForum(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "forum")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	dir, err := decodeDirection(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.ordering.MoveForum(r.Context(), mw.GetActorFromContext(r), id, dir); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) NormalizeForums(w http.ResponseWriter, r *http.Request) {
	categoryId, err := idParam(r, "category")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.ordering.NormalizeForums(r.Context(), mw.GetActorFromContext(r), categoryId); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
