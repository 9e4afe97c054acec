package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) CreateReply(w http.ResponseWriter, r *http.Request) {
	threadId, err := idParam(r, "thread")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.CreateReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.reply.Create(r.Context(), mw.GetActorFromContext(r), domain.ReplyCreationData{
		ThreadId: threadId,
		Text:     body.Text,
	}, body.Captcha)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetReply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reply")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	reply, err := h.reply.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewPost(reply.Id, reply.Text, h.render.Render(reply.Text), reply.Posted, reply.Edited))
}

func (h *Handler) EditReply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reply")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EditReplyRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.reply.Edit(r.Context(), mw.GetActorFromContext(r), id, body.Text); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteReply(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "reply")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.reply.Delete(r.Context(), mw.GetActorFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
