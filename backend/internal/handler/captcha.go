package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) Captcha(w http.ResponseWriter, r *http.Request) {
	if h.captcha == nil {
		http.Error(w, "Captcha is disabled", http.StatusNotFound)
		return
	}
	challenge, err := h.captcha.Issue(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.CaptchaResponse{Id: challenge.Id, Question: challenge.Question})
}
