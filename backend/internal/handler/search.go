package handler

import (
	"net/http"

	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/utils"
)

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	hits, err := h.search.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	response := api.SearchResponse{Hits: make([]api.SearchHitResponse, len(hits))}
	for i, hit := range hits {
		response.Hits[i] = api.NewSearchHit(hit)
	}
	utils.WriteJSON(w, http.StatusOK, response)
}
