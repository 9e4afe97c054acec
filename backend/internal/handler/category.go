package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/utils"
)

// Index lists every category with its forums.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	categories, err := h.category.List(r.Context())
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	response := api.IndexResponse{Categories: make([]api.CategoryResponse, len(categories))}
	for i, c := range categories {
		response.Categories[i] = api.NewCategory(c)
	}
	utils.WriteJSON(w, http.StatusOK, response)
}

func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var body api.CreateCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	id, err := h.category.Create(r.Context(), mw.GetActorFromContext(r), domain.CategoryCreationData{Name: body.Name})
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, api.CreatedResponse{Id: id})
}

func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "category")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	category, err := h.category.Get(r.Context(), id)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewCategory(category))
}

func (h *Handler) GetCategoryByName(w http.ResponseWriter, r *http.Request) {
	category, err := h.category.GetByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, api.NewCategory(category))
}

func (h *Handler) EditCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "category")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	var body api.EditCategoryRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}

	if err := h.category.Edit(r.Context(), mw.GetActorFromContext(r), id, body.Name); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "category")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.category.Delete(r.Context(), mw.GetActorFromContext(r), id); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) SortCategory(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "category")
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	dir, err := decodeDirection(r)
	if err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	if err := h.ordering.MoveCategory(r.Context(), mw.GetActorFromContext(r), id, dir); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) NormalizeCategories(w http.ResponseWriter, r *http.Request) {
	if err := h.ordering.NormalizeCategories(r.Context(), mw.GetActorFromContext(r)); err != nil {
		utils.WriteErrorAndStatusCode(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeDirection(r *http.Request) (ordering.Direction, error) {
	var body api.SortRequest
	if err := utils.DecodeValidate(r.Body, &body); err != nil {
		return ordering.Up, err
	}
	if body.Direction == "down" {
		return ordering.Down, nil
	}
	return ordering.Up, nil
}
