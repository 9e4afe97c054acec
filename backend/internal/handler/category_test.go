package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/itchan-dev/forum/backend/internal/ordering"
	"github.com/itchan-dev/forum/shared/api"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex(t *testing.T) {
	// Arrange
	h, s := newTestHandler()
	s.category.MockList = func(ctx context.Context) ([]domain.CategoryWithForums, error) {
		return []domain.CategoryWithForums{
			{Category: domain.Category{Id: 1, Name: "General"}, Forums: []domain.Forum{{Id: 3, CategoryId: 1, Name: "Intro"}}},
			{Category: domain.Category{Id: 2, Name: "Off-topic"}},
		}, nil
	}

	// Act
	rr := serve(t, testMember, "/", http.MethodGet, "/", nil, h.Index)

	// Assert
	require.Equal(t, http.StatusOK, rr.Code)
	index := decodeBody[api.IndexResponse](t, rr)
	require.Len(t, index.Categories, 2)
	assert.Equal(t, "Intro", index.Categories[0].Forums[0].Name)
	assert.NotNil(t, index.Categories[1].Forums)
}

func TestCreateCategory(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		h, s := newTestHandler()
		var gotActor domain.Actor
		var gotData domain.CategoryCreationData
		s.category.MockCreate = func(ctx context.Context, actor domain.Actor, data domain.CategoryCreationData) (domain.CategoryId, error) {
			gotActor, gotData = actor, data
			return 7, nil
		}

		rr := serve(t, testAdmin, "/categories", http.MethodPost, "/categories", api.CreateCategoryRequest{Name: "General"}, h.CreateCategory)

		require.Equal(t, http.StatusCreated, rr.Code)
		assert.Equal(t, int64(7), decodeBody[api.CreatedResponse](t, rr).Id)
		assert.Equal(t, testAdmin, gotActor)
		assert.Equal(t, "General", gotData.Name)
	})

	t.Run("missing name", func(t *testing.T) {
		h, _ := newTestHandler()

		rr := serve(t, testAdmin, "/categories", http.MethodPost, "/categories", map[string]string{}, h.CreateCategory)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		h, _ := newTestHandler()

		rr := serve(t, testAdmin, "/categories", http.MethodPost, "/categories", "{", h.CreateCategory)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "Body is invalid json")
	})

	t.Run("permission denied", func(t *testing.T) {
		h, s := newTestHandler()
		s.category.MockCreate = func(context.Context, domain.Actor, domain.CategoryCreationData) (domain.CategoryId, error) {
			return -1, internal_errors.PermissionDenied("Only administrators may do that")
		}

		rr := serve(t, testMember, "/categories", http.MethodPost, "/categories", api.CreateCategoryRequest{Name: "General"}, h.CreateCategory)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("duplicate", func(t *testing.T) {
		h, s := newTestHandler()
		s.category.MockCreate = func(context.Context, domain.Actor, domain.CategoryCreationData) (domain.CategoryId, error) {
			return -1, internal_errors.ConstraintViolation("Category already exists")
		}

		rr := serve(t, testAdmin, "/categories", http.MethodPost, "/categories", api.CreateCategoryRequest{Name: "General"}, h.CreateCategory)

		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestGetCategory(t *testing.T) {
	t.Run("by id", func(t *testing.T) {
		h, _ := newTestHandler()

		rr := serve(t, testMember, "/categories/{category}", http.MethodGet, "/categories/5", nil, h.GetCategory)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, int64(5), decodeBody[api.CategoryResponse](t, rr).Id)
	})

	t.Run("invalid id", func(t *testing.T) {
		h, _ := newTestHandler()

		for _, id := range []string{"abc", "0", "-3"} {
			rr := serve(t, testMember, "/categories/{category}", http.MethodGet, "/categories/"+id, nil, h.GetCategory)
			assert.Equal(t, http.StatusBadRequest, rr.Code, id)
		}
	})

	t.Run("not found", func(t *testing.T) {
		h, s := newTestHandler()
		s.category.MockGet = func(context.Context, domain.CategoryId) (domain.CategoryWithForums, error) {
			return domain.CategoryWithForums{}, internal_errors.NotFound("Category not found")
		}

		rr := serve(t, testMember, "/categories/{category}", http.MethodGet, "/categories/5", nil, h.GetCategory)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("by name", func(t *testing.T) {
		h, _ := newTestHandler()

		rr := serve(t, testMember, "/categories/by-name/{name}", http.MethodGet, "/categories/by-name/General", nil, h.GetCategoryByName)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "General", decodeBody[api.CategoryResponse](t, rr).Name)
	})

	t.Run("storage failure is hidden", func(t *testing.T) {
		h, s := newTestHandler()
		s.category.MockGet = func(context.Context, domain.CategoryId) (domain.CategoryWithForums, error) {
			return domain.CategoryWithForums{}, errors.New("pq: connection reset")
		}

		rr := serve(t, testMember, "/categories/{category}", http.MethodGet, "/categories/5", nil, h.GetCategory)

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
		assert.NotContains(t, rr.Body.String(), "pq")
	})
}

func TestEditDeleteCategory(t *testing.T) {
	t.Run("edit", func(t *testing.T) {
		h, s := newTestHandler()
		var gotId domain.CategoryId
		var gotName string
		s.category.MockEdit = func(_ context.Context, _ domain.Actor, id domain.CategoryId, name domain.CategoryName) error {
			gotId, gotName = id, name
			return nil
		}

		rr := serve(t, testAdmin, "/categories/{category}", http.MethodPut, "/categories/3", api.EditCategoryRequest{Name: "Renamed"}, h.EditCategory)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, domain.CategoryId(3), gotId)
		assert.Equal(t, "Renamed", gotName)
	})

	t.Run("delete", func(t *testing.T) {
		h, s := newTestHandler()
		var gotId domain.CategoryId
		s.category.MockDelete = func(_ context.Context, _ domain.Actor, id domain.CategoryId) error {
			gotId = id
			return nil
		}

		rr := serve(t, testAdmin, "/categories/{category}", http.MethodDelete, "/categories/3", nil, h.DeleteCategory)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Equal(t, domain.CategoryId(3), gotId)
	})
}

func TestSortCategory(t *testing.T) {
	t.Run("direction is parsed", func(t *testing.T) {
		for dirName, want := range map[string]ordering.Direction{"up": ordering.Up, "down": ordering.Down} {
			h, s := newTestHandler()
			var got ordering.Direction
			s.ordering.MockMoveCategory = func(_ context.Context, _ domain.Actor, id domain.CategoryId, dir ordering.Direction) error {
				assert.Equal(t, domain.CategoryId(2), id)
				got = dir
				return nil
			}

			rr := serve(t, testAdmin, "/categories/{category}/sort", http.MethodPost, "/categories/2/sort", api.SortRequest{Direction: dirName}, h.SortCategory)

			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Equal(t, want, got)
		}
	})

	t.Run("unknown direction", func(t *testing.T) {
		h, s := newTestHandler()
		s.ordering.MockMoveCategory = func(context.Context, domain.Actor, domain.CategoryId, ordering.Direction) error {
			t.Fatal("service must not be called")
			return nil
		}

		rr := serve(t, testAdmin, "/categories/{category}/sort", http.MethodPost, "/categories/2/sort", api.SortRequest{Direction: "sideways"}, h.SortCategory)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("normalize", func(t *testing.T) {
		h, s := newTestHandler()
		called := false
		s.ordering.MockNormalizeCategories = func(_ context.Context, actor domain.Actor) error {
			called = true
			assert.Equal(t, testAdmin, actor)
			return nil
		}

		rr := serve(t, testAdmin, "/categories/normalize", http.MethodPost, "/categories/normalize", nil, h.NormalizeCategories)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.True(t, called)
	})
}
