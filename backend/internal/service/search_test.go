package service

import (
	"errors"
	"testing"

	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	ctx := t.Context()

	t.Run("short queries are rejected", func(t *testing.T) {
		d := newDeps()
		s := NewSearch(d.storage, d.cfg)

		for _, q := range []string{"", "a", "  ж  "} {
			_, err := s.Search(ctx, q)
			assert.True(t, errors.Is(err, internal_errors.ErrQueryTooShort), q)
		}
		assert.Equal(t, 0, d.storage.Calls("Search"))
	})

	t.Run("query is trimmed and limited", func(t *testing.T) {
		d := newDeps()
		var gotQuery string
		var gotLimit int
		d.storage.searchFunc = func(query string, limit int) ([]domain.SearchHit, error) {
			gotQuery, gotLimit = query, limit
			return []domain.SearchHit{{Kind: domain.HitThread, ThreadId: 1}}, nil
		}
		s := NewSearch(d.storage, d.cfg)

		hits, err := s.Search(ctx, "  go  ")

		require.NoError(t, err)
		assert.Len(t, hits, 1)
		assert.Equal(t, "go", gotQuery)
		assert.Equal(t, d.cfg.SearchLimit, gotLimit)
	})
}
