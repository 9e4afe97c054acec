package service

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

const minQueryRunes = 2

// to mock service in tests
type SearchService interface {
	Search(ctx context.Context, query string) ([]domain.SearchHit, error)
}

type SearchStorage interface {
	Search(ctx context.Context, query string, limit int) ([]domain.SearchHit, error)
}

type Search struct {
	storage SearchStorage
	cfg     *config.Public
}

func NewSearch(storage SearchStorage, cfg *config.Public) *Search {
	return &Search{storage: storage, cfg: cfg}
}

// Search is a case-insensitive substring match over thread titles, thread
// bodies and reply bodies, newest first.
func (s *Search) Search(ctx context.Context, query string) ([]domain.SearchHit, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryRunes {
		return nil, internal_errors.New(internal_errors.ErrQueryTooShort, "Search query must be at least 2 characters")
	}
	return s.storage.Search(ctx, query, s.cfg.SearchLimit)
}
