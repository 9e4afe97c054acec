package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/itchan-dev/forum/backend/internal/cache"
	"github.com/itchan-dev/forum/backend/internal/render"
	"github.com/itchan-dev/forum/backend/internal/service"
	internal_errors "github.com/itchan-dev/forum/shared/errors"
)

const defaultPage = 1

// HealthChecker reports whether storage is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// CaptchaIssuer hands out challenges; nil when captcha is disabled.
type CaptchaIssuer interface {
	Issue(ctx context.Context) (cache.Challenge, error)
}

type Handler struct {
	category service.CategoryService
	forum    service.ForumService
	thread   service.ThreadService
	reply    service.ReplyService
	ordering service.OrderingService
	search   service.SearchService
	captcha  CaptchaIssuer
	render   render.Renderer
	health   HealthChecker
}

// Services groups the service layer for New.
type Services struct {
	Category service.CategoryService
	Forum    service.ForumService
	Thread   service.ThreadService
	Reply    service.ReplyService
	Ordering service.OrderingService
	Search   service.SearchService
	Captcha  CaptchaIssuer
}

func New(s Services, renderer render.Renderer, health HealthChecker) *Handler {
	return &Handler{
		category: s.Category,
		forum:    s.Forum,
		thread:   s.Thread,
		reply:    s.Reply,
		ordering: s.Ordering,
		search:   s.Search,
		captcha:  s.Captcha,
		render:   renderer,
		health:   health,
	}
}

// idParam reads a positive int64 route parameter.
func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, internal_errors.ValidationFailed("invalid " + name + ": must be a positive integer")
	}
	return id, nil
}

// pageParam reads ?page=, defaulting to the first page.
func pageParam(r *http.Request) (int, error) {
	return intQuery(r, "page", defaultPage)
}

func intQuery(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, internal_errors.ValidationFailed("invalid " + name + ": must be an integer")
	}
	return val, nil
}
