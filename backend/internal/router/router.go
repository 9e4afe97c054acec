package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itchan-dev/forum/backend/internal/setup"
	"github.com/itchan-dev/forum/shared/csrf"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/itchan-dev/forum/shared/middleware/metrics"
)

// New creates and configures a new chi router with all the routes.
// IMPORTANT! a rate limiter attached with .Use limits all endpoints of that group combined
func New(deps *setup.Dependencies) *chi.Mux {
	r := chi.NewRouter()
	cfg := deps.Config.Public

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(chimw.Compress(5))

	// setup CORS for frontend
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Http.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", csrf.HeaderName},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(mw.SecurityHeaders(cfg.Http.Https))

	h := deps.Handler
	auth := deps.Auth

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(v1 chi.Router) {
		v1.Use(auth.Identify())
		v1.Use(csrf.Protect(mw.AccessCookie, cfg.Http.Https))
		v1.Use(mw.RateLimit(mw.NewRateLimiter(100, 100, time.Hour))) // 100 RPS per actor

		v1.Get("/", h.Index)
		v1.Get("/search", h.Search)
		v1.Get("/captcha", h.Captcha)

		v1.Get("/categories/{category}", h.GetCategory)
		v1.Get("/categories/by-name/{name}", h.GetCategoryByName)
		v1.Get("/forums/{forum}", h.GetForum)
		v1.Get("/forums/by-name/{name}", h.GetForumByName)
		v1.Get("/threads/recent", h.RecentThreads)
		v1.Get("/threads/by-title/{title}", h.GetThreadByTitle)
		v1.Get("/threads/{thread}", h.GetThread)
		v1.Get("/replies/{reply}", h.GetReply)

		// Anonymous posting is decided by the services from allow_anonymous.
		// CreateThread: 1 per minute per actor, CreateReply: 1 per second.
		v1.With(mw.RateLimit(mw.NewRateLimiter(1.0/60, 1, time.Hour))).Post("/forums/{forum}/threads", h.CreateThread)
		v1.With(mw.RateLimit(mw.NewRateLimiter(1, 1, time.Hour))).Post("/threads/{thread}/replies", h.CreateReply)

		// Logged-in routes; roles are checked by the services
		v1.Group(func(member chi.Router) {
			member.Use(auth.NeedAuth())

			member.Put("/threads/{thread}", h.EditThread)
			member.Delete("/threads/{thread}", h.DeleteThread)
			member.Post("/threads/{thread}/close", h.CloseThread)
			member.Post("/threads/{thread}/reopen", h.ReopenThread)
			member.Post("/threads/{thread}/sticky", h.StickThread)
			member.Post("/threads/{thread}/move", h.MoveThread)

			member.Put("/replies/{reply}", h.EditReply)
			member.Delete("/replies/{reply}", h.DeleteReply)

			member.Post("/categories", h.CreateCategory)
			member.Post("/categories/normalize", h.NormalizeCategories)
			member.Put("/categories/{category}", h.EditCategory)
			member.Delete("/categories/{category}", h.DeleteCategory)
			member.Post("/categories/{category}/sort", h.SortCategory)
			member.Post("/categories/{category}/forums/normalize", h.NormalizeForums)

			member.Post("/forums", h.CreateForum)
			member.Put("/forums/{forum}", h.EditForum)
			member.Delete("/forums/{forum}", h.DeleteForum)
			member.Post("/forums/{forum}/sort", h.SortForum)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return r
}
