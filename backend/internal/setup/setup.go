package setup

import (
	"context"

	"github.com/itchan-dev/forum/backend/internal/audit"
	"github.com/itchan-dev/forum/backend/internal/cache"
	"github.com/itchan-dev/forum/backend/internal/handler"
	"github.com/itchan-dev/forum/backend/internal/render"
	"github.com/itchan-dev/forum/backend/internal/service"
	"github.com/itchan-dev/forum/backend/internal/storage/pg"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/jwt"
	"github.com/itchan-dev/forum/shared/logger"
	mw "github.com/itchan-dev/forum/shared/middleware"
	"github.com/redis/go-redis/v9"
)

// threadPath is where the frontend serves threads; [thread#N] links point there.
const threadPath = "/thread/"

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config  *config.Config
	Storage *pg.Storage
	Redis   *redis.Client // nil when redis.addr is empty
	Handler *handler.Handler
	Auth    *mw.Auth
	Jwt     jwt.JwtService
	Locker  *service.InactiveThreadLocker
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	deps := &Dependencies{Config: cfg, Storage: storage}

	records := service.NopCache
	var captcha *cache.Captcha
	if cfg.Private.Redis.Addr != "" {
		client, err := cache.Connect(ctx, cfg.Private.Redis)
		if err != nil {
			storage.Cleanup()
			return nil, err
		}
		deps.Redis = client
		records = cache.New(client, "", cfg.Public.CacheTTL)
		captcha = cache.NewCaptcha(client, "", 0)
	} else {
		logger.Log.Warn("redis not configured, record cache disabled", "component", "setup")
	}

	public := &cfg.Public
	auditLog := audit.New(nil)
	guard := service.NewGuard(service.NewLegalTitle(), captchaVerifier(captcha), public, nil)

	category := service.NewCategory(storage, guard, records, auditLog, public)
	forum := service.NewForum(storage, guard, records, auditLog, public)
	thread := service.NewThread(storage, guard, records, auditLog, public)
	reply := service.NewReply(storage, guard, records, auditLog, public)
	ordering := service.NewOrdering(storage, records, auditLog, public, nil)
	search := service.NewSearch(storage, public)

	services := handler.Services{
		Category: category,
		Forum:    forum,
		Thread:   thread,
		Reply:    reply,
		Ordering: ordering,
		Search:   search,
	}
	if captcha != nil {
		services.Captcha = captcha
	}

	tokens := jwt.New(cfg.JwtKey(), cfg.JwtTTL())
	deps.Jwt = tokens
	deps.Auth = mw.NewAuth(tokens)
	deps.Handler = handler.New(services, render.New(threadPath), storage)
	deps.Locker = service.NewInactiveThreadLocker(storage, thread, public.AutoLock.InactiveAfter, nil)

	return deps, nil
}

// captchaVerifier keeps a nil *cache.Captcha from becoming a non-nil interface.
func captchaVerifier(c *cache.Captcha) service.CaptchaVerifier {
	if c == nil {
		return nil
	}
	return c
}

// Close releases the database pool and the redis client.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			logger.Log.Error("failed to close redis", "component", "setup", "error", err)
		}
	}
	if err := d.Storage.Cleanup(); err != nil {
		logger.Log.Error("failed to close database", "component", "setup", "error", err)
	}
}
