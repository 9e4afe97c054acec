package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/itchan-dev/forum/backend/internal/router"
	"github.com/itchan-dev/forum/backend/internal/setup"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/logger"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func main() {
	var configFolder string
	flag.StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")
	flag.Parse()

	cfg := config.MustLoad(configFolder)
	logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.Json)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		logger.Log.Error("failed to setup dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	if cfg.Public.ReadOnly {
		logger.Log.Warn("board is in read-only mode")
	}
	deps.Locker.StartBackgroundLocking(ctx, cfg.Public.AutoLock.Interval)

	server := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Public.Http.Port),
		Handler:           router.New(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info("server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
