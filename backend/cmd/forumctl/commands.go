package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/itchan-dev/forum/backend/internal/cache"
	"github.com/itchan-dev/forum/backend/internal/setup"
	"github.com/itchan-dev/forum/backend/internal/storage/pg"
	"github.com/itchan-dev/forum/shared/config"
	"github.com/itchan-dev/forum/shared/domain"
	"github.com/itchan-dev/forum/shared/jwt"
	"github.com/itchan-dev/forum/shared/logger"
	sharedpg "github.com/itchan-dev/forum/shared/storage/pg"
	"github.com/spf13/cobra"
)

var (
	configFolder string
	cfg          *config.Config

	rootCmd = &cobra.Command{
		Use:   "forumctl",
		Short: "Operator tools for the forum backend",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg = config.MustLoad(configFolder)
			logger.Initialize(cfg.Public.Log.Level, cfg.Public.Log.Json)
		},
		SilenceUsage: true,
	}

	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE:  runMigrate,
	}

	recountCmd = &cobra.Command{
		Use:   "recount",
		Short: "Rebuild reply/thread counters and last-post pointers from the rows",
		Args:  cobra.NoArgs,
		RunE:  runRecount,
	}

	autolockCmd = &cobra.Command{
		Use:   "autolock",
		Short: "Close inactive threads once and print the result",
		Args:  cobra.NoArgs,
		RunE:  runAutolock,
	}

	tokenCmd = &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an actor",
		Args:  cobra.NoArgs,
		RunE:  runToken,
	}
	tokenActor domain.Actor
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configFolder, "config_folder", "backend/config", "path to folder with configs")

	tokenCmd.Flags().Int64Var(&tokenActor.Id, "id", 0, "actor id")
	tokenCmd.Flags().StringVar(&tokenActor.Name, "name", "", "display name")
	tokenCmd.Flags().BoolVar(&tokenActor.Caps.Moderator, "moderator", false, "grant moderator rights")
	tokenCmd.Flags().BoolVar(&tokenActor.Caps.Administrator, "admin", false, "grant administrator rights")
	tokenCmd.MarkFlagRequired("id")

	rootCmd.AddCommand(migrateCmd, recountCmd, autolockCmd, tokenCmd)
}

func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	db, err := sharedpg.Connect(cfg.Private.Pg, sharedpg.LightweightConnectionConfig())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sharedpg.Migrate(db); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}

func runRecount(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	storage, err := pg.New(cfg)
	if err != nil {
		return err
	}
	defer storage.Cleanup()

	stats, err := storage.Recount(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "threads fixed: %d\nforums fixed: %d\n", stats.ThreadsFixed, stats.ForumsFixed)
	return flushRecordCache(ctx, cfg)
}

// flushRecordCache drops cached forum rows so repaired counters are served
// right away. Without redis there is nothing to flush.
func flushRecordCache(ctx context.Context, cfg *config.Config) error {
	if cfg.Private.Redis.Addr == "" {
		return nil
	}
	client, err := cache.Connect(ctx, cfg.Private.Redis)
	if err != nil {
		return err
	}
	defer client.Close()

	cache.New(client, "", cfg.Public.CacheTTL).Flush(ctx)
	return nil
}

func runAutolock(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	if cfg.Public.AutoLock.InactiveAfter <= 0 {
		return fmt.Errorf("autolock.inactive_after is not configured")
	}

	deps, err := setup.SetupDependencies(ctx, cfg)
	if err != nil {
		return err
	}
	defer deps.Close()

	if err := deps.Locker.RunLock(ctx); err != nil {
		return err
	}
	stats := deps.Locker.GetLastLockStats()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "threads found: %d\nthreads locked: %d\n", stats.ThreadsFound, stats.ThreadsLocked)
	for _, e := range stats.Errors {
		fmt.Fprintln(out, "error:", e)
	}
	return nil
}

func runToken(cmd *cobra.Command, args []string) error {
	if tokenActor.Id <= 0 {
		return fmt.Errorf("--id must be positive")
	}
	tokenActor.Caps.Authenticated = true

	token, err := jwt.New(cfg.JwtKey(), cfg.JwtTTL()).NewToken(tokenActor)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
