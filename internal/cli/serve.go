package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/viewrace/internal/config"
	"github.com/wesleyorama2/viewrace/internal/logging"
	"github.com/wesleyorama2/viewrace/internal/server"
	"github.com/wesleyorama2/viewrace/internal/viewcount"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the view-count endpoint under a chosen strategy",
	Long: `Serve POST /api/view/increment/{postID} backed by Redis and PostgreSQL.

The strategy decides how the cached and stored counts are updated; see
"viewrace strategies" for the list. Settings come from flags, then
VIEWRACE_* environment variables, then the --config YAML file, then defaults.

Examples:
  viewrace serve --strategy cache-aside
  viewrace serve --config viewrace.yaml --strategy cas
  VIEWRACE_REDIS_ADDR=cache:6379 viewrace serve`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd, args)
	},
}

// runServe wires the store, strategy and HTTP server and blocks until interrupted
func runServe(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadServeConfig(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log.Mode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := viewcount.OpenCache(ctx, &redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}

	db, err := viewcount.OpenDatabase(ctx, cfg.Database.DSN)
	if err != nil {
		cache.Close()
		return err
	}

	store := viewcount.NewStore(cache, db)
	defer store.Close()

	if cfg.Database.Migrate {
		if err := store.EnsurePost(ctx, cfg.PostID); err != nil {
			return err
		}
	}

	strategy, err := viewcount.New(cfg.Strategy, store, viewcount.Options{
		PostID: cfg.PostID,
		Delay:  cfg.Delay,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	if err := strategy.Prepare(ctx); err != nil {
		return fmt.Errorf("failed to prepare cache: %w", err)
	}
	logger.Info("cache prepared",
		zap.String("strategy", strategy.Name()),
		zap.String("key", viewcount.CacheKey(cfg.PostID)),
		zap.Duration("delay", cfg.Delay))

	srv := server.New(strategy, server.Options{
		PostID: cfg.PostID,
		Logger: logger,
	})
	return srv.ListenAndServe(ctx, cfg.Listen)
}

func init() {
	serveCmd.Flags().StringP("config", "c", "", "YAML config file")
	serveCmd.Flags().String("listen", ":5000", "Address to listen on")
	serveCmd.Flags().StringP("strategy", "s", "cache-aside", "Update strategy")
	serveCmd.Flags().Int64("post-id", 1, "Post id the server accepts")
	serveCmd.Flags().Duration("delay", viewcount.DefaultDelay, "Pause inside the race window")
	serveCmd.Flags().String("redis", "127.0.0.1:6379", "Redis address")
	serveCmd.Flags().String("dsn", "", "PostgreSQL connection string")
	serveCmd.Flags().String("log-mode", "production", "Log mode (production, development)")
}
