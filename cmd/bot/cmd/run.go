package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"capital-trading-bot/internal/broker/brokerobs"
	"capital-trading-bot/internal/broker/capital"
	"capital-trading-bot/internal/engine"
	"capital-trading-bot/internal/engine/engineobs"
	"capital-trading-bot/internal/interfaces"
	"capital-trading-bot/internal/logger"
	"capital-trading-bot/internal/monitoring"
	"capital-trading-bot/internal/news"
	"capital-trading-bot/internal/server"
	"capital-trading-bot/internal/signal/noop"
	"capital-trading-bot/internal/signal/rule"
	"capital-trading-bot/internal/signal/signalobs"
	"capital-trading-bot/internal/store"
	"capital-trading-bot/internal/trace"
	"capital-trading-bot/internal/tradelog"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the trading bot",
	Long: `Start the polling loop: every poll interval the bot runs one cycle per
configured symbol, opening positions on fresh signals and ratcheting stops on
open ones.

Example:
  bot run --config config.yaml`,
	RunE: runRun,
}

var runConfigPath string

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "config.yaml", "path to config file (YAML)")
}

// initializeSystem loads .env and initializes logger and tracer.
func initializeSystem() error {
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}
	return nil
}

// compressOldLogs compresses old tradelog files if retention is configured.
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRADER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := tradelog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeBroker builds the Capital.com gateway with observability.
func initializeBroker(ctx context.Context, cfg *store.Config) interfaces.Broker {
	brk := capital.New(capital.Params{
		Mode:   cfg.Mode,
		APIKey: os.Getenv("CAPITAL_API_KEY"),
		Demo:   cfg.Broker.Demo,
	})

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - orders will be simulated")
	} else if cfg.Broker.Demo {
		logger.Info(ctx, "Using Capital.com demo account")
	}

	return brokerobs.Wrap(brk)
}

// initializeSignal builds the signal source with observability.
func initializeSignal(ctx context.Context, cfg *store.Config) interfaces.SignalSource {
	if cfg.Signal.Provider != "RULE" {
		logger.Warn(ctx, "No signal provider configured - using Noop source (never trades)")
		return signalobs.Wrap(noop.New())
	}

	src := rule.New(cfg.Signal.ShortSMA, cfg.Signal.LongSMA)
	if cfg.Signal.News.Enabled {
		svc := news.NewService(news.ServiceConfig{
			MaxHeadlines:  cfg.Signal.News.MaxHeadlines,
			CacheDuration: time.Duration(cfg.Signal.News.CacheMinutes) * time.Minute,
			ScrapeTimeout: 20 * time.Second,
		})
		src = src.WithNewsFilter(svc, cfg.Signal.News.VetoScore)
		logger.Info(ctx, "News sentiment veto enabled", "veto_score", cfg.Signal.News.VetoScore)
	}
	return signalobs.Wrap(src)
}

func runRun(cmd *cobra.Command, args []string) error {
	if err := initializeSystem(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := store.LoadConfig(runConfigPath)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return err
	}

	compressOldLogs(ctx)

	brk := initializeBroker(ctx, cfg)
	sig := initializeSignal(ctx, cfg)
	eng := engineobs.Wrap(engine.New(cfg, brk, sig))

	health := monitoring.NewHealthChecker()
	var srv *server.Server
	if cfg.Server.Enabled {
		srv = server.New(cfg.Server.Addr, eng, health)
		go func() {
			if err := srv.Start(); err != nil {
				logger.ErrorWithErr(ctx, "Admin API failed", err)
			}
		}()
	}

	if err := eng.Start(ctx, cfg.Symbols); err != nil {
		return err
	}
	health.NoteRunning(true)

	tick := time.NewTicker(time.Duration(cfg.PollSeconds) * time.Second)
	defer tick.Stop()

	logger.Info(ctx, "Bot started",
		"mode", cfg.Mode,
		"symbols", cfg.Symbols,
		"poll_seconds", cfg.PollSeconds,
	)

	for {
		select {
		case <-tick.C:
			// Engine internals only run while the admin API has not stopped it.
			if !eng.Running() {
				continue
			}
			eng.RunCycle(ctx)
			health.NoteCycle()
		case <-ctx.Done():
			logger.Info(context.Background(), "Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			eng.Stop(shutdownCtx)
			health.NoteRunning(false)
			if srv != nil {
				_ = srv.Shutdown(shutdownCtx)
			}
			_ = trace.Shutdown(shutdownCtx)
			return nil
		}
	}
}
