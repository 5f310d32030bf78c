package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/atrade-lab/tmonitor/internal/config"
	"github.com/atrade-lab/tmonitor/internal/generator"
	"github.com/atrade-lab/tmonitor/internal/indicator"
	"github.com/atrade-lab/tmonitor/internal/logger"
	"github.com/atrade-lab/tmonitor/internal/metrics"
	"github.com/atrade-lab/tmonitor/internal/monitor"
	"github.com/atrade-lab/tmonitor/internal/notify"
	"github.com/atrade-lab/tmonitor/internal/position"
	"github.com/atrade-lab/tmonitor/internal/watchlist"
	"github.com/atrade-lab/tmonitor/pkg/quote"
)

// monitorAction wires the watchlist watcher, the quote client and the
// supervisor together and runs until interrupted.
func monitorAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	appLogger, err := logger.NewLoggerWithLevel(level)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer appLogger.Sync() //nolint:errcheck

	client, err := quote.NewClient(cfg.QuoteHosts(), appLogger,
		quote.WithRequestTimeout(cfg.Quote.RequestTimeout.Std()))
	if err != nil {
		return fmt.Errorf("failed to create quote client: %w", err)
	}
	defer client.Close() //nolint:errcheck

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify.WebhookURL)
	}

	m := metrics.New()

	factory := func(symbol string) (*monitor.SymbolMonitor, error) {
		engine, err := indicator.NewEngine(cfg.IndicatorParams())
		if err != nil {
			return nil, err
		}

		pos := position.NewManager(cfg.Position.TotalShares)

		gen, err := generator.New(symbol, cfg.GeneratorConfig(), cfg.IndicatorParams().RSIPeriod, pos, appLogger)
		if err != nil {
			return nil, err
		}

		return monitor.NewSymbolMonitor(symbol, cfg.MonitorConfig(), client, engine, gen, notifier, m, appLogger)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.ListenAddr != "" {
		go serveMetrics(runCtx, cfg.Metrics.ListenAddr, m, appLogger)
	}

	watcher := watchlist.NewWatcher(cfg.Watchlist.Path, cfg.Watchlist.Interval.Std(), appLogger)
	go watcher.Run(runCtx)

	appLogger.Info("monitor service started",
		zap.String("watchlist", cfg.Watchlist.Path),
		zap.Int("quote_hosts", len(cfg.Quote.Hosts)))

	sup := monitor.NewSupervisor(factory, m, appLogger)
	sup.Run(runCtx, watcher.Events())

	appLogger.Info("monitor service stopped")

	return nil
}

// loadConfig reads the config file when one is given and falls back to
// defaults otherwise. Flag overrides apply on top.
func loadConfig(cmd *cli.Command) (config.Config, error) {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Config{}, err
		}

		cfg = loaded
	}

	if path := cmd.String("watchlist"); path != "" {
		cfg.Watchlist.Path = path
	}

	if addr := cmd.String("metrics-addr"); addr != "" {
		cfg.Metrics.ListenAddr = addr
	}

	return cfg, cfg.Validate()
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, log *logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		server.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	log.Info("metrics listener started", zap.String("addr", addr))

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("metrics listener failed", zap.Error(err))
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "tmonitor",
		Usage: "Monitor watchlisted symbols and emit scored trade signals",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
			&cli.StringFlag{
				Name:    "watchlist",
				Aliases: []string{"w"},
				Usage:   "Path to the watchlist file (overrides config)",
			},
			&cli.StringFlag{
				Name:  "metrics-addr",
				Usage: "Listen address for the Prometheus endpoint (overrides config)",
			},
		},
		Action: monitorAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
