package main

import (
	"context"
	"fmt"
	"log"
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
	"github.com/atrade-lab/tmonitor/internal/monitor"
	"github.com/atrade-lab/tmonitor/internal/position"
	"github.com/atrade-lab/tmonitor/pkg/quote"
)

// backtestAction replays a historical range for every requested symbol
// and writes one signal report per symbol as YAML. A failing symbol is
// logged and the remaining symbols still run.
func backtestAction(ctx context.Context, cmd *cli.Command) error {
	cfg := config.Default()

	if path := cmd.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}

		cfg = loaded
	}

	if mode := cmd.String("mode"); mode != "" {
		cfg.Generator.Mode = mode
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	symbols := cmd.StringSlice("symbol")
	start := cmd.Timestamp("start")
	end := cmd.Timestamp("end")
	outDir := cmd.String("out")

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

		return monitor.NewSymbolMonitor(symbol, cfg.MonitorConfig(), client, engine, gen, nil, nil, appLogger)
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	appLogger.Info("backtest started",
		zap.Strings("symbols", symbols),
		zap.String("mode", cfg.Generator.Mode),
		zap.Time("start", start),
		zap.Time("end", end))

	results := monitor.RunBacktests(runCtx, factory, client, symbols, start, end, appLogger)

	failed := 0

	for _, res := range results {
		if res.Err != nil {
			failed++

			continue
		}

		path, err := res.Report.WriteFile(outDir)
		if err != nil {
			appLogger.Error("failed to write backtest report",
				zap.String("symbol", res.Symbol),
				zap.Error(err))

			failed++

			continue
		}

		appLogger.Info("backtest report written",
			zap.String("symbol", res.Symbol),
			zap.String("path", path),
			zap.Int("signals", len(res.Report.Signals)))
	}

	if failed == len(results) {
		return fmt.Errorf("all %d backtests failed", failed)
	}

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "tmonitor-backtest",
		Usage: "Replay historical bars through the signal generator",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
			},
			&cli.StringSliceFlag{
				Name:     "symbol",
				Aliases:  []string{"s"},
				Usage:    "Symbol code to replay; repeat for multiple symbols",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:     "start",
				Usage:    "Range start in `YYYY-MM-DD` format",
				Required: true,
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "Range end in `YYYY-MM-DD` format. Defaults to today.",
				Value: time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Trade mode: left, right or hybrid (overrides config)",
			},
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Directory for the report file",
				Value:   "reports",
			},
		},
		Action: backtestAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
