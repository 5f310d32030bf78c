package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/backtest"
	"github.com/atrade-lab/tmonitor/internal/logger"
)

// BacktestResult is the outcome of one symbol's replay.
type BacktestResult struct {
	Symbol string
	Report *backtest.Report
	Err    error
}

// RunBacktests replays the range for every symbol in order. A symbol
// whose monitor cannot be built or whose replay fails is recorded with
// its error and the remaining symbols still run; only cancellation cuts
// the sweep short.
func RunBacktests(ctx context.Context, factory Factory, history HistorySource, symbols []string, start, end time.Time, log *logger.Logger) []BacktestResult {
	results := make([]BacktestResult, 0, len(symbols))

	for _, symbol := range symbols {
		if ctx.Err() != nil {
			results = append(results, BacktestResult{Symbol: symbol, Err: ctx.Err()})

			continue
		}

		mon, err := factory(symbol)
		if err != nil {
			if log != nil {
				log.Error("failed to build backtest monitor", zap.String("symbol", symbol), zap.Error(err))
			}

			results = append(results, BacktestResult{Symbol: symbol, Err: err})

			continue
		}

		report, err := mon.RunBacktest(ctx, history, start, end)
		if err != nil {
			if log != nil {
				log.Error("backtest failed, continuing with remaining symbols",
					zap.String("symbol", symbol),
					zap.Error(err))
			}

			results = append(results, BacktestResult{Symbol: symbol, Err: err})

			continue
		}

		results = append(results, BacktestResult{Symbol: symbol, Report: report})
	}

	return results
}
