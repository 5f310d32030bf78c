// Package monitor drives signal generation per symbol and supervises the
// per-symbol workers against the watchlist.
package monitor

import (
	"context"
	"sync"
	"time"

	validator "github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/backtest"
	"github.com/atrade-lab/tmonitor/internal/generator"
	"github.com/atrade-lab/tmonitor/internal/indicator"
	"github.com/atrade-lab/tmonitor/internal/logger"
	"github.com/atrade-lab/tmonitor/internal/metrics"
	"github.com/atrade-lab/tmonitor/internal/notify"
	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
	"github.com/atrade-lab/tmonitor/pkg/quote"
)

// BarSource supplies the latest bar window for a symbol.
type BarSource interface {
	GetBars(ctx context.Context, symbol string, category quote.KlineCategory, count int) ([]types.Bar, error)
}

// HistorySource supplies a bounded historical bar range for backtests.
type HistorySource interface {
	GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error)
}

// Config tunes the live poll loop.
type Config struct {
	// PollInterval is the sleep between live poll cycles.
	PollInterval time.Duration `yaml:"poll_interval" validate:"required,gt=0"`
	// BarCount is the window size fetched each cycle.
	BarCount int `yaml:"bar_count" validate:"required,gt=0"`
	// Category selects the bar interval.
	Category quote.KlineCategory `yaml:"category"`
	// ErrorBackoff is the extra sleep after a failed cycle.
	ErrorBackoff time.Duration `yaml:"error_backoff" validate:"gte=0"`
	// HealthLogEvery emits a liveness log line every N cycles; zero
	// disables it.
	HealthLogEvery int `yaml:"health_log_every" validate:"gte=0"`
}

// DefaultConfig returns the standard live loop settings: 1 minute bars
// polled every 30 seconds.
func DefaultConfig() Config {
	return Config{
		PollInterval:   30 * time.Second,
		BarCount:       120,
		Category:       quote.Kline1Min,
		ErrorBackoff:   5 * time.Second,
		HealthLogEvery: 10,
	}
}

// Validate validates the config using the validator tags.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid monitor config", err)
	}

	return nil
}

// SymbolMonitor owns one symbol's generator and dedup memory and drives
// either the live poll loop or a backtest replay.
type SymbolMonitor struct {
	symbol   string
	cfg      Config
	source   BarSource
	engine   *indicator.Engine
	gen      *generator.Generator
	notifier notify.Notifier
	metrics  *metrics.Metrics
	logger   *logger.Logger

	startedAt   time.Time
	lastBarTime time.Time
	lastClose   float64
	seen        map[string]struct{}
	cycles      int

	mu      sync.Mutex
	signals []types.Signal
}

// NewSymbolMonitor wires a monitor for one symbol. The notifier may be
// nil to disable alerting.
func NewSymbolMonitor(symbol string, cfg Config, source BarSource, engine *indicator.Engine, gen *generator.Generator, notifier notify.Notifier, m *metrics.Metrics, log *logger.Logger) (*SymbolMonitor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if notifier == nil {
		notifier = notify.NopNotifier{}
	}

	return &SymbolMonitor{
		symbol:      symbol,
		cfg:         cfg,
		source:      source,
		engine:      engine,
		gen:         gen,
		notifier:    notifier,
		metrics:     m,
		logger:      log,
		startedAt:   time.Time{},
		lastBarTime: time.Time{},
		seen:        make(map[string]struct{}),
		cycles:      0,
		signals:     nil,
	}, nil
}

// Symbol returns the monitored symbol code.
func (m *SymbolMonitor) Symbol() string {
	return m.symbol
}

// Signals returns a copy of the accumulated signal log.
func (m *SymbolMonitor) Signals() []types.Signal {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]types.Signal, len(m.signals))
	copy(out, m.signals)

	return out
}

// Run polls until ctx is cancelled. Failed cycles are logged and
// retried after a backoff; they never end the loop.
func (m *SymbolMonitor) Run(ctx context.Context) {
	m.startedAt = time.Now()

	m.info("monitor started", zap.String("mode", string(m.gen.Mode())))

	for {
		wait := m.cfg.PollInterval

		if err := m.pollOnce(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}

			m.countCycle("error")
			m.warn("poll cycle failed", zap.Error(err))

			wait += m.cfg.ErrorBackoff
		} else {
			m.countCycle("ok")
		}

		m.cycles++
		m.maybeLogHealth()

		select {
		case <-ctx.Done():
			m.info("monitor stopped")

			return
		case <-time.After(wait):
		}
	}

	m.info("monitor stopped")
}

// pollOnce fetches the latest window and evaluates the newest bar once.
func (m *SymbolMonitor) pollOnce(ctx context.Context) error {
	bars, err := m.source.GetBars(ctx, m.symbol, m.cfg.Category, m.cfg.BarCount)
	if err != nil {
		return err
	}

	if len(bars) < m.engine.Params().MinBars() {
		m.debug("not enough bars yet", zap.Int("have", len(bars)))

		return nil
	}

	last := len(bars) - 1
	if !bars[last].Time.After(m.lastBarTime) {
		return nil
	}

	m.lastBarTime = bars[last].Time
	m.lastClose = bars[last].Close

	sets := m.engine.Compute(bars)

	if sig := m.gen.Evaluate(bars, sets, last); sig.IsSome() {
		m.emit(ctx, sig.Unwrap())
	}

	return nil
}

// emit deduplicates, tags historical signals, records and forwards one
// signal. Notification failures are logged, never propagated.
func (m *SymbolMonitor) emit(ctx context.Context, sig types.Signal) {
	key := sig.DedupKey()
	if _, ok := m.seen[key]; ok {
		return
	}

	m.seen[key] = struct{}{}

	if !m.startedAt.IsZero() {
		y0, m0, d0 := time.Now().Date()
		today := time.Date(y0, m0, d0, 0, 0, 0, 0, sig.Time.Location())
		sig.Historical = sig.Time.Before(today)
	}

	m.mu.Lock()
	m.signals = append(m.signals, sig)
	m.mu.Unlock()

	if m.metrics != nil {
		m.metrics.SignalsTotal.WithLabelValues(m.symbol, string(sig.Type), string(sig.Tier)).Inc()
	}

	m.info("signal emitted",
		zap.String("type", string(sig.Type)),
		zap.Float64("price", sig.Price),
		zap.Float64("score", sig.Score),
		zap.String("tier", string(sig.Tier)),
		zap.String("reason", sig.Reason))

	if err := m.notifier.Send(ctx, notify.FormatSignal(sig)); err != nil {
		if m.metrics != nil {
			m.metrics.NotifyFailures.Inc()
		}

		m.warn("notification failed", zap.Error(err))
	}
}

// RunBacktest replays a bounded historical range through the generator
// in chronological order. Cancellation aborts mid-replay.
func (m *SymbolMonitor) RunBacktest(ctx context.Context, history HistorySource, start, end time.Time) (*backtest.Report, error) {
	bars, err := history.GetHistoricalBars(ctx, m.symbol, start, end)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeBacktestNoData, err, "no historical bars for %s", m.symbol)
	}

	sets := m.engine.Compute(bars)

	var signals []types.Signal

	for i := range bars {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		if sig := m.gen.Evaluate(bars, sets, i); sig.IsSome() {
			signals = append(signals, sig.Unwrap())
		}
	}

	m.mu.Lock()
	m.signals = append(m.signals, signals...)
	m.mu.Unlock()

	m.info("backtest finished",
		zap.Int("bars", len(bars)),
		zap.Int("signals", len(signals)))

	return backtest.NewReport(m.symbol, m.gen.Mode(), start, end, bars, sets, signals), nil
}

func (m *SymbolMonitor) countCycle(result string) {
	if m.metrics != nil {
		m.metrics.PollCycles.WithLabelValues(m.symbol, result).Inc()
	}
}

func (m *SymbolMonitor) maybeLogHealth() {
	if m.cfg.HealthLogEvery <= 0 || m.cycles%m.cfg.HealthLogEvery != 0 {
		return
	}

	m.info("monitor alive",
		zap.Int("cycles", m.cycles),
		zap.Time("last_bar", m.lastBarTime),
		zap.Float64("last_close", m.lastClose),
		zap.Int("signals", len(m.Signals())))
}

func (m *SymbolMonitor) info(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Info(msg, append([]zap.Field{zap.String("symbol", m.symbol)}, fields...)...)
	}
}

func (m *SymbolMonitor) warn(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Warn(msg, append([]zap.Field{zap.String("symbol", m.symbol)}, fields...)...)
	}
}

func (m *SymbolMonitor) debug(msg string, fields ...zap.Field) {
	if m.logger != nil {
		m.logger.Debug(msg, append([]zap.Field{zap.String("symbol", m.symbol)}, fields...)...)
	}
}
