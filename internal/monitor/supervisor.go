package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/logger"
	"github.com/atrade-lab/tmonitor/internal/metrics"
	"github.com/atrade-lab/tmonitor/internal/watchlist"
)

// Factory builds a monitor for a symbol that just joined the watchlist.
type Factory func(symbol string) (*SymbolMonitor, error)

type handle struct {
	monitor *SymbolMonitor
	cancel  context.CancelFunc
	done    chan struct{}
}

// Supervisor keeps one running SymbolMonitor per watched symbol and
// reconciles the running set against watchlist updates.
type Supervisor struct {
	factory Factory
	metrics *metrics.Metrics
	logger  *logger.Logger

	mu       sync.Mutex
	monitors map[string]*handle
}

// NewSupervisor creates a supervisor with no monitors running.
func NewSupervisor(factory Factory, m *metrics.Metrics, log *logger.Logger) *Supervisor {
	return &Supervisor{
		factory:  factory,
		metrics:  m,
		logger:   log,
		monitors: make(map[string]*handle),
	}
}

// Run consumes watchlist events until ctx is cancelled or the channel
// closes, then stops every monitor.
func (s *Supervisor) Run(ctx context.Context, events <-chan watchlist.Event) {
	for {
		select {
		case <-ctx.Done():
			s.StopAll(30 * time.Second)

			return
		case ev, ok := <-events:
			if !ok {
				s.StopAll(30 * time.Second)

				return
			}

			s.Reconcile(ctx, ev.Symbols)
		}
	}
}

// Reconcile stops monitors whose symbols left the desired set and
// starts monitors for symbols that joined it. Symbols present in both
// keep their running monitor and its state. It returns the symbols
// started and stopped.
func (s *Supervisor) Reconcile(ctx context.Context, desired []string) (started, stopped []string) {
	want := make(map[string]struct{}, len(desired))
	for _, sym := range desired {
		want[sym] = struct{}{}
	}

	s.mu.Lock()

	var toStop []*handle

	for sym, h := range s.monitors {
		if _, ok := want[sym]; ok {
			continue
		}

		delete(s.monitors, sym)
		toStop = append(toStop, h)
		stopped = append(stopped, sym)
	}

	for sym := range want {
		if _, ok := s.monitors[sym]; ok {
			continue
		}

		mon, err := s.factory(sym)
		if err != nil {
			if s.logger != nil {
				s.logger.Error("failed to start monitor", zap.String("symbol", sym), zap.Error(err))
			}

			continue
		}

		runCtx, cancel := context.WithCancel(ctx)
		h := &handle{monitor: mon, cancel: cancel, done: make(chan struct{})}

		go func() {
			defer close(h.done)
			mon.Run(runCtx)
		}()

		s.monitors[sym] = h
		started = append(started, sym)
	}

	active := len(s.monitors)

	s.mu.Unlock()

	for _, h := range toStop {
		h.cancel()
		<-h.done
	}

	if s.metrics != nil {
		s.metrics.ActiveMonitors.Set(float64(active))
	}

	if s.logger != nil && (len(started) > 0 || len(stopped) > 0) {
		s.logger.Info("watchlist reconciled",
			zap.Strings("started", started),
			zap.Strings("stopped", stopped),
			zap.Int("active", active))
	}

	return started, stopped
}

// ActiveSymbols returns the symbols with a running monitor, sorted.
func (s *Supervisor) ActiveSymbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.monitors))
	for sym := range s.monitors {
		out = append(out, sym)
	}

	sort.Strings(out)

	return out
}

// Monitor returns the running monitor for a symbol, if any.
func (s *Supervisor) Monitor(symbol string) (*SymbolMonitor, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.monitors[symbol]
	if !ok {
		return nil, false
	}

	return h.monitor, true
}

// StopAll cancels every monitor and waits up to timeout for them to
// exit.
func (s *Supervisor) StopAll(timeout time.Duration) {
	s.mu.Lock()

	handles := make([]*handle, 0, len(s.monitors))
	for sym, h := range s.monitors {
		delete(s.monitors, sym)
		handles = append(handles, h)
	}

	s.mu.Unlock()

	for _, h := range handles {
		h.cancel()
	}

	deadline := time.After(timeout)

	for _, h := range handles {
		select {
		case <-h.done:
		case <-deadline:
			if s.logger != nil {
				s.logger.Warn("timed out waiting for monitors to stop")
			}

			return
		}
	}

	if s.metrics != nil {
		s.metrics.ActiveMonitors.Set(0)
	}
}
