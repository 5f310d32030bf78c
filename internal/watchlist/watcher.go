package watchlist

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/logger"
)

// Event carries the desired symbol set after a watchlist change.
type Event struct {
	Symbols []string
}

// Watcher polls the watchlist file's modification time and publishes an
// Event whenever the file changed. An unreadable file keeps the previous
// desired set: no event is published until the file is readable again.
type Watcher struct {
	path     string
	interval time.Duration
	logger   *logger.Logger

	lastMtime time.Time
	events    chan Event
}

// NewWatcher creates a watcher for the file at path, polling at the
// given interval.
func NewWatcher(path string, interval time.Duration, log *logger.Logger) *Watcher {
	return &Watcher{
		path:      path,
		interval:  interval,
		logger:    log,
		lastMtime: time.Time{},
		events:    make(chan Event, 1),
	}
}

// Events returns the channel the watcher publishes change events on.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run polls the file until ctx is cancelled. The first successful read
// always publishes an event so subscribers receive the initial set.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	w.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.poll(ctx)
		}
	}
}

// poll publishes an event when the file's mtime changed since the last
// successful read. Any change counts, including a move backwards after
// the file is restored from a backup.
func (w *Watcher) poll(ctx context.Context) {
	info, err := os.Stat(w.path)
	if err != nil {
		w.warn("watchlist stat failed, keeping previous set", zap.Error(err))

		return
	}

	mtime := info.ModTime()
	if mtime.Equal(w.lastMtime) {
		return
	}

	symbols, err := Load(w.path)
	if err != nil {
		w.warn("watchlist read failed, keeping previous set", zap.Error(err))

		return
	}

	w.lastMtime = mtime

	select {
	case w.events <- Event{Symbols: symbols}:
	case <-ctx.Done():
	}
}

func (w *Watcher) warn(msg string, fields ...zap.Field) {
	if w.logger == nil {
		return
	}

	w.logger.Warn(msg, append([]zap.Field{zap.String("path", w.path)}, fields...)...)
}
