// Package position tracks intraday share availability under T+1
// settlement: shares bought today cannot be sold until the next trading
// day, and round trips per day are capped.
package position

import (
	"sync"
	"time"

	"github.com/atrade-lab/tmonitor/pkg/errors"
)

// MaxTradesPerDay caps completed trade actions per calendar day.
const MaxTradesPerDay = 3

// Manager tracks one symbol's sellable shares and daily trade count.
// All methods are safe for concurrent use.
type Manager struct {
	mu sync.Mutex

	totalShares     int64
	availableShares int64
	todayBought     int64
	todayTrades     int

	lastReset time.Time

	maxTradesPerDay int
	now             func() time.Time
}

// NewManager creates a manager holding initialShares, all sellable.
func NewManager(initialShares int64) *Manager {
	return NewManagerWithClock(initialShares, time.Now)
}

// NewManagerWithClock creates a manager with an injected clock, used by
// tests and the backtest replay to drive day rollovers deterministically.
func NewManagerWithClock(initialShares int64, now func() time.Time) *Manager {
	return &Manager{
		totalShares:     initialShares,
		availableShares: initialShares,
		todayBought:     0,
		todayTrades:     0,
		lastReset:       truncateDay(now()),
		maxTradesPerDay: MaxTradesPerDay,
		now:             now,
	}
}

// resetDaily rolls yesterday's buys into the sellable pool once the clock
// crosses into a new day. Callers must hold mu.
func (m *Manager) resetDaily() {
	today := truncateDay(m.now())
	if !today.After(m.lastReset) {
		return
	}

	m.availableShares += m.todayBought
	m.todayBought = 0
	m.todayTrades = 0
	m.lastReset = today
}

// CanBuy reports whether another buy is allowed today. A nil error means
// the buy may proceed.
func (m *Manager) CanBuy() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	if m.todayTrades >= m.maxTradesPerDay {
		return errors.Newf(errors.ErrCodeTradeLimitReached, "daily trade limit reached (%d/%d)", m.todayTrades, m.maxTradesPerDay)
	}

	return nil
}

// CanSell reports whether shares can be sold now. Shares bought today are
// not sellable until tomorrow.
func (m *Manager) CanSell(shares int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	if m.todayTrades >= m.maxTradesPerDay {
		return errors.Newf(errors.ErrCodeTradeLimitReached, "daily trade limit reached (%d/%d)", m.todayTrades, m.maxTradesPerDay)
	}

	if shares > m.availableShares {
		return errors.Newf(errors.ErrCodeInsufficientShares, "need %d sellable shares, have %d (today's buys settle tomorrow)", shares, m.availableShares)
	}

	return nil
}

// RecordBuy books a completed buy. The shares join the sellable pool at
// the next daily reset.
func (m *Manager) RecordBuy(shares int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	m.totalShares += shares
	m.todayBought += shares
	m.todayTrades++
}

// RecordSell books a completed sell of previously settled shares.
func (m *Manager) RecordSell(shares int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	m.totalShares -= shares
	m.availableShares -= shares
	m.todayTrades++
}

// TotalShares returns the total holding including unsettled buys.
func (m *Manager) TotalShares() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	return m.totalShares
}

// AvailableShares returns the sellable share count.
func (m *Manager) AvailableShares() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	return m.availableShares
}

// TodayTrades returns the number of trades booked today.
func (m *Manager) TodayTrades() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.resetDaily()

	return m.todayTrades
}

func truncateDay(t time.Time) time.Time {
	y, mo, d := t.Date()

	return time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
}
