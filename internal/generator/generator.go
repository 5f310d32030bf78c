// Package generator turns indicator augmented bar series into filtered,
// volume confirmed, cooled down trade signals. Each evaluation looks at
// one bar and emits at most one signal.
package generator

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/logger"
	"github.com/atrade-lab/tmonitor/internal/position"
	"github.com/atrade-lab/tmonitor/internal/scoring"
	"github.com/atrade-lab/tmonitor/internal/types"
)

// cooldownEntry remembers the last accepted signal per direction.
type cooldownEntry struct {
	at    time.Time
	price float64
}

// Generator is the per-symbol signal state machine. It is owned by a
// single SymbolMonitor and is not safe for concurrent use.
type Generator struct {
	symbol    string
	cfg       Config
	rsiPeriod int
	detect    candidateFunc
	pos       *position.Manager
	cooldown  map[types.SignalType]cooldownEntry
	logger    *logger.Logger
}

// New creates a generator for one symbol. The position manager gates buy
// and sell candidates against the T+1 rules; it may be nil to disable
// the gate (backtests without a holding).
func New(symbol string, cfg Config, rsiPeriod int, pos *position.Manager, log *logger.Logger) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Generator{
		symbol:    symbol,
		cfg:       cfg,
		rsiPeriod: rsiPeriod,
		detect:    candidateFuncFor(cfg.Mode),
		pos:       pos,
		cooldown:  make(map[types.SignalType]cooldownEntry),
		logger:    log,
	}, nil
}

// Mode returns the generator's trade mode.
func (g *Generator) Mode() types.TradeMode {
	return g.cfg.Mode
}

// MinIndex is the first bar index with enough history for evaluation.
func (g *Generator) MinIndex() int {
	return g.rsiPeriod + modeLookback(g.cfg.Mode)
}

// Evaluate inspects the bar at index i and returns a scored signal when
// every filter passes. Missing history, undefined indicators, the limit
// filter, a failed confirmation or an active cooldown all yield None.
func (g *Generator) Evaluate(bars []types.Bar, sets []types.IndicatorSet, i int) optional.Option[types.Signal] {
	none := optional.None[types.Signal]()

	if i < 0 || i >= len(bars) || len(sets) != len(bars) {
		return none
	}

	if i < g.MinIndex() || !sets[i].Complete() {
		return none
	}

	bar := bars[i]

	if g.atLimit(bars, i) {
		g.debug("bar at price limit, suppressed",
			zap.Time("bar_time", bar.Time),
			zap.Float64("close", bar.Close))

		return none
	}

	cand, ok := g.detect(g.cfg, bars, sets, i)
	if !ok {
		return none
	}

	if !g.positionAllows(cand.Type) {
		return none
	}

	volReason, ok := g.confirmVolume(cand.Type, bars, sets, i)
	if !ok {
		return none
	}

	if !g.cooldownPassed(cand.Type, bar.Time, bar.Close) {
		g.debug("cooldown active, suppressed",
			zap.String("type", string(cand.Type)),
			zap.Time("bar_time", bar.Time))

		return none
	}

	res := g.score(cand.Type, bars, sets, i)

	sig := types.Signal{
		ID:     uuid.NewString(),
		Symbol: g.symbol,
		Type:   cand.Type,
		Mode:   g.cfg.Mode,
		Time:   bar.Time,
		Price:  bar.Close,
		Score:  res.Score,
		Tier:   res.Tier,
		Reason: fmt.Sprintf("%s; %s", cand.Reason, volReason),
	}

	g.cooldown[cand.Type] = cooldownEntry{at: bar.Time, price: bar.Close}

	return optional.Some(sig)
}

// atLimit reports whether the bar sits at the session's limit up or
// limit down. The reference is the close of the session's first bar, or
// the previous close when the series starts mid-session.
func (g *Generator) atLimit(bars []types.Bar, i int) bool {
	ref := sessionReference(bars, i)
	if ref <= 0 {
		return false
	}

	change := (bars[i].Close - ref) / ref

	return change >= g.cfg.LimitMove || change <= -g.cfg.LimitMove
}

func sessionReference(bars []types.Bar, i int) float64 {
	j := i
	for j > 0 && bars[j-1].SameDay(bars[i]) {
		j--
	}

	if j < i {
		return bars[j].Close
	}

	if j > 0 {
		return bars[j-1].Close
	}

	return bars[i].Close
}

// positionAllows gates candidates against the T+1 position rules. Sells
// need at least one sellable share.
func (g *Generator) positionAllows(t types.SignalType) bool {
	if g.pos == nil {
		return true
	}

	if t == types.SignalTypeBuy {
		if err := g.pos.CanBuy(); err != nil {
			g.debug("buy blocked by position rules", zap.Error(err))

			return false
		}

		return true
	}

	if g.pos.AvailableShares() <= 0 {
		g.debug("sell blocked, no sellable shares")

		return false
	}

	if err := g.pos.CanSell(1); err != nil {
		g.debug("sell blocked by position rules", zap.Error(err))

		return false
	}

	return true
}

func (g *Generator) confirmVolume(t types.SignalType, bars []types.Bar, sets []types.IndicatorSet, i int) (string, bool) {
	volMA := sets[i].VolumeMA.Unwrap()

	if t == types.SignalTypeBuy {
		return confirmBuy(bars, i, volMA)
	}

	return confirmSell(g.cfg, bars, i, volMA)
}

// cooldownPassed allows a repeat signal when the cooldown has elapsed or
// price moved far enough since the last one of the same direction.
func (g *Generator) cooldownPassed(t types.SignalType, at time.Time, price float64) bool {
	entry, ok := g.cooldown[t]
	if !ok {
		return true
	}

	if at.Sub(entry.at) >= g.cfg.Cooldown {
		return true
	}

	if entry.price > 0 && math.Abs(price-entry.price)/entry.price >= g.cfg.RepeatPriceChange {
		return true
	}

	return false
}

// score runs the scorer, substituting the neutral result when the series
// is too short or the computation fails. The score is advisory; a
// confirmed candidate still fires.
func (g *Generator) score(t types.SignalType, bars []types.Bar, sets []types.IndicatorSet, i int) scoring.Result {
	rsi := sets[i].RSI.Unwrap()

	res, err := scoring.Compute(scoring.Input{
		Bars:           bars,
		Index:          i,
		Type:           t,
		IndicatorScore: scoring.RSIIndicatorScore(rsi, t),
		BollingerUpper: sets[i].BollingerUpper,
		BollingerLower: sets[i].BollingerLower,
		VolumeMAPeriod: g.cfg.VolumeMAPeriod,
		TrendFilter:    g.cfg.TrendFilter,
	})
	if err != nil {
		g.debug("scoring failed, using neutral", zap.Error(err))

		return scoring.Neutral()
	}

	return res
}

func (g *Generator) debug(msg string, fields ...zap.Field) {
	if g.logger == nil {
		return
	}

	g.logger.Debug(msg, append([]zap.Field{zap.String("symbol", g.symbol)}, fields...)...)
}
