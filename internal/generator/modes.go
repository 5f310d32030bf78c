package generator

import (
	"fmt"

	"github.com/atrade-lab/tmonitor/internal/types"
)

// candidate is one detected trigger before volume confirmation and
// cooldown filtering.
type candidate struct {
	Type   types.SignalType
	Reason string
}

// candidateFunc inspects the bar at index i and reports a trigger, if
// any. Implementations are pure and may read earlier bars up to their
// mode's lookback.
type candidateFunc func(cfg Config, bars []types.Bar, sets []types.IndicatorSet, i int) (candidate, bool)

// modeLookback is the number of earlier bars a mode's rules consult
// beyond the current one.
func modeLookback(mode types.TradeMode) int {
	switch mode {
	case types.TradeModeRight:
		return 2
	case types.TradeModeHybrid:
		return 1
	default:
		return 0
	}
}

func candidateFuncFor(mode types.TradeMode) candidateFunc {
	switch mode {
	case types.TradeModeRight:
		return rightCandidate
	case types.TradeModeHybrid:
		return hybridCandidate
	default:
		return leftCandidate
	}
}

// leftCandidate trades into the extreme itself: oversold on the lower
// band buys, overbought on the upper band sells.
func leftCandidate(cfg Config, bars []types.Bar, sets []types.IndicatorSet, i int) (candidate, bool) {
	rsi := sets[i].RSI.Unwrap()
	lower := sets[i].BollingerLower.Unwrap()
	upper := sets[i].BollingerUpper.Unwrap()
	close := bars[i].Close

	if rsi < cfg.RSIOversold && close <= lower*(1+cfg.BandTolerance) {
		return candidate{
			Type:   types.SignalTypeBuy,
			Reason: fmt.Sprintf("oversold at lower band (RSI %.1f)", rsi),
		}, true
	}

	if rsi > cfg.RSIOverbought && close >= upper*(1-cfg.BandTolerance) {
		return candidate{
			Type:   types.SignalTypeSell,
			Reason: fmt.Sprintf("overbought at upper band (RSI %.1f)", rsi),
		}, true
	}

	return candidate{}, false
}

// rightCandidate waits for RSI to cross back out of the extreme zone:
// two bars below oversold followed by a cross above it, or a bounce out
// of deep oversold that has not yet run past the recovery ceiling.
func rightCandidate(cfg Config, bars []types.Bar, sets []types.IndicatorSet, i int) (candidate, bool) {
	r0, ok0 := rsiAt(sets, i)
	r1, ok1 := rsiAt(sets, i-1)
	r2, ok2 := rsiAt(sets, i-2)

	if !ok0 || !ok1 || !ok2 {
		return candidate{}, false
	}

	lower := sets[i].BollingerLower.Unwrap()
	upper := sets[i].BollingerUpper.Unwrap()
	close := bars[i].Close

	if close > lower {
		if r0 > cfg.RSIOversold && r1 < cfg.RSIOversold && r2 < cfg.RSIOversold {
			return candidate{
				Type:   types.SignalTypeBuy,
				Reason: fmt.Sprintf("oversold recovery cross (RSI %.1f from %.1f)", r0, r1),
			}, true
		}

		if r1 < cfg.RSIDeepOversold && r0 >= cfg.RSIDeepOversold && r0 < cfg.RecoveryCeiling {
			return candidate{
				Type:   types.SignalTypeBuy,
				Reason: fmt.Sprintf("deep oversold recovery (RSI %.1f from %.1f)", r0, r1),
			}, true
		}
	}

	if close < upper {
		if r0 < cfg.RSIOverbought && r1 > cfg.RSIOverbought && r2 > cfg.RSIOverbought {
			return candidate{
				Type:   types.SignalTypeSell,
				Reason: fmt.Sprintf("overbought breakdown cross (RSI %.1f from %.1f)", r0, r1),
			}, true
		}

		if r1 > cfg.RSIDeepOverbought && r0 <= cfg.RSIDeepOverbought && r0 > cfg.RecoveryFloor {
			return candidate{
				Type:   types.SignalTypeSell,
				Reason: fmt.Sprintf("deep overbought fade (RSI %.1f from %.1f)", r0, r1),
			}, true
		}
	}

	return candidate{}, false
}

// hybridCandidate mixes both sides: the buy rules act on an upward RSI
// cross or an early turn below the buy limit, the sell rules keep the
// left side overbought test plus a high consolidation rule that catches
// distribution drifting along the upper band.
func hybridCandidate(cfg Config, bars []types.Bar, sets []types.IndicatorSet, i int) (candidate, bool) {
	r0, ok0 := rsiAt(sets, i)
	r1, ok1 := rsiAt(sets, i-1)

	if !ok0 || !ok1 {
		return candidate{}, false
	}

	lower := sets[i].BollingerLower.Unwrap()
	upper := sets[i].BollingerUpper.Unwrap()
	close := bars[i].Close

	if r1 < cfg.RSIOversold && r0 >= cfg.RSIOversold && close > lower {
		return candidate{
			Type:   types.SignalTypeBuy,
			Reason: fmt.Sprintf("oversold cross off lower band (RSI %.1f from %.1f)", r0, r1),
		}, true
	}

	if r0 > r1 && r0 < cfg.HybridBuyRSILimit && close >= lower {
		return candidate{
			Type:   types.SignalTypeBuy,
			Reason: fmt.Sprintf("early turn below %.0f (RSI %.1f)", cfg.HybridBuyRSILimit, r0),
		}, true
	}

	if r0 > cfg.RSIOverbought && close >= upper*(1-cfg.BandTolerance) {
		return candidate{
			Type:   types.SignalTypeSell,
			Reason: fmt.Sprintf("overbought at upper band (RSI %.1f)", r0),
		}, true
	}

	if r0 < r1 && r0 > cfg.HybridSellRSIFloor && close >= upper*(1-cfg.NearBandTolerance) {
		return candidate{
			Type:   types.SignalTypeSell,
			Reason: fmt.Sprintf("high consolidation near upper band (RSI %.1f)", r0),
		}, true
	}

	return candidate{}, false
}

func rsiAt(sets []types.IndicatorSet, i int) (float64, bool) {
	if i < 0 || i >= len(sets) || sets[i].RSI.IsNone() {
		return 0, false
	}

	return sets[i].RSI.Unwrap(), true
}
