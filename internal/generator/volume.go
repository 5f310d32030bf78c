package generator

import (
	"github.com/atrade-lab/tmonitor/internal/scoring"
	"github.com/atrade-lab/tmonitor/internal/types"
)

const (
	// buyShrinkRatio marks washed out volume; buyModerateLow/High bound
	// the healthy expansion band. The gap between shrink and moderate is
	// deliberately unconfirmed.
	buyShrinkRatio  = 0.9
	buyModerateLow  = 1.1
	buyModerateHigh = 2.0

	// divergenceBars is the trailing window for the sell side price-up
	// volume-down test.
	divergenceBars = 5
)

// confirmBuy accepts a buy candidate only on a stabilizing candle with
// either washed out or moderately expanding volume. A red candle or a
// volume surge reads as the downmove still running.
func confirmBuy(bars []types.Bar, i int, volMA float64) (string, bool) {
	bar := bars[i]

	if bar.Close < bar.Open {
		return "", false
	}

	if volMA <= 0 {
		return "", false
	}

	ratio := bar.Volume / volMA

	switch {
	case ratio < buyShrinkRatio:
		return "shrinking volume, stabilizing candle", true
	case ratio >= buyModerateLow && ratio <= buyModerateHigh:
		return "moderate volume, stabilizing candle", true
	default:
		return "", false
	}
}

// confirmSell accepts a sell candidate on a volume expansion past the
// configured ratio, or on a price-up volume-down divergence across the
// trailing 5 bars.
func confirmSell(cfg Config, bars []types.Bar, i int, volMA float64) (string, bool) {
	if volMA > 0 {
		ratio := bars[i].Volume / volMA
		if ratio >= cfg.SellVolumeRatio {
			return "volume expansion", true
		}
	}

	if i+1 >= divergenceBars {
		window := bars[:i+1]
		priceUp := bars[i].Close > bars[i-(divergenceBars-1)].Close
		early, late := scoring.RecentVolumeSplit(window)

		if priceUp && late < early {
			return "price-up volume-down divergence", true
		}
	}

	return "", false
}
