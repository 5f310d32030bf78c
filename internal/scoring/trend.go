package scoring

import (
	"math"

	"github.com/atrade-lab/tmonitor/internal/types"
)

const (
	trendWindowShort = 30
	trendWindowMid   = 60

	trendStrongThreshold   = 0.06
	trendModerateThreshold = 0.03
)

// RecentVolumeSplit returns the early 3 and late 2 bar volume averages of
// the trailing 5 bars. Used for volume divergence detection; both values
// fall back to the last bar's volume for short series.
func RecentVolumeSplit(window []types.Bar) (early, late float64) {
	return earlyRecentVolume(window), recentVolume(window)
}

// trendPenalty discounts counter-trend candidates. Range trading works in
// a sideways market; fading a strong one-way move usually loses.
// Returns a deduction between 0 and 25.
func trendPenalty(window []types.Bar, signalType types.SignalType) float64 {
	n := len(window)
	if n < trendWindowMid {
		return 0
	}

	short := window[n-trendWindowShort:]
	mid := window[n-trendWindowMid:]

	trend30 := relChange(short)
	trend60 := relChange(mid)

	if signalType == types.SignalTypeBuy {
		switch {
		case trend30 < -trendStrongThreshold && trend60 < -trendStrongThreshold:
			if directionalRatio(short, false) > 0.65 {
				return 25
			}

			return 15
		case trend30 < -trendModerateThreshold || trend60 < -trendModerateThreshold:
			if directionalRatio(short, false) > 0.60 {
				return 12
			}

			return 6
		}

		return 0
	}

	switch {
	case trend30 > trendStrongThreshold && trend60 > trendStrongThreshold:
		if directionalRatio(short, true) > 0.65 {
			return 20
		}

		return 12
	case trend30 > trendModerateThreshold || trend60 > trendModerateThreshold:
		if directionalRatio(short, true) > 0.60 {
			return 10
		}

		return 5
	}

	return 0
}

// volatilityBonus rewards a close that has stretched away from its 20 bar
// mean while volatility stays in a tradable band. Returns -8 to +8.
func volatilityBonus(window []types.Bar) float64 {
	n := len(window)
	if n < 20 {
		return 0
	}

	recent := window[n-20:]

	var sum float64
	for _, b := range recent {
		sum += b.Close
	}

	mean := sum / 20

	var variance float64
	for _, b := range recent {
		d := b.Close - mean
		variance += d * d
	}

	sd := math.Sqrt(variance / 19)

	if mean == 0 {
		return 0
	}

	volatility := sd / mean
	deviation := math.Abs(recent[19].Close-mean) / mean

	switch {
	case deviation > 0.03 && volatility > 0.01 && volatility < 0.04:
		return 8
	case deviation > 0.02 && volatility > 0.01 && volatility < 0.05:
		return 5
	case volatility < 0.008:
		return -8
	case volatility > 0.06:
		return -5
	default:
		return 0
	}
}

func relChange(window []types.Bar) float64 {
	first := window[0].Close
	if first == 0 {
		return 0
	}

	return (window[len(window)-1].Close - first) / first
}

// directionalRatio is the share of bar-to-bar close changes in the given
// direction (rising when up is true).
func directionalRatio(window []types.Bar, up bool) float64 {
	if len(window) < 2 {
		return 0
	}

	var matched int

	for i := 1; i < len(window); i++ {
		delta := window[i].Close - window[i-1].Close
		if (up && delta > 0) || (!up && delta < 0) {
			matched++
		}
	}

	return float64(matched) / float64(len(window)-1)
}
