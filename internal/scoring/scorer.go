// Package scoring assigns a 0 to 100 confidence score to signal candidates.
//
// The score is built from four components on top of a base of 40:
// an externally supplied indicator score (0-20), the close's position
// inside the recent high/low range (-10 to 30), the distance past the
// relevant Bollinger band (0-15), and a volume/momentum component (0-35)
// with asymmetric BUY/SELL tuning.
package scoring

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

const (
	// StrongThreshold and MediumThreshold split scores into tiers.
	StrongThreshold = 85.0
	MediumThreshold = 65.0

	// PositionWindow is the lookback for the price position component.
	PositionWindow = 60

	// MomentumWindow and MomentumThreshold detect a move already in
	// progress: a 2% close change over the last 10 bars.
	MomentumWindow    = 10
	MomentumThreshold = 0.02

	// NeutralScore is substituted by callers when scoring fails.
	NeutralScore = 50.0

	// Penalty factors applied when volume confirms a move against the
	// signal direction. Extreme price positions get the lighter factor.
	momentumPenaltyMid     = 0.45
	momentumPenaltyExtreme = 0.15

	// recentVolumeBars is the trailing window whose early 3 / late 2
	// split smoothes the "current" volume reading.
	recentVolumeBars = 5
)

// Result is a computed signal score with its tier.
type Result struct {
	Score float64
	Tier  types.SignalTier
}

// Neutral is the fallback result callers substitute when Compute returns
// an error.
func Neutral() Result {
	return Result{Score: NeutralScore, Tier: types.SignalTierMedium}
}

// TierFor maps a score to its strength tier.
func TierFor(score float64) types.SignalTier {
	switch {
	case score >= StrongThreshold:
		return types.SignalTierStrong
	case score >= MediumThreshold:
		return types.SignalTierMedium
	default:
		return types.SignalTierWeak
	}
}

// Input carries everything Compute needs for one candidate.
type Input struct {
	// Bars is the full bar series; Index is the candidate bar.
	Bars  []types.Bar
	Index int
	// Type is the candidate direction.
	Type types.SignalType
	// IndicatorScore is the external indicator component, clamped to
	// [0, 20] internally.
	IndicatorScore float64
	// BollingerUpper and BollingerLower feed the band distance
	// component. A None band skips the component.
	BollingerUpper optional.Option[float64]
	BollingerLower optional.Option[float64]
	// VolumeMAPeriod is the averaging window for the volume ratio.
	VolumeMAPeriod int
	// TrendFilter enables the trend penalty and volatility adjustment
	// on top of the four core components.
	TrendFilter bool
}

// Compute scores a signal candidate. It returns an error when the series
// is shorter than the momentum window at Index; callers should substitute
// Neutral() in that case.
func Compute(in Input) (Result, error) {
	if in.Index < 0 || in.Index >= len(in.Bars) {
		return Result{}, errors.Newf(errors.ErrCodeScoreCalculation, "index %d out of range for %d bars", in.Index, len(in.Bars))
	}

	if in.Index < MomentumWindow {
		return Result{}, errors.NewInsufficientDataErrorf(MomentumWindow, in.Index, in.Bars[in.Index].Symbol,
			"need %d bars before scoring, have %d", MomentumWindow, in.Index)
	}

	start := in.Index - PositionWindow
	if start < 0 {
		start = 0
	}

	window := in.Bars[start : in.Index+1]
	close := window[len(window)-1].Close

	volRatio := volumeRatio(window, in.VolumeMAPeriod)
	position := pricePosition(window, close)

	score := 40.0

	switch in.Type {
	case types.SignalTypeBuy:
		score += buyScore(window, position, volRatio, close, in.IndicatorScore, in.BollingerLower)
	case types.SignalTypeSell:
		score += sellScore(window, position, volRatio, close, in.IndicatorScore, in.BollingerUpper)
	default:
		return Result{}, errors.Newf(errors.ErrCodeScoreCalculation, "unknown signal type %q", in.Type)
	}

	if in.TrendFilter {
		score -= trendPenalty(window, in.Type)
		score += volatilityBonus(window)
	}

	final := math.Min(100, math.Max(0, score))

	return Result{Score: final, Tier: TierFor(final)}, nil
}

// volumeRatio compares recent volume against the window mean. With five
// or more bars the "recent" reading is the late 2 bar average of the
// trailing 5, which damps single bar spikes.
func volumeRatio(window []types.Bar, maPeriod int) float64 {
	n := len(window)
	if n == 0 {
		return 0
	}

	maStart := n - maPeriod
	if maStart < 0 {
		maStart = 0
	}

	var maSum float64
	for _, b := range window[maStart:] {
		maSum += b.Volume
	}

	volMA := maSum / float64(n-maStart)

	return recentVolume(window) / (volMA + 1e-6)
}

// recentVolume returns the smoothed current volume: the mean of the late
// 2 bars of the trailing 5, or the last bar's volume for short series.
func recentVolume(window []types.Bar) float64 {
	n := len(window)
	if n < recentVolumeBars {
		return window[n-1].Volume
	}

	return (window[n-2].Volume + window[n-1].Volume) / 2
}

// earlyRecentVolume returns the mean of the early 3 bars of the trailing
// 5, the counterpart of recentVolume for divergence detection.
func earlyRecentVolume(window []types.Bar) float64 {
	n := len(window)
	if n < recentVolumeBars {
		return window[n-1].Volume
	}

	return (window[n-5].Volume + window[n-4].Volume + window[n-3].Volume) / 3
}

func pricePosition(window []types.Bar, close float64) float64 {
	high := window[0].High
	low := window[0].Low

	for _, b := range window[1:] {
		if b.High > high {
			high = b.High
		}

		if b.Low < low {
			low = b.Low
		}
	}

	return (close - low) / (high - low + 1e-6)
}

// momentumChange is the relative close change over the momentum window.
func momentumChange(window []types.Bar) float64 {
	n := len(window)
	if n < MomentumWindow {
		return 0
	}

	first := window[n-MomentumWindow].Close
	if first == 0 {
		return 0
	}

	return (window[n-1].Close - first) / first
}

func clampIndicatorScore(s float64) float64 {
	return math.Min(20, math.Max(0, s))
}

func buyScore(window []types.Bar, position, volRatio, close, indicatorScore float64, lower optional.Option[float64]) float64 {
	score := clampIndicatorScore(indicatorScore)

	// price position: reward lows, punish chasing a bounce from midrange
	switch {
	case position < 0.08:
		score += 30
	case position < 0.15:
		score += 20
	case position < 0.25:
		score += 10
	case position < 0.35:
		score += 3
	default:
		score -= 10
	}

	// distance below the lower band
	if lower.IsSome() {
		lowerVal := lower.Unwrap()
		if lowerVal != 0 {
			dist := (close - lowerVal) / lowerVal

			switch {
			case dist < -0.015:
				score += 15
			case dist < -0.008:
				score += 10
			case dist < 0:
				score += 5
			}
		}
	}

	score += buyVolumeScore(window, position, volRatio)

	return score
}

func sellScore(window []types.Bar, position, volRatio, close, indicatorScore float64, upper optional.Option[float64]) float64 {
	score := clampIndicatorScore(indicatorScore)

	switch {
	case position > 0.96:
		score += 30
	case position > 0.92:
		score += 22
	case position > 0.85:
		score += 15
	case position > 0.75:
		score += 8
	case position > 0.65:
		score += 3
	default:
		score -= 10
	}

	// distance above the upper band
	if upper.IsSome() {
		upperVal := upper.Unwrap()
		if upperVal != 0 {
			dist := (close - upperVal) / upperVal

			switch {
			case dist > 0.015:
				score += 15
			case dist > 0.008:
				score += 10
			case dist > 0:
				score += 5
			}
		}
	}

	score += sellVolumeScore(window, position, volRatio)

	return score
}

// buyVolumeScore tells a shakeout apart from an ongoing markdown. High
// volume only earns full credit near the absolute low when price is not
// actively falling.
func buyVolumeScore(window []types.Bar, position, volRatio float64) float64 {
	var score float64

	if len(window) < MomentumWindow {
		switch {
		case volRatio > 2.5:
			score += 10
		case volRatio >= 1.2 && volRatio <= 2.0 && position < 0.15:
			score += 20
		case volRatio > 1.2:
			score += 12
		default:
			score += 8
		}

		return score
	}

	isFalling := momentumChange(window) < -MomentumThreshold

	switch {
	case volRatio > 2.5:
		// capitulation volume
		switch {
		case position < 0.04 && !isFalling:
			score += 35
		case position < 0.10:
			score += 20
		case position < 0.25:
			score += 12
		default:
			score += 5
		}
	case volRatio >= 1.2 && volRatio <= 2.0:
		// moderate expansion, stabilization pattern
		switch {
		case position < 0.15 && !isFalling:
			score += 30
		case position < 0.15:
			score += 15
		default:
			score += 12
		}
	case volRatio < 1.2:
		// shrink
		switch {
		case position < 0.10 && volRatio < 0.5:
			score += 28
		case isFalling && volRatio < 0.8:
			score += 18
		default:
			score += 8
		}
	default:
		score += 10
	}

	if isFalling {
		if position < 0.05 {
			score -= math.Trunc(score * momentumPenaltyExtreme)
		} else {
			score -= math.Trunc(score * momentumPenaltyMid)
		}
	}

	return score
}

// sellVolumeScore tells a blow-off top apart from a markup still in
// progress. Surge volume mid-rally scores low, shrinking volume at the
// highs reads as divergence and scores high.
func sellVolumeScore(window []types.Bar, position, volRatio float64) float64 {
	var score float64

	if len(window) < MomentumWindow {
		switch {
		case volRatio > 3.0:
			score += 10
		case volRatio > 1.5 && position > 0.85:
			score += 20
		case volRatio > 1.3:
			score += 12
		default:
			score += 8
		}

		return score
	}

	isSurging := momentumChange(window) > MomentumThreshold

	switch {
	case volRatio > 3.0:
		switch {
		case position > 0.96 && !isSurging:
			score += 35
		case position > 0.92 && !isSurging:
			score += 25
		case position > 0.90:
			score += 12
		case position > 0.75:
			score += 8
		default:
			score += 5
		}
	case volRatio >= 1.3 && volRatio <= 2.5:
		switch {
		case position > 0.85 && !isSurging:
			score += 30
		case position > 0.85:
			score += 15
		default:
			score += 12
		}
	case volRatio < 1.3 && position > 0.85:
		// shrinking volume at the highs
		score += 28
	default:
		score += 10
	}

	if isSurging {
		if position > 0.95 {
			score -= math.Trunc(score * momentumPenaltyExtreme)
		} else {
			score -= math.Trunc(score * momentumPenaltyMid)
		}
	}

	return score
}
