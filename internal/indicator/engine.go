// Package indicator computes the technical indicators the signal generator
// consumes: RSI, Bollinger Bands and a volume moving average.
//
// All computations run over an in-memory bar series. Values inside an
// indicator's warmup window are represented as None rather than zero so
// callers cannot mistake an undefined value for a real one.
package indicator

import (
	"math"

	validator "github.com/go-playground/validator/v10"
	"github.com/moznion/go-optional"

	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

const (
	// epsilon guards divisions when the loss average is zero, keeping RSI
	// defined for monotonically rising series.
	epsilon = 1e-10
)

// Params configures the indicator engine.
type Params struct {
	// RSIPeriod is the averaging window for gains and losses.
	RSIPeriod int `yaml:"rsi_period" validate:"required,gt=1"`
	// BollingerPeriod is the moving average window for the bands.
	BollingerPeriod int `yaml:"bollinger_period" validate:"required,gt=1"`
	// BollingerStdDev is the band width in standard deviations.
	BollingerStdDev float64 `yaml:"bollinger_std_dev" validate:"required,gt=0"`
	// VolumeMAPeriod is the moving average window for volume.
	VolumeMAPeriod int `yaml:"volume_ma_period" validate:"required,gt=0"`
}

// DefaultParams returns the standard parameter set: RSI 14, Bollinger 20/2,
// volume MA 20.
func DefaultParams() Params {
	return Params{
		RSIPeriod:       14,
		BollingerPeriod: 20,
		BollingerStdDev: 2.0,
		VolumeMAPeriod:  20,
	}
}

// Validate validates the params using the validator tags.
func (p Params) Validate() error {
	validate := validator.New()
	if err := validate.Struct(p); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid indicator params", err)
	}

	return nil
}

// MinBars returns the smallest series length for which every indicator in
// the set is defined on the newest bar.
func (p Params) MinBars() int {
	min := p.RSIPeriod + 1
	if p.BollingerPeriod > min {
		min = p.BollingerPeriod
	}

	if p.VolumeMAPeriod > min {
		min = p.VolumeMAPeriod
	}

	return min
}

// Engine computes indicator series for a bar series.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given params.
func NewEngine(params Params) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	return &Engine{params: params}, nil
}

// Params returns the engine's parameter set.
func (e *Engine) Params() Params {
	return e.params
}

// Compute returns one IndicatorSet per input bar. Positions inside an
// indicator's warmup window hold None for that indicator.
func (e *Engine) Compute(bars []types.Bar) []types.IndicatorSet {
	n := len(bars)
	out := make([]types.IndicatorSet, n)

	if n == 0 {
		return out
	}

	closes := make([]float64, n)
	volumes := make([]float64, n)

	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	rsi := e.rsiSeries(closes)
	upper, mid, lower := e.bollingerSeries(closes)
	volMA := movingAverage(volumes, e.params.VolumeMAPeriod)

	for i := range out {
		out[i] = types.IndicatorSet{
			RSI:            rsi[i],
			BollingerUpper: upper[i],
			BollingerMid:   mid[i],
			BollingerLower: lower[i],
			VolumeMA:       volMA[i],
		}
	}

	return out
}

// rsiSeries computes RSI over the close series. Gains and losses are
// averaged with a simple rolling mean over the period, not Wilder
// smoothing, so values react faster to short squeezes. The first defined
// value is at index RSIPeriod.
func (e *Engine) rsiSeries(closes []float64) []optional.Option[float64] {
	n := len(closes)
	period := e.params.RSIPeriod
	out := make([]optional.Option[float64], n)

	if n == 0 {
		return out
	}

	gains := make([]float64, n)
	losses := make([]float64, n)

	for i := 1; i < n; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	var gainSum, lossSum float64

	for i := 1; i < n; i++ {
		gainSum += gains[i]
		lossSum += losses[i]

		if i > period {
			gainSum -= gains[i-period]
			lossSum -= losses[i-period]
		}

		if i < period {
			continue
		}

		avgGain := gainSum / float64(period)
		avgLoss := lossSum / float64(period)
		rs := avgGain / (avgLoss + epsilon)
		out[i] = optional.Some(100 - 100/(1+rs))
	}

	return out
}

// bollingerSeries computes the upper, mid and lower bands over the close
// series using the population standard deviation of each window.
func (e *Engine) bollingerSeries(closes []float64) (upper, mid, lower []optional.Option[float64]) {
	n := len(closes)
	period := e.params.BollingerPeriod
	k := e.params.BollingerStdDev

	upper = make([]optional.Option[float64], n)
	mid = make([]optional.Option[float64], n)
	lower = make([]optional.Option[float64], n)

	for i := period - 1; i < n; i++ {
		window := closes[i-period+1 : i+1]
		mean := meanOf(window)

		var variance float64
		for _, v := range window {
			d := v - mean
			variance += d * d
		}

		variance /= float64(period)
		sd := math.Sqrt(variance)

		mid[i] = optional.Some(mean)
		upper[i] = optional.Some(mean + k*sd)
		lower[i] = optional.Some(mean - k*sd)
	}

	return upper, mid, lower
}

func movingAverage(values []float64, period int) []optional.Option[float64] {
	n := len(values)
	out := make([]optional.Option[float64], n)

	var sum float64

	for i := 0; i < n; i++ {
		sum += values[i]

		if i >= period {
			sum -= values[i-period]
		}

		if i >= period-1 {
			out[i] = optional.Some(sum / float64(period))
		}
	}

	return out
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}
