package types

import (
	"time"

	"github.com/moznion/go-optional"
)

// Bar is a single OHLCV candle for a symbol at a fixed interval.
type Bar struct {
	// Symbol is the 6 digit equity code the bar belongs to.
	Symbol string `json:"symbol" yaml:"symbol"`
	// Time is the exchange timestamp of the bar close.
	Time   time.Time `json:"time" yaml:"time"`
	Open   float64   `json:"open" yaml:"open"`
	High   float64   `json:"high" yaml:"high"`
	Low    float64   `json:"low" yaml:"low"`
	Close  float64   `json:"close" yaml:"close"`
	Volume float64   `json:"volume" yaml:"volume"`
}

// SameDay reports whether the bar falls on the same calendar day as other.
func (b Bar) SameDay(other Bar) bool {
	by, bm, bd := b.Time.Date()
	oy, om, od := other.Time.Date()
	return by == oy && bm == om && bd == od
}

// IndicatorSet holds the indicator values computed for one bar. A value is
// None while the series is still inside the indicator's warmup window.
type IndicatorSet struct {
	// RSI is the relative strength index over the configured period.
	RSI optional.Option[float64]
	// BollingerUpper, BollingerMid and BollingerLower are the Bollinger
	// band levels for the bar.
	BollingerUpper optional.Option[float64]
	BollingerMid   optional.Option[float64]
	BollingerLower optional.Option[float64]
	// VolumeMA is the moving average of volume over the configured period.
	VolumeMA optional.Option[float64]
}

// Complete reports whether every indicator in the set has a defined value.
func (s IndicatorSet) Complete() bool {
	return s.RSI.IsSome() &&
		s.BollingerUpper.IsSome() &&
		s.BollingerMid.IsSome() &&
		s.BollingerLower.IsSome() &&
		s.VolumeMA.IsSome()
}
