package types

import (
	"fmt"
	"time"
)

// SignalType is the direction of a trade signal.
type SignalType string

const (
	SignalTypeBuy  SignalType = "BUY"
	SignalTypeSell SignalType = "SELL"
)

// TradeMode selects which candidate detection rules a generator applies.
type TradeMode string

const (
	// TradeModeLeft trades into weakness: oversold RSI at the lower band,
	// overbought RSI at the upper band.
	TradeModeLeft TradeMode = "left"
	// TradeModeRight waits for confirmation: RSI must cross back out of
	// the extreme zone before a candidate is raised.
	TradeModeRight TradeMode = "right"
	// TradeModeHybrid relaxes the right side rules with early turn
	// detection near the bands.
	TradeModeHybrid TradeMode = "hybrid"
)

// Valid reports whether the mode is one of the supported trade modes.
func (m TradeMode) Valid() bool {
	switch m {
	case TradeModeLeft, TradeModeRight, TradeModeHybrid:
		return true
	}
	return false
}

// SignalTier buckets a signal score into an actionable strength band.
type SignalTier string

const (
	SignalTierStrong SignalTier = "strong"
	SignalTierMedium SignalTier = "medium"
	SignalTierWeak   SignalTier = "weak"
)

// Signal is one scored trade signal emitted for a symbol.
type Signal struct {
	// ID uniquely identifies the signal.
	ID string `json:"id" yaml:"id"`
	// Symbol is the 6 digit equity code the signal was generated for.
	Symbol string `json:"symbol" yaml:"symbol"`
	// Type is the direction of the signal.
	Type SignalType `json:"type" yaml:"type"`
	// Mode is the trade mode that produced the candidate.
	Mode TradeMode `json:"mode" yaml:"mode"`
	// Time is the timestamp of the bar that triggered the signal.
	Time time.Time `json:"time" yaml:"time"`
	// Price is the close of the triggering bar.
	Price float64 `json:"price" yaml:"price"`
	// Score is the 0 to 100 quality score assigned by the scorer.
	Score float64 `json:"score" yaml:"score"`
	// Tier is the strength band derived from Score.
	Tier SignalTier `json:"tier" yaml:"tier"`
	// Reason is a short human readable description of the trigger.
	Reason string `json:"reason" yaml:"reason"`
	// Historical marks signals whose bar predates the monitor start, for
	// example the tail of a warmup fetch.
	Historical bool `json:"historical" yaml:"historical"`
}

// DedupKey identifies a signal for duplicate suppression. Two signals with
// the same direction, bar timestamp and price are considered the same event.
func (s Signal) DedupKey() string {
	return fmt.Sprintf("%s_%d_%.2f", s.Type, s.Time.Unix(), s.Price)
}
