package generator

import (
	"time"

	validator "github.com/go-playground/validator/v10"

	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

// Config holds the thresholds steering candidate detection, the limit
// filter, volume confirmation and the cooldown.
type Config struct {
	// Mode selects the candidate detection rules.
	Mode types.TradeMode `yaml:"mode" validate:"required"`

	// RSIOversold and RSIOverbought bound the actionable RSI zones.
	RSIOversold   float64 `yaml:"rsi_oversold" validate:"required,gt=0,lt=100"`
	RSIOverbought float64 `yaml:"rsi_overbought" validate:"required,gt=0,lt=100"`

	// RSIDeepOversold and RSIDeepOverbought mark the extreme zones used
	// by the right side recovery rules.
	RSIDeepOversold   float64 `yaml:"rsi_deep_oversold" validate:"required,gt=0,lt=100"`
	RSIDeepOverbought float64 `yaml:"rsi_deep_overbought" validate:"required,gt=0,lt=100"`

	// RecoveryCeiling caps how far RSI may have bounced off a deep
	// oversold reading and still count as an early recovery;
	// RecoveryFloor mirrors it for the sell side.
	RecoveryCeiling float64 `yaml:"recovery_ceiling" validate:"required,gt=0,lt=100"`
	RecoveryFloor   float64 `yaml:"recovery_floor" validate:"required,gt=0,lt=100"`

	// HybridBuyRSILimit and HybridSellRSIFloor bound the hybrid mode
	// early turn rules.
	HybridBuyRSILimit  float64 `yaml:"hybrid_buy_rsi_limit" validate:"required,gt=0,lt=100"`
	HybridSellRSIFloor float64 `yaml:"hybrid_sell_rsi_floor" validate:"required,gt=0,lt=100"`

	// BandTolerance widens the band touch tests by a fraction of the
	// band value.
	BandTolerance float64 `yaml:"band_tolerance" validate:"gte=0,lt=1"`

	// NearBandTolerance is the wider fraction used by the hybrid high
	// consolidation rule.
	NearBandTolerance float64 `yaml:"near_band_tolerance" validate:"gte=0,lt=1"`

	// LimitMove is the session move fraction treated as limit up or
	// limit down. Bars at the limit are never traded into.
	LimitMove float64 `yaml:"limit_move" validate:"required,gt=0,lt=1"`

	// Cooldown suppresses repeated same direction signals unless price
	// moved by RepeatPriceChange since the last one.
	Cooldown          time.Duration `yaml:"cooldown" validate:"required,gt=0"`
	RepeatPriceChange float64       `yaml:"repeat_price_change" validate:"required,gt=0,lt=1"`

	// SellVolumeRatio is the expansion threshold confirming a sell.
	SellVolumeRatio float64 `yaml:"sell_volume_ratio" validate:"required,gt=0"`

	// VolumeMAPeriod is forwarded to the scorer's volume ratio.
	VolumeMAPeriod int `yaml:"volume_ma_period" validate:"required,gt=0"`

	// TrendFilter enables the scorer's trend and volatility adjustment.
	TrendFilter bool `yaml:"trend_filter"`
}

// DefaultConfig returns the standard thresholds for the given mode.
func DefaultConfig(mode types.TradeMode) Config {
	return Config{
		Mode:               mode,
		RSIOversold:        30,
		RSIOverbought:      70,
		RSIDeepOversold:    20,
		RSIDeepOverbought:  80,
		RecoveryCeiling:    40,
		RecoveryFloor:      60,
		HybridBuyRSILimit:  35,
		HybridSellRSIFloor: 65,
		BandTolerance:      0.005,
		NearBandTolerance:  0.01,
		LimitMove:          0.099,
		Cooldown:           300 * time.Second,
		RepeatPriceChange:  0.005,
		SellVolumeRatio:    1.3,
		VolumeMAPeriod:     20,
		TrendFilter:        false,
	}
}

// Validate validates the config using the validator tags plus the mode
// enum check.
func (c Config) Validate() error {
	if !c.Mode.Valid() {
		return errors.Newf(errors.ErrCodeInvalidMode, "unknown trade mode %q", c.Mode)
	}

	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid generator config", err)
	}

	return nil
}
