// Package config loads and validates the application's YAML config file
// and translates it into the runtime configs of the individual
// components. Missing keys fall back to the component defaults.
package config

import (
	"os"
	"time"

	validator "github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/atrade-lab/tmonitor/internal/generator"
	"github.com/atrade-lab/tmonitor/internal/indicator"
	"github.com/atrade-lab/tmonitor/internal/monitor"
	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
	"github.com/atrade-lab/tmonitor/pkg/quote"
)

// Duration accepts Go duration strings like "30s" or "5m" in YAML.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "duration must be a string", err)
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "invalid duration %q", raw)
	}

	*d = Duration(parsed)

	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// WatchlistConfig locates the watchlist file and sets its poll cadence.
type WatchlistConfig struct {
	Path     string   `yaml:"path" validate:"required"`
	Interval Duration `yaml:"interval" validate:"required"`
}

// HostConfig is one ranked quote server endpoint.
type HostConfig struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required,gt=0,lte=65535"`
}

// QuoteConfig lists the quote servers in failover order.
type QuoteConfig struct {
	Hosts          []HostConfig `yaml:"hosts" validate:"required,min=1,dive"`
	RequestTimeout Duration     `yaml:"request_timeout" validate:"required"`
}

// MonitorConfig tunes the per-symbol live poll loop.
type MonitorConfig struct {
	PollInterval   Duration `yaml:"poll_interval" validate:"required"`
	BarCount       int      `yaml:"bar_count" validate:"required,gt=0"`
	Category       int      `yaml:"category" validate:"gte=0"`
	ErrorBackoff   Duration `yaml:"error_backoff"`
	HealthLogEvery int      `yaml:"health_log_every" validate:"gte=0"`
}

// IndicatorConfig sets the indicator windows.
type IndicatorConfig struct {
	RSIPeriod       int     `yaml:"rsi_period" validate:"required,gt=1"`
	BollingerPeriod int     `yaml:"bollinger_period" validate:"required,gt=1"`
	BollingerStdDev float64 `yaml:"bollinger_std_dev" validate:"required,gt=0"`
	VolumeMAPeriod  int     `yaml:"volume_ma_period" validate:"required,gt=0"`
}

// GeneratorConfig carries the signal thresholds from the config file.
type GeneratorConfig struct {
	Mode               string   `yaml:"mode" validate:"required,oneof=left right hybrid"`
	RSIOversold        float64  `yaml:"rsi_oversold" validate:"required,gt=0,lt=100"`
	RSIOverbought      float64  `yaml:"rsi_overbought" validate:"required,gt=0,lt=100"`
	RSIDeepOversold    float64  `yaml:"rsi_deep_oversold" validate:"required,gt=0,lt=100"`
	RSIDeepOverbought  float64  `yaml:"rsi_deep_overbought" validate:"required,gt=0,lt=100"`
	RecoveryCeiling    float64  `yaml:"recovery_ceiling" validate:"required,gt=0,lt=100"`
	RecoveryFloor      float64  `yaml:"recovery_floor" validate:"required,gt=0,lt=100"`
	HybridBuyRSILimit  float64  `yaml:"hybrid_buy_rsi_limit" validate:"required,gt=0,lt=100"`
	HybridSellRSIFloor float64  `yaml:"hybrid_sell_rsi_floor" validate:"required,gt=0,lt=100"`
	BandTolerance      float64  `yaml:"band_tolerance" validate:"gte=0,lt=1"`
	NearBandTolerance  float64  `yaml:"near_band_tolerance" validate:"gte=0,lt=1"`
	LimitMove          float64  `yaml:"limit_move" validate:"required,gt=0,lt=1"`
	Cooldown           Duration `yaml:"cooldown" validate:"required"`
	RepeatPriceChange  float64  `yaml:"repeat_price_change" validate:"required,gt=0,lt=1"`
	SellVolumeRatio    float64  `yaml:"sell_volume_ratio" validate:"required,gt=0"`
	TrendFilter        bool     `yaml:"trend_filter"`
}

// PositionConfig seeds the T+1 position manager.
type PositionConfig struct {
	TotalShares int64 `yaml:"total_shares" validate:"gte=0"`
}

// NotifyConfig points alerts at a webhook. An empty URL disables
// notifications.
type NotifyConfig struct {
	WebhookURL string `yaml:"webhook_url" validate:"omitempty,url"`
}

// MetricsConfig exposes the Prometheus endpoint. An empty address
// disables the listener.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Config is the full application config file.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Quote     QuoteConfig     `yaml:"quote"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Generator GeneratorConfig `yaml:"generator"`
	Position  PositionConfig  `yaml:"position"`
	Notify    NotifyConfig    `yaml:"notify"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Default returns the config used when keys are absent from the file.
// The values mirror the component defaults.
func Default() Config {
	monCfg := monitor.DefaultConfig()
	params := indicator.DefaultParams()
	genCfg := generator.DefaultConfig(types.TradeModeHybrid)

	return Config{
		Log: LogConfig{Level: "info"},
		Watchlist: WatchlistConfig{
			Path:     "watchlist.txt",
			Interval: Duration(10 * time.Second),
		},
		Quote: QuoteConfig{
			Hosts:          []HostConfig{{Host: "127.0.0.1", Port: 7709}},
			RequestTimeout: Duration(10 * time.Second),
		},
		Monitor: MonitorConfig{
			PollInterval:   Duration(monCfg.PollInterval),
			BarCount:       monCfg.BarCount,
			Category:       int(monCfg.Category),
			ErrorBackoff:   Duration(monCfg.ErrorBackoff),
			HealthLogEvery: monCfg.HealthLogEvery,
		},
		Indicator: IndicatorConfig{
			RSIPeriod:       params.RSIPeriod,
			BollingerPeriod: params.BollingerPeriod,
			BollingerStdDev: params.BollingerStdDev,
			VolumeMAPeriod:  params.VolumeMAPeriod,
		},
		Generator: GeneratorConfig{
			Mode:               string(genCfg.Mode),
			RSIOversold:        genCfg.RSIOversold,
			RSIOverbought:      genCfg.RSIOverbought,
			RSIDeepOversold:    genCfg.RSIDeepOversold,
			RSIDeepOverbought:  genCfg.RSIDeepOverbought,
			RecoveryCeiling:    genCfg.RecoveryCeiling,
			RecoveryFloor:      genCfg.RecoveryFloor,
			HybridBuyRSILimit:  genCfg.HybridBuyRSILimit,
			HybridSellRSIFloor: genCfg.HybridSellRSIFloor,
			BandTolerance:      genCfg.BandTolerance,
			NearBandTolerance:  genCfg.NearBandTolerance,
			LimitMove:          genCfg.LimitMove,
			Cooldown:           Duration(genCfg.Cooldown),
			RepeatPriceChange:  genCfg.RepeatPriceChange,
			SellVolumeRatio:    genCfg.SellVolumeRatio,
			TrendFilter:        genCfg.TrendFilter,
		},
		Position: PositionConfig{TotalShares: 0},
		Notify:   NotifyConfig{WebhookURL: ""},
		Metrics:  MetricsConfig{ListenAddr: ""},
	}
}

// Load reads the YAML file at path over the defaults and validates the
// result. A missing file is an error; use Default directly to run
// without one.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "cannot read config file %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "cannot parse config file %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate validates the file schema and then the derived runtime
// configs, so every cross field rule of the components applies.
func (c Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if err := c.IndicatorParams().Validate(); err != nil {
		return err
	}

	if err := c.GeneratorConfig().Validate(); err != nil {
		return err
	}

	return c.MonitorConfig().Validate()
}

// MonitorConfig builds the live loop config.
func (c Config) MonitorConfig() monitor.Config {
	return monitor.Config{
		PollInterval:   c.Monitor.PollInterval.Std(),
		BarCount:       c.Monitor.BarCount,
		Category:       quote.KlineCategory(c.Monitor.Category),
		ErrorBackoff:   c.Monitor.ErrorBackoff.Std(),
		HealthLogEvery: c.Monitor.HealthLogEvery,
	}
}

// IndicatorParams builds the indicator engine params.
func (c Config) IndicatorParams() indicator.Params {
	return indicator.Params{
		RSIPeriod:       c.Indicator.RSIPeriod,
		BollingerPeriod: c.Indicator.BollingerPeriod,
		BollingerStdDev: c.Indicator.BollingerStdDev,
		VolumeMAPeriod:  c.Indicator.VolumeMAPeriod,
	}
}

// GeneratorConfig builds the signal generator config.
func (c Config) GeneratorConfig() generator.Config {
	return generator.Config{
		Mode:               types.TradeMode(c.Generator.Mode),
		RSIOversold:        c.Generator.RSIOversold,
		RSIOverbought:      c.Generator.RSIOverbought,
		RSIDeepOversold:    c.Generator.RSIDeepOversold,
		RSIDeepOverbought:  c.Generator.RSIDeepOverbought,
		RecoveryCeiling:    c.Generator.RecoveryCeiling,
		RecoveryFloor:      c.Generator.RecoveryFloor,
		HybridBuyRSILimit:  c.Generator.HybridBuyRSILimit,
		HybridSellRSIFloor: c.Generator.HybridSellRSIFloor,
		BandTolerance:      c.Generator.BandTolerance,
		NearBandTolerance:  c.Generator.NearBandTolerance,
		LimitMove:          c.Generator.LimitMove,
		Cooldown:           c.Generator.Cooldown.Std(),
		RepeatPriceChange:  c.Generator.RepeatPriceChange,
		SellVolumeRatio:    c.Generator.SellVolumeRatio,
		TrendFilter:        c.Generator.TrendFilter,
	}
}

// QuoteHosts builds the ranked quote host list.
func (c Config) QuoteHosts() []quote.Host {
	hosts := make([]quote.Host, len(c.Quote.Hosts))
	for i, h := range c.Quote.Hosts {
		hosts[i] = quote.Host{Host: h.Host, Port: h.Port}
	}

	return hosts
}
