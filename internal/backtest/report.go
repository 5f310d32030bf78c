// Package backtest accumulates the output of a backtest replay: the
// emitted signal log plus the indicator augmented bar series, and writes
// it as a YAML artifact for downstream charting.
package backtest

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

// SignalRecord is one emitted signal in the report.
type SignalRecord struct {
	Type   types.SignalType `yaml:"type"`
	Time   time.Time        `yaml:"time"`
	Price  float64          `yaml:"price"`
	Score  float64          `yaml:"score"`
	Tier   types.SignalTier `yaml:"tier"`
	Reason string           `yaml:"reason"`
}

// BarRecord is one bar with its indicator values. Indicator fields are
// pointers so warmup bars serialize as null rather than zero.
type BarRecord struct {
	Time   time.Time `yaml:"time"`
	Open   float64   `yaml:"open"`
	High   float64   `yaml:"high"`
	Low    float64   `yaml:"low"`
	Close  float64   `yaml:"close"`
	Volume float64   `yaml:"volume"`

	RSI            *float64 `yaml:"rsi,omitempty"`
	BollingerUpper *float64 `yaml:"bb_upper,omitempty"`
	BollingerMid   *float64 `yaml:"bb_mid,omitempty"`
	BollingerLower *float64 `yaml:"bb_lower,omitempty"`
	VolumeMA       *float64 `yaml:"vol_ma,omitempty"`
}

// Report is the full per-symbol backtest output.
type Report struct {
	Symbol  string           `yaml:"symbol"`
	Mode    types.TradeMode  `yaml:"mode"`
	Start   time.Time        `yaml:"start"`
	End     time.Time        `yaml:"end"`
	Signals []SignalRecord   `yaml:"signals"`
	Bars    []BarRecord      `yaml:"bars"`
}

// NewReport assembles a report from a replay's inputs and outputs.
func NewReport(symbol string, mode types.TradeMode, start, end time.Time, bars []types.Bar, sets []types.IndicatorSet, signals []types.Signal) *Report {
	r := &Report{
		Symbol:  symbol,
		Mode:    mode,
		Start:   start,
		End:     end,
		Signals: make([]SignalRecord, 0, len(signals)),
		Bars:    make([]BarRecord, 0, len(bars)),
	}

	for _, sig := range signals {
		r.Signals = append(r.Signals, SignalRecord{
			Type:   sig.Type,
			Time:   sig.Time,
			Price:  sig.Price,
			Score:  sig.Score,
			Tier:   sig.Tier,
			Reason: sig.Reason,
		})
	}

	for i, b := range bars {
		rec := BarRecord{
			Time:   b.Time,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}

		if i < len(sets) {
			rec.RSI = optionalPtr(sets[i].RSI.Take())
			rec.BollingerUpper = optionalPtr(sets[i].BollingerUpper.Take())
			rec.BollingerMid = optionalPtr(sets[i].BollingerMid.Take())
			rec.BollingerLower = optionalPtr(sets[i].BollingerLower.Take())
			rec.VolumeMA = optionalPtr(sets[i].VolumeMA.Take())
		}

		r.Bars = append(r.Bars, rec)
	}

	return r
}

// WriteYAML encodes the report to w.
func (r *Report) WriteYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()

	if err := enc.Encode(r); err != nil {
		return errors.Wrap(errors.ErrCodeBacktestReportWrite, "failed to encode backtest report", err)
	}

	return nil
}

// WriteFile writes the report to dir as <symbol>_<mode>.yaml and returns
// the path.
func (r *Report) WriteFile(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestReportWrite, "failed to create report directory", err)
	}

	path := filepath.Join(dir, r.Symbol+"_"+string(r.Mode)+".yaml")

	f, err := os.Create(path)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeBacktestReportWrite, "failed to create report file", err)
	}
	defer f.Close()

	if err := r.WriteYAML(f); err != nil {
		return "", err
	}

	return path, nil
}

func optionalPtr(v float64, err error) *float64 {
	if err != nil {
		return nil
	}

	return &v
}
