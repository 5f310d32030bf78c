package backtest

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
	"gopkg.in/yaml.v3"

	"github.com/atrade-lab/tmonitor/internal/types"
)

type ReportTestSuite struct {
	suite.Suite
}

func TestReportSuite(t *testing.T) {
	suite.Run(t, new(ReportTestSuite))
}

func (s *ReportTestSuite) sampleReport() *Report {
	start := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)

	bars := []types.Bar{
		{Symbol: "000001", Time: start, Open: 10, High: 10.2, Low: 9.9, Close: 10.1, Volume: 1000},
		{Symbol: "000001", Time: start.Add(time.Minute), Open: 10.1, High: 10.3, Low: 10, Close: 10.2, Volume: 1200},
	}

	sets := []types.IndicatorSet{
		{},
		{
			RSI:            optional.Some(28.5),
			BollingerUpper: optional.Some(10.5),
			BollingerMid:   optional.Some(10.2),
			BollingerLower: optional.Some(9.9),
			VolumeMA:       optional.Some(1100.0),
		},
	}

	signals := []types.Signal{
		{
			Symbol: "000001",
			Type:   types.SignalTypeBuy,
			Time:   start.Add(time.Minute),
			Price:  10.2,
			Score:  72,
			Tier:   types.SignalTierMedium,
			Reason: "oversold cross off lower band (RSI 31.0); moderate volume, stabilizing candle",
		},
	}

	return NewReport("000001", types.TradeModeHybrid, start, start.Add(time.Minute), bars, sets, signals)
}

func (s *ReportTestSuite) TestNewReport() {
	r := s.sampleReport()

	s.Equal("000001", r.Symbol)
	s.Equal(types.TradeModeHybrid, r.Mode)
	s.Require().Len(r.Signals, 1)
	s.Equal(types.SignalTypeBuy, r.Signals[0].Type)
	s.Require().Len(r.Bars, 2)

	// warmup bar serializes without indicator values
	s.Nil(r.Bars[0].RSI)
	s.Require().NotNil(r.Bars[1].RSI)
	s.InDelta(28.5, *r.Bars[1].RSI, 1e-9)
}

func (s *ReportTestSuite) TestWriteYAMLRoundTrip() {
	r := s.sampleReport()

	var buf bytes.Buffer
	s.Require().NoError(r.WriteYAML(&buf))

	var decoded Report
	s.Require().NoError(yaml.Unmarshal(buf.Bytes(), &decoded))

	s.Equal(r.Symbol, decoded.Symbol)
	s.Equal(r.Mode, decoded.Mode)
	s.Len(decoded.Signals, 1)
	s.Equal(r.Signals[0].Reason, decoded.Signals[0].Reason)
	s.Len(decoded.Bars, 2)
	s.Nil(decoded.Bars[0].RSI)
	s.NotNil(decoded.Bars[1].RSI)
}

func (s *ReportTestSuite) TestWriteFile() {
	r := s.sampleReport()
	dir := s.T().TempDir()

	path, err := r.WriteFile(dir)
	s.Require().NoError(err)
	s.Contains(path, "000001_hybrid.yaml")

	data, err := os.ReadFile(path)
	s.Require().NoError(err)
	s.Contains(string(data), "000001")
	s.Contains(string(data), "mode: hybrid")
}
