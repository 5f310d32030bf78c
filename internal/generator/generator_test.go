package generator

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"

	"github.com/atrade-lab/tmonitor/internal/position"
	"github.com/atrade-lab/tmonitor/internal/types"
)

type GeneratorTestSuite struct {
	suite.Suite
}

func TestGeneratorSuite(t *testing.T) {
	suite.Run(t, new(GeneratorTestSuite))
}

const testRSIPeriod = 2

// fixture builds aligned bar and indicator series. Bars default to one
// minute spacing, close 10, volume 1000; tests override per index.
type fixture struct {
	bars []types.Bar
	sets []types.IndicatorSet
}

func newFixture(n int, lower, upper float64) *fixture {
	start := time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
	f := &fixture{
		bars: make([]types.Bar, n),
		sets: make([]types.IndicatorSet, n),
	}

	for i := 0; i < n; i++ {
		f.bars[i] = types.Bar{
			Symbol: "000001",
			Time:   start.Add(time.Duration(i) * time.Minute),
			Open:   10,
			High:   10.1,
			Low:    9.9,
			Close:  10,
			Volume: 1000,
		}
		f.sets[i] = types.IndicatorSet{
			RSI:            optional.Some(50.0),
			BollingerUpper: optional.Some(upper),
			BollingerMid:   optional.Some((upper + lower) / 2),
			BollingerLower: optional.Some(lower),
			VolumeMA:       optional.Some(1000.0),
		}
	}

	return f
}

func (f *fixture) setRSI(i int, rsi float64) {
	f.sets[i].RSI = optional.Some(rsi)
}

func (s *GeneratorTestSuite) newGenerator(mode types.TradeMode) *Generator {
	gen, err := New("000001", DefaultConfig(mode), testRSIPeriod, nil, nil)
	s.Require().NoError(err)

	return gen
}

func (s *GeneratorTestSuite) TestNewRejectsUnknownMode() {
	cfg := DefaultConfig(types.TradeMode("middle"))
	_, err := New("000001", cfg, testRSIPeriod, nil, nil)
	s.Error(err)
}

func (s *GeneratorTestSuite) TestHybridOversoldCrossFiresOnce() {
	gen := s.newGenerator(types.TradeModeHybrid)
	f := newFixture(6, 9.5, 11)

	// RSI holds at 25, then crosses to 31 on the final bar
	for i := 0; i < 5; i++ {
		f.setRSI(i, 25)
	}

	f.setRSI(5, 31)
	f.bars[5].Volume = 1200 // moderate expansion confirms the buy

	var fired []types.Signal

	for i := range f.bars {
		if sig := gen.Evaluate(f.bars, f.sets, i); sig.IsSome() {
			fired = append(fired, sig.Unwrap())
		}
	}

	s.Require().Len(fired, 1)
	s.Equal(types.SignalTypeBuy, fired[0].Type)
	s.Equal(f.bars[5].Time, fired[0].Time)
	s.Contains(fired[0].Reason, "oversold cross")
	s.Equal(types.TradeModeHybrid, fired[0].Mode)
	s.NotEmpty(fired[0].ID)
}

func (s *GeneratorTestSuite) TestCooldownSuppressesNearbyRepeat() {
	gen := s.newGenerator(types.TradeModeLeft)

	// lower band high enough that every close counts as a band touch
	f := newFixture(7, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
		f.bars[i].Time = f.bars[0].Time.Add(time.Duration(i) * 30 * time.Second)
	}

	f.bars[5].Close = 10.02 // 0.2% above the first fill
	f.bars[6].Close = 10.1  // 1% above the first fill

	first := gen.Evaluate(f.bars, f.sets, 4)
	s.True(first.IsSome())

	// 30 seconds later, price barely moved: suppressed
	second := gen.Evaluate(f.bars, f.sets, 5)
	s.True(second.IsNone())

	// still inside the cooldown but price moved 1%: allowed
	third := gen.Evaluate(f.bars, f.sets, 6)
	s.True(third.IsSome())
}

func (s *GeneratorTestSuite) TestCooldownExpires() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(7, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	first := gen.Evaluate(f.bars, f.sets, 4)
	s.True(first.IsSome())

	// push the next candidate past the cooldown window
	f.bars[5].Time = f.bars[4].Time.Add(301 * time.Second)

	second := gen.Evaluate(f.bars, f.sets, 5)
	s.True(second.IsSome())
}

func (s *GeneratorTestSuite) TestLimitUpSuppressesSignal() {
	gen := s.newGenerator(types.TradeModeLeft)

	// perfect buy conditions, but the close is +10% on the session
	f := newFixture(6, 11.5, 13)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	f.bars[5].Open = 10.9
	f.bars[5].High = 11.1
	f.bars[5].Close = 11

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestLimitDownSuppressesSignal() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(6, 9.5, 13)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	f.bars[5].Open = 9.1
	f.bars[5].Low = 8.9
	f.bars[5].Close = 9

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestBelowMinIndexNeverSignals() {
	gen := s.newGenerator(types.TradeModeHybrid)
	s.Equal(testRSIPeriod+1, gen.MinIndex())

	f := newFixture(6, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	f.setRSI(2, 31)

	s.True(gen.Evaluate(f.bars, f.sets, 2).IsNone())
}

func (s *GeneratorTestSuite) TestIncompleteIndicatorsNoOp() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(6, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	f.sets[5].VolumeMA = optional.None[float64]()

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestBuyNeedsStabilizingCandle() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(6, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
		f.bars[i].Volume = 1200
	}

	// red candle: the downmove is still running
	f.bars[5].Open = 10.3
	f.bars[5].High = 10.35

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestBuyRejectsVolumeSurge() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(6, 10.2, 12)

	for i := range f.bars {
		f.setRSI(i, 25)
	}

	f.bars[5].Volume = 3000 // 3x the average

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestSellConfirmedByVolumeExpansion() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(6, 8, 9.9)

	for i := range f.bars {
		f.setRSI(i, 75)
	}

	f.bars[5].Volume = 1500

	sig := gen.Evaluate(f.bars, f.sets, 5)
	s.Require().True(sig.IsSome())
	s.Equal(types.SignalTypeSell, sig.Unwrap().Type)
	s.Contains(sig.Unwrap().Reason, "volume expansion")
}

func (s *GeneratorTestSuite) TestSellConfirmedByDivergence() {
	gen := s.newGenerator(types.TradeModeLeft)
	f := newFixture(8, 8, 9.9)

	for i := range f.bars {
		f.setRSI(i, 75)
	}

	// price grinds up while the late volume fades
	for i := 3; i < 8; i++ {
		f.bars[i].Close = 10 + 0.01*float64(i-3)
	}

	f.bars[6].Volume = 400
	f.bars[7].Volume = 400

	sig := gen.Evaluate(f.bars, f.sets, 7)
	s.Require().True(sig.IsSome())
	s.Contains(sig.Unwrap().Reason, "divergence")
}

func (s *GeneratorTestSuite) TestSellBlockedWithoutShares() {
	pos := position.NewManager(0)
	gen, err := New("000001", DefaultConfig(types.TradeModeLeft), testRSIPeriod, pos, nil)
	s.Require().NoError(err)

	f := newFixture(6, 8, 9.9)

	for i := range f.bars {
		f.setRSI(i, 75)
	}

	f.bars[5].Volume = 1500

	s.True(gen.Evaluate(f.bars, f.sets, 5).IsNone())
}

func (s *GeneratorTestSuite) TestRightModeRecoveryCross() {
	gen := s.newGenerator(types.TradeModeRight)
	f := newFixture(8, 9.5, 12)

	f.setRSI(5, 27)
	f.setRSI(6, 28)
	f.setRSI(7, 33)
	f.bars[7].Volume = 1200

	sig := gen.Evaluate(f.bars, f.sets, 7)
	s.Require().True(sig.IsSome())
	s.Equal(types.SignalTypeBuy, sig.Unwrap().Type)
	s.Contains(sig.Unwrap().Reason, "recovery cross")
}

func (s *GeneratorTestSuite) TestRightModeDeepRecovery() {
	gen := s.newGenerator(types.TradeModeRight)
	f := newFixture(8, 9.5, 12)

	f.setRSI(5, 18)
	f.setRSI(6, 15)
	f.setRSI(7, 24)
	f.bars[7].Volume = 1200

	sig := gen.Evaluate(f.bars, f.sets, 7)
	s.Require().True(sig.IsSome())
	s.Contains(sig.Unwrap().Reason, "deep oversold recovery")
}

func (s *GeneratorTestSuite) TestDeterministicReplay() {
	build := func() (*Generator, *fixture) {
		gen := s.newGenerator(types.TradeModeHybrid)
		f := newFixture(30, 10.2, 12)

		rsis := []float64{50, 50, 40, 33, 28, 25, 31, 36, 40, 50,
			55, 60, 66, 71, 72, 68, 66, 60, 50, 40,
			33, 28, 24, 22, 31, 40, 50, 55, 60, 65}

		for i, r := range rsis {
			f.setRSI(i, r)
			f.bars[i].Volume = 1200
		}

		return gen, f
	}

	replay := func() []types.Signal {
		gen, f := build()

		var out []types.Signal

		for i := range f.bars {
			if sig := gen.Evaluate(f.bars, f.sets, i); sig.IsSome() {
				v := sig.Unwrap()
				v.ID = ""
				out = append(out, v)
			}
		}

		return out
	}

	first := replay()
	second := replay()

	s.NotEmpty(first)
	s.Equal(first, second)
}
