package types

import (
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (s *SignalTestSuite) TestTradeModeValid() {
	s.True(TradeModeLeft.Valid())
	s.True(TradeModeRight.Valid())
	s.True(TradeModeHybrid.Valid())
	s.False(TradeMode("middle").Valid())
	s.False(TradeMode("").Valid())
}

func (s *SignalTestSuite) TestDedupKey() {
	at := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	a := Signal{Type: SignalTypeBuy, Time: at, Price: 10.234}
	b := Signal{Type: SignalTypeBuy, Time: at, Price: 10.2349}
	c := Signal{Type: SignalTypeSell, Time: at, Price: 10.234}

	// prices agree to two decimals, so a and b collapse to one event
	s.Equal(a.DedupKey(), b.DedupKey())
	s.NotEqual(a.DedupKey(), c.DedupKey())
}

func (s *SignalTestSuite) TestIndicatorSetComplete() {
	empty := IndicatorSet{}
	s.False(empty.Complete())

	partial := IndicatorSet{
		RSI:            optional.Some(28.5),
		BollingerUpper: optional.Some(11.2),
	}
	s.False(partial.Complete())

	full := IndicatorSet{
		RSI:            optional.Some(28.5),
		BollingerUpper: optional.Some(11.2),
		BollingerMid:   optional.Some(10.6),
		BollingerLower: optional.Some(10.0),
		VolumeMA:       optional.Some(15000.0),
	}
	s.True(full.Complete())
}

func (s *SignalTestSuite) TestBarSameDay() {
	a := Bar{Time: time.Date(2025, 3, 14, 9, 31, 0, 0, time.UTC)}
	b := Bar{Time: time.Date(2025, 3, 14, 14, 55, 0, 0, time.UTC)}
	c := Bar{Time: time.Date(2025, 3, 17, 9, 31, 0, 0, time.UTC)}

	s.True(a.SameDay(b))
	s.False(a.SameDay(c))
}
