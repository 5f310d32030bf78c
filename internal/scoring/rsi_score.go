package scoring

import "github.com/atrade-lab/tmonitor/internal/types"

// RSIIndicatorScore maps an RSI reading to the 0-20 indicator component.
// Deeper extremes earn more: a BUY at RSI 14 scores the full 20, a BUY at
// RSI 29 only 3.
func RSIIndicatorScore(rsi float64, signalType types.SignalType) float64 {
	if signalType == types.SignalTypeBuy {
		switch {
		case rsi < 15:
			return 20
		case rsi < 20:
			return 14
		case rsi < 25:
			return 8
		case rsi < 30:
			return 3
		}

		return 0
	}

	switch {
	case rsi > 85:
		return 20
	case rsi > 80:
		return 14
	case rsi > 75:
		return 8
	case rsi > 70:
		return 3
	}

	return 0
}
