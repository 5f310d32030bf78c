// Package quote fetches bar data from a quote server over a WebSocket
// JSON protocol. Servers are configured as a ranked list of host:port
// candidates tried in order; the first one that connects serves all
// requests until it fails, at which point the client fails over to the
// next candidate.
package quote

import (
	"time"

	"github.com/atrade-lab/tmonitor/internal/types"
)

// KlineCategory selects the bar interval in a bars request.
type KlineCategory int

const (
	Kline5Min  KlineCategory = 0
	Kline15Min KlineCategory = 1
	Kline30Min KlineCategory = 2
	Kline1Hour KlineCategory = 3
	KlineDaily KlineCategory = 4
	Kline1Min  KlineCategory = 7
)

const (
	opBars    = "bars"
	opHistory = "history"
)

// request is one client frame.
type request struct {
	Op       string        `json:"op"`
	Symbol   string        `json:"symbol"`
	Category KlineCategory `json:"category,omitempty"`
	Count    int           `json:"count,omitempty"`
	Start    time.Time     `json:"start,omitempty"`
	End      time.Time     `json:"end,omitempty"`
}

// response is one server frame. A non-zero code carries an error
// message in Msg.
type response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg,omitempty"`
	Bars []types.Bar `json:"bars,omitempty"`
}

// Host is one ranked quote server candidate.
type Host struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required,gt=0"`
}
