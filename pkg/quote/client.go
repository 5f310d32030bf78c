package quote

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/atrade-lab/tmonitor/internal/logger"
	"github.com/atrade-lab/tmonitor/internal/types"
	"github.com/atrade-lab/tmonitor/pkg/errors"
)

const defaultRequestTimeout = 10 * time.Second

// Client is a quote server client with ranked host failover. It is safe
// for concurrent use; requests are serialized over one connection.
type Client struct {
	mu sync.Mutex

	hosts   []Host
	dialer  *websocket.Dialer
	timeout time.Duration
	logger  *logger.Logger

	conn *websocket.Conn
}

// Option configures a Client.
type Option func(*Client)

// WithRequestTimeout overrides the per-request read/write deadline.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// NewClient creates a client over the ranked host list. No connection is
// made until the first request.
func NewClient(hosts []Host, log *logger.Logger, opts ...Option) (*Client, error) {
	if len(hosts) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfiguration, "at least one quote host is required")
	}

	c := &Client{
		hosts:   hosts,
		dialer:  websocket.DefaultDialer,
		timeout: defaultRequestTimeout,
		logger:  log,
		conn:    nil,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// GetBars fetches the most recent count bars for symbol at the interval
// selected by category.
func (c *Client) GetBars(ctx context.Context, symbol string, category KlineCategory, count int) ([]types.Bar, error) {
	return c.roundTrip(ctx, request{
		Op:       opBars,
		Symbol:   symbol,
		Category: category,
		Count:    count,
	})
}

// GetHistoricalBars fetches bars for symbol between start and end.
func (c *Client) GetHistoricalBars(ctx context.Context, symbol string, start, end time.Time) ([]types.Bar, error) {
	if !end.After(start) {
		return nil, errors.Newf(errors.ErrCodeHistoricalRange, "end %s is not after start %s", end, start)
	}

	return c.roundTrip(ctx, request{
		Op:     opHistory,
		Symbol: symbol,
		Start:  start,
		End:    end,
	})
}

// Close tears down the current connection, if any.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.dropConn()
}

// roundTrip sends one request and reads one response, reconnecting with
// failover when the connection is down or the exchange fails mid-flight.
func (c *Client) roundTrip(ctx context.Context, req request) ([]types.Bar, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error

	// one attempt on an existing connection plus one attempt per host
	for attempt := 0; attempt <= len(c.hosts); attempt++ {
		if c.conn == nil {
			if err := c.connect(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := c.exchange(req)
		if err != nil {
			lastErr = err

			_ = c.dropConn()

			continue
		}

		if resp.Code != 0 {
			return nil, errors.Newf(errors.ErrCodeQuoteServerError, "quote server rejected %s for %s: %s", req.Op, req.Symbol, resp.Msg)
		}

		if len(resp.Bars) == 0 {
			return nil, errors.Newf(errors.ErrCodeNoDataFound, "no bars returned for symbol: %s", req.Symbol)
		}

		return resp.Bars, nil
	}

	return nil, errors.Wrapf(errors.ErrCodeQuoteFetchFailed, lastErr, "quote %s for %s failed on every host", req.Op, req.Symbol)
}

// connect tries each ranked host in order. Callers must hold mu.
func (c *Client) connect(ctx context.Context) error {
	var lastErr error

	for _, h := range c.hosts {
		url := fmt.Sprintf("ws://%s:%d/quote", h.Host, h.Port)

		conn, httpResp, err := c.dialer.DialContext(ctx, url, nil)
		if err != nil {
			lastErr = err

			if c.logger != nil {
				c.logger.Debug("quote host dial failed, trying next",
					zap.String("url", url),
					zap.Error(err))
			}

			continue
		}

		if httpResp != nil && httpResp.Body != nil {
			httpResp.Body.Close()
		}

		if c.logger != nil {
			c.logger.Info("connected to quote host", zap.String("url", url))
		}

		c.conn = conn

		return nil
	}

	return errors.Wrap(errors.ErrCodeAllHostsExhausted, "all quote hosts unreachable", lastErr)
}

// exchange performs one write/read pair on the current connection.
// Callers must hold mu.
func (c *Client) exchange(req request) (*response, error) {
	deadline := time.Now().Add(c.timeout)

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}

	if err := c.conn.WriteJSON(req); err != nil {
		return nil, err
	}

	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, err
	}

	var resp response
	if err := c.conn.ReadJSON(&resp); err != nil {
		return nil, err
	}

	return &resp, nil
}

func (c *Client) dropConn() error {
	if c.conn == nil {
		return nil
	}

	err := c.conn.Close()
	c.conn = nil

	return err
}
