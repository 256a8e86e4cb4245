// Package ntpclient queries a remote NTP server for the current time.
// Each query is a transient UDP exchange bounded by a timeout, retried a
// bounded number of times, and validated before its timestamp is trusted.
package ntpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/ntp"

	"github.com/ntpapi/ntpapi/internal/metrics"
)

const (
	// DefaultPort is the standard NTP port.
	DefaultPort = 123
	// DefaultTimeout bounds a single exchange.
	DefaultTimeout = 2 * time.Second
	// DefaultRetries is the number of extra attempts after the first.
	DefaultRetries = 1
	// MaxRetries caps the retry budget.
	MaxRetries = 5
)

// Result is the outcome of a successful exchange.
type Result struct {
	// Time is the server transmit timestamp, in UTC.
	Time        time.Time
	Server      string
	RTT         time.Duration
	Stratum     uint8
	ClockOffset time.Duration
}

// Options configures a Client. A zero Port or Timeout selects the default.
type Options struct {
	// Servers are tried in order; attempt n goes to Servers[n % len(Servers)].
	Servers []string
	Port    int
	Timeout time.Duration
	Retries int
}

// Validate checks the options and fills in defaults for zero values.
func (o *Options) Validate() error {
	servers := make([]string, 0, len(o.Servers))
	for _, s := range o.Servers {
		if s = strings.TrimSpace(s); s == "" {
			continue
		}
		if err := ValidateServer(s); err != nil {
			return err
		}
		servers = append(servers, s)
	}
	if len(servers) == 0 {
		return errors.New("at least one NTP server is required")
	}
	o.Servers = servers

	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.Port < 1 || o.Port > 65535 {
		return fmt.Errorf("invalid NTP port %d", o.Port)
	}

	if o.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", o.Timeout)
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}

	if o.Retries < 0 || o.Retries > MaxRetries {
		return fmt.Errorf("retries must be between 0 and %d, got %d", MaxRetries, o.Retries)
	}

	return nil
}

// ValidateServer rejects server values that carry their own port or
// brackets. The port is configured separately and joined per query.
func ValidateServer(server string) error {
	if strings.ContainsAny(server, "[]") {
		return fmt.Errorf("NTP server %q must be a bare host or IP", server)
	}
	if _, _, err := net.SplitHostPort(server); err == nil {
		return fmt.Errorf("NTP server %q must not include a port", server)
	}
	return nil
}

type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// Client performs NTP queries. It holds only read-only configuration and is
// safe for concurrent use.
type Client struct {
	opts    Options
	logger  *slog.Logger
	metrics metrics.Recorder
	dial    dialFunc
}

// New creates a Client.
func New(opts Options, logger *slog.Logger, recorder metrics.Recorder) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ntp options: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = metrics.NewNoop()
	}

	d := &net.Dialer{}
	return &Client{
		opts:    opts,
		logger:  logger,
		metrics: recorder,
		dial:    d.DialContext,
	}, nil
}

// Servers returns the configured server list.
func (c *Client) Servers() []string {
	return append([]string(nil), c.opts.Servers...)
}

// Query asks the configured servers for the current time, retrying
// timeouts and network failures up to the retry budget. A malformed reply
// is not retried. Cancelling ctx aborts the in-flight exchange.
func (c *Client) Query(ctx context.Context) (*Result, error) {
	return c.do(ctx, c.metrics)
}

// Ping performs a query and discards the result. Used by readiness checks,
// which are kept out of the query metrics.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, metrics.NewNoop())
	return err
}

func (c *Client) do(ctx context.Context, rec metrics.Recorder) (*Result, error) {
	attempts := c.opts.Retries + 1
	var lastErr *Error

	for i := 0; i < attempts; i++ {
		server := c.opts.Servers[i%len(c.opts.Servers)]

		if err := ctx.Err(); err != nil {
			return nil, fail(rec, &Error{Kind: KindTimeout, Server: server, Attempts: i, Err: err})
		}

		res, err := c.query(ctx, server, c.opts.Port, c.opts.Timeout)
		if err == nil {
			rec.IncNTPQuery("success")
			rec.ObserveNTPRoundTrip(res.RTT)
			return res, nil
		}

		lastErr = err
		lastErr.Attempts = i + 1

		c.logger.Warn("ntp query attempt failed",
			slog.String("server", server),
			slog.Int("attempt", i+1),
			slog.Int("max_attempts", attempts),
			slog.String("kind", err.Kind.String()),
			slog.String("error", err.Err.Error()),
		)

		if ctx.Err() != nil || !err.Kind.Retryable() {
			break
		}
	}

	return nil, fail(rec, lastErr)
}

func fail(rec metrics.Recorder, err *Error) error {
	rec.IncNTPQuery(err.Kind.String())
	return err
}

// QueryTime performs a single exchange with server:port bounded by timeout.
// Unlike Options, a zero timeout is an error.
func QueryTime(ctx context.Context, server string, port int, timeout time.Duration) (*Result, error) {
	if timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", timeout)
	}
	c, err := New(Options{Servers: []string{server}, Port: port, Timeout: timeout}, nil, nil)
	if err != nil {
		return nil, err
	}
	return c.Query(ctx)
}

func (c *Client) query(ctx context.Context, server string, port int, timeout time.Duration) (*Result, *Error) {
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	address := net.JoinHostPort(server, strconv.Itoa(port))

	resp, err := ntp.QueryWithOptions(address, ntp.QueryOptions{
		Timeout: timeout,
		Dialer:  c.dialer(attemptCtx),
	})
	if err != nil {
		// A cancelled context closes the socket, which surfaces as a read
		// error rather than a timeout.
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, &Error{Kind: KindTimeout, Server: server, Err: ctxErr}
		}
		if attemptCtx.Err() != nil {
			return nil, &Error{Kind: KindTimeout, Server: server, Err: err}
		}
		return nil, &Error{Kind: classify(err), Server: server, Err: err}
	}

	if err := checkReply(resp); err != nil {
		return nil, &Error{Kind: KindMalformedResponse, Server: server, Err: err}
	}

	return &Result{
		Time:        resp.Time.UTC(),
		Server:      server,
		RTT:         resp.RTT,
		Stratum:     resp.Stratum,
		ClockOffset: resp.ClockOffset,
	}, nil
}

// dialer returns an ntp dialer whose connection is closed when ctx ends.
func (c *Client) dialer(ctx context.Context) func(localAddress, remoteAddress string) (net.Conn, error) {
	return func(localAddress, remoteAddress string) (net.Conn, error) {
		conn, err := c.dial(ctx, "udp", remoteAddress)
		if err != nil {
			return nil, err
		}
		stop := context.AfterFunc(ctx, func() {
			_ = conn.Close()
		})
		return &ctxConn{Conn: conn, stop: stop}, nil
	}
}

// ctxConn detaches the context watcher on Close.
type ctxConn struct {
	net.Conn
	stop func() bool
}

func (c *ctxConn) Close() error {
	c.stop()
	return c.Conn.Close()
}

// ntpEpoch is the zero point of the NTP timestamp format.
var ntpEpoch = time.Date(1900, 1, 1, 0, 0, 0, 0, time.UTC)

// checkReply rejects replies whose timestamp cannot be trusted.
func checkReply(resp *ntp.Response) error {
	if resp == nil {
		return errors.New("empty response")
	}
	if err := resp.Validate(); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	if resp.Time.IsZero() || !resp.Time.After(ntpEpoch) {
		return errors.New("zero transmit timestamp")
	}
	if resp.RTT < 0 {
		return fmt.Errorf("negative round trip time %s", resp.RTT)
	}
	return nil
}
