/*
Package whois speaks the line-oriented availability protocol of the .li/.ch
registry lookup service.

One query is one TCP connection: the client sends "<label>.<tld>\r\n", reads
until a blank line, the peer closing, or 8 KiB, and classifies the first
response line "<code>: <text>" into a Status. Every connection is closed on
every exit path; no connection is reused across queries.
*/
package whois

/*
liscan — scanner for registrable .li domain labels
Copyright (C) 2025  Pepijn van der Stap <rxtls@vanderstap.info>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU Affero General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU Affero General Public License for more details.

You should have received a copy of the GNU Affero General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/text/encoding/unicode"

	"github.com/x-stp/liscan/internal/metrics"
)

// Lookup server defaults.
const (
	// DefaultHost is the registry lookup server for .li and .ch.
	DefaultHost = "whois.nic.ch"
	// DefaultPort is the availability-check port, not the WHOIS port 43.
	DefaultPort = 4343
	// DefaultTLD is appended to every label.
	DefaultTLD = "li"
	// DefaultTimeout bounds the connect and each read/write.
	DefaultTimeout = 10 * time.Second
	// MaxResponseSize caps the accumulated response.
	MaxResponseSize = 8192

	readChunkSize = 4096
)

var responseTerminator = []byte("\n\n")

// Config holds connection parameters for the lookup client.
// A zero-value field is replaced by its default.
type Config struct {
	Host string
	Port int
	TLD  string
	// DialTimeout bounds connection establishment, including DNS.
	DialTimeout time.Duration
	// IOTimeout bounds each individual write and read.
	IOTimeout time.Duration
	// MaxResponseSize caps how many bytes are accumulated before parsing.
	MaxResponseSize int
}

// DefaultConfig returns the settings for the public .li lookup service.
func DefaultConfig() *Config {
	return &Config{
		Host:            DefaultHost,
		Port:            DefaultPort,
		TLD:             DefaultTLD,
		DialTimeout:     DefaultTimeout,
		IOTimeout:       DefaultTimeout,
		MaxResponseSize: MaxResponseSize,
	}
}

// Client executes single availability queries. It has no retry logic.
// It holds no connection state and is safe for concurrent use.
type Client struct {
	cfg    Config
	dialer *net.Dialer
	logger *zap.Logger
}

// NewClient builds a client from cfg. A nil cfg means DefaultConfig; zero
// fields in a non-nil cfg are filled with defaults.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	c := *cfg
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.TLD == "" {
		c.TLD = DefaultTLD
	}
	c.TLD = strings.TrimPrefix(c.TLD, ".")
	if c.DialTimeout == 0 {
		c.DialTimeout = DefaultTimeout
	}
	if c.IOTimeout == 0 {
		c.IOTimeout = DefaultTimeout
	}
	if c.MaxResponseSize == 0 {
		c.MaxResponseSize = MaxResponseSize
	}

	return &Client{
		cfg:    c,
		dialer: &net.Dialer{Timeout: c.DialTimeout},
		logger: logger,
	}
}

// Config returns the effective configuration.
func (c *Client) Config() Config {
	return c.cfg
}

// Addr returns host:port of the lookup server.
func (c *Client) Addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

// FQDN appends the TLD suffix to label.
func (c *Client) FQDN(label string) string {
	return label + "." + c.cfg.TLD
}

// Query performs one lookup attempt for label.
//
// The returned Result is always populated. err is non-nil only when the
// attempt failed below the protocol: a *NetError (retryable) for socket
// failures, or the context error when ctx ended. Classified responses,
// including parse failures and empty bodies, come back with a nil error.
func (c *Client) Query(ctx context.Context, label string) (Result, error) {
	domain := c.FQDN(label)
	start := time.Now()
	observe := metrics.MeasureDuration(metrics.GetMetrics().QueryDuration)

	res, err := c.query(ctx, domain)
	res.Duration = time.Since(start)
	observe(res.Status.String())

	c.logger.Debug("lookup attempt",
		zap.String("domain", domain),
		zap.Stringer("status", res.Status),
		zap.Duration("took", res.Duration),
		zap.Error(err))
	return res, err
}

func (c *Client) query(ctx context.Context, domain string) (Result, error) {
	conn, err := c.dialer.DialContext(ctx, "tcp", c.Addr())
	if err != nil {
		return c.failure(ctx, domain, "dial", err)
	}
	defer closeConn(conn)

	// Unblock pending I/O as soon as ctx ends.
	stop := context.AfterFunc(ctx, func() {
		_ = conn.SetDeadline(time.Now())
	})
	defer stop()

	if err := conn.SetWriteDeadline(time.Now().Add(c.cfg.IOTimeout)); err != nil {
		return c.failure(ctx, domain, "write", err)
	}
	if _, err := conn.Write([]byte(domain + "\r\n")); err != nil {
		return c.failure(ctx, domain, "write", err)
	}

	raw, err := c.readResponse(conn)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		return c.failure(ctx, domain, "read", err)
	}

	return ParseResponse(domain, strings.TrimSpace(decodeUTF8(raw))), nil
}

// readResponse accumulates bytes until a blank line, the size cap, or EOF.
// A read timeout after some bytes arrived ends the response instead of
// failing it.
func (c *Client) readResponse(conn net.Conn) ([]byte, error) {
	buf := make([]byte, readChunkSize)
	var out []byte
	for {
		if err := conn.SetReadDeadline(time.Now().Add(c.cfg.IOTimeout)); err != nil {
			return out, err
		}
		n, err := conn.Read(buf)
		out = append(out, buf[:n]...)
		if bytes.Contains(out, responseTerminator) || len(out) >= c.cfg.MaxResponseSize {
			return out, nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out, nil
			}
			if isTimeout(err) && len(out) > 0 {
				return out, nil
			}
			return out, err
		}
	}
}

// failure turns an I/O error into a NetworkError result. Context ends are
// reported as such and are not retryable.
func (c *Client) failure(ctx context.Context, domain, op string, err error) (Result, error) {
	res := Result{Domain: domain, Status: NetworkError}
	if ctxErr := ctx.Err(); ctxErr != nil {
		res.Description = "network error (cancelled)"
		res.Raw = fmt.Sprintf("query interrupted: %v", ctxErr)
		return res, ctxErr
	}

	ne := &NetError{Op: op, Addr: c.Addr(), Timeout: isTimeout(err), Err: err}
	if ne.Timeout {
		res.Description = "network error (timeout)"
		res.Raw = fmt.Sprintf("connect or read timed out (%s)", c.cfg.IOTimeout)
	} else {
		res.Description = "network error (connection failed)"
		res.Raw = fmt.Sprintf("network error talking to %s - %v", c.Addr(), err)
	}
	return res, ne
}

// decodeUTF8 decodes raw as UTF-8, replacing invalid sequences with U+FFFD.
func decodeUTF8(raw []byte) string {
	out, err := unicode.UTF8.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}

// closeConn attempts an orderly shutdown, then closes. Shutdown errors are
// ignored.
func closeConn(conn net.Conn) {
	shutdownConn(conn)
	_ = conn.Close()
}
