// Package backend talks to the remote delivery REST API. Every call carries
// an explicit Session whose token is sent in the custom "token" header.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"frost_dispatch/internal/metrics"
)

// ErrUnavailable is returned while the circuit breaker refuses calls.
var ErrUnavailable = errors.New("backend unavailable")

// Session is the per-operator identity and credential used by all outgoing calls.
type Session struct {
	ID      string
	AdminID uint
	Role    string
	Token   string
}

// StatusError is a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Code, e.Body)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client builds URLs and headers for the delivery backend.
type Client struct {
	baseURL string
	session *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.session = hc }
}

// WithTimeout sets the per-request timeout of the default http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.session.Timeout = d }
}

// WithBreaker replaces the circuit breaker settings.
func WithBreaker(st gobreaker.Settings) Option {
	return func(c *Client) { c.breaker = gobreaker.NewCircuitBreaker(st) }
}

// NewClient returns a client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: &http.Client{Timeout: 15 * time.Second},
	}
	c.breaker = gobreaker.NewCircuitBreaker(DefaultBreakerSettings("delivery-backend"))
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// DefaultBreakerSettings trips after five consecutive transport or 5xx failures.
// 4xx answers are the caller's problem and never count as failures.
func DefaultBreakerSettings(name string) gobreaker.Settings {
	return gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < 500
			}
			return errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.Set(float64(to))
			logrus.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Backend circuit breaker state changed.")
		},
	}
}

// BaseURL returns the root every path is resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// URL builds an absolute URL for path with the given query.
func (c *Client) URL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) newRequest(
	ctx context.Context,
	s Session,
	method string,
	path string,
	query url.Values,
	body any,
) (*http.Request, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(path, query), rdr)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if s.Token != "" {
		req.Header.Set("token", s.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// call sends one request through the breaker and decodes a JSON answer into out
// (when out is non-nil). endpoint is a low-cardinality label for metrics.
func (c *Client) call(
	ctx context.Context,
	s Session,
	endpoint string,
	method string,
	path string,
	query url.Values,
	body any,
	out any,
) error {
	req, err := c.newRequest(ctx, s, method, path, query, body)
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(req)
	})
	metrics.BackendLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.BackendRequests.WithLabelValues(endpoint, statusLabel(err)).Inc()
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("%s %s: %w", method, path, ErrUnavailable)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	metrics.BackendRequests.WithLabelValues(endpoint, "ok").Inc()

	payload := res.([]byte)
	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.session.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return b, nil
}

func statusLabel(err error) string {
	var se *StatusError
	if errors.As(err, &se) {
		return strconv.Itoa(se.Code)
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "breaker_open"
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return "network"
	}
	return "error"
}

// decodeList accepts either a bare JSON array or an envelope {"data": [...]}.
func decodeList[T any](raw json.RawMessage) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []T{}, nil
	}
	if raw[0] == '[' {
		var out []T
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	var env struct {
		Data []T `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []T{}, nil
	}
	return env.Data, nil
}
