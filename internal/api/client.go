// Package api is the typed client of the recipes REST backend.
//
// The backend multiplexes writes on a shared endpoint with an "action" query parameter.
// The client hides that behind one method per operation.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"recipeshare/internal/cache"
	"recipeshare/internal/metrics"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// BreakerConfig holds the circuit breaker thresholds for backend calls.
type BreakerConfig struct {
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	MinRequests      uint32
	FailureThreshold float64
}

// Options configures a Client. BaseURL is required.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	Breaker    BreakerConfig
	HTTPClient *http.Client
	// Cache enables read-through caching of public reads; nil disables it.
	Cache   *cache.ResponseCache
	Metrics *metrics.Metrics
	Logger  *zap.Logger
}

type Client struct {
	base    *url.URL
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
	cache   *cache.ResponseCache
	sf      singleflight.Group
	metrics *metrics.Metrics
	log     *zap.Logger
}

// New returns a Client for the backend at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api base url: scheme must be http or https, got %q", base.Scheme)
	}
	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		hc = &http.Client{Timeout: timeout}
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	c := &Client{
		base:    base,
		http:    hc,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		log:     log,
	}
	c.breaker = newBreaker(opts.Breaker, log)
	return c, nil
}

func newBreaker(cfg BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	if cfg.MinRequests == 0 {
		cfg.MinRequests = 5
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 0.8
	}
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "rest-backend",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name), zap.Stringer("from", from), zap.Stringer("to", to))
		},
		// 4xx answers and abandoned calls are the caller's problem, not the backend's.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var abandoned callerDoneError
			if errors.As(err, &abandoned) {
				return true
			}
			status := StatusOf(err)
			return status != 0 && status < http.StatusInternalServerError
		},
	})
}

// callerDoneError marks a failure caused by the caller's context ending mid-call.
type callerDoneError struct{ err error }

func (e callerDoneError) Error() string { return e.err.Error() }
func (e callerDoneError) Unwrap() error { return e.err }

// call describes one backend request.
type call struct {
	op     string
	method string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, rq call, out any) error {
	_, err := c.breaker.Execute(func() (any, error) {
		err := c.roundTrip(ctx, rq, out)
		if err != nil && ctx.Err() != nil {
			return nil, callerDoneError{err: err}
		}
		return nil, err
	})
	var abandoned callerDoneError
	if errors.As(err, &abandoned) {
		err = abandoned.err
	}
	c.metrics.BackendCall(rq.op, err)
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", rq.op, err)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, rq call, out any) error {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + rq.path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return fmt.Errorf("%s: bad path: %w", rq.op, err)
	}
	u.Path = p
	if len(rq.query) > 0 {
		u.RawQuery = rq.query.Encode()
	}

	var body io.Reader
	if rq.body != nil {
		b, err := json.Marshal(rq.body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", rq.op, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, rq.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", rq.op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", rq.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var eb errorBody
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&eb)
		apiErr := &Error{Op: rq.op, Status: resp.StatusCode, Message: eb.text(resp.StatusCode)}
		c.log.Debug("backend call failed",
			zap.String("op", rq.op), zap.String("method", rq.method), zap.String("path", rq.path),
			zap.Int("status", resp.StatusCode))
		return apiErr
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", rq.op, err)
	}
	return nil
}

// pathf builds an escaped path from raw segments.
func pathf(segments ...string) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}
