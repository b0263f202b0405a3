// Package client provides the resilient HTTP executor for the screener
// upstream: bounded manual redirect following and retry with exponential
// backoff and jitter.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for request execution.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_requests_total",
		Help: "Total screener requests by endpoint and status",
	}, []string{"endpoint", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "screener_request_duration_seconds",
		Help:    "Screener logical request duration in seconds by endpoint",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	}, []string{"endpoint"})

	redirectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screener_redirects_followed_total",
		Help: "Total redirects followed across all requests",
	})
)

// DefaultMaxRedirects is the redirect budget per logical request.
const DefaultMaxRedirects = 5

// RequestSpec describes one logical HTTP request. It is immutable for the
// duration of the call; only the target URL changes while following
// redirects.
type RequestSpec struct {
	// Method defaults to GET when empty.
	Method string

	// URL is the request target without query string.
	URL string

	// Params is the ordered query parameter list.
	Params Params

	// Header holds extra request headers, re-applied identically on every
	// retry attempt and redirect hop.
	Header http.Header

	// Body is the optional request body.
	Body []byte

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Proxies maps URL scheme to proxy URL, e.g.
	// {"https": "http://host:port"}.
	Proxies map[string]string

	// Timeout bounds each physical request attempt.
	Timeout time.Duration
}

// UserAgentProvider supplies the User-Agent header value. One value is drawn
// per logical request and re-used on every attempt and hop.
type UserAgentProvider interface {
	UserAgent() string
}

// Config holds the client configuration.
type Config struct {
	// UserAgent provides the User-Agent header (REQUIRED).
	UserAgent UserAgentProvider

	// MaxRetries is the number of retries after the initial attempt.
	MaxRetries int

	// BackoffBase is the base factor for exponential backoff.
	BackoffBase time.Duration

	// MaxRedirects is the redirect budget per logical request.
	MaxRedirects int

	// Rand is the jitter source. Defaults to a time-seeded source.
	Rand Rand
}

// DefaultConfig returns a safe default configuration. Retry settings come
// from DefaultRetryPolicy.
func DefaultConfig(ua UserAgentProvider) Config {
	policy := DefaultRetryPolicy()
	return Config{
		UserAgent:    ua,
		MaxRetries:   policy.MaxRetries,
		BackoffBase:  policy.BackoffBase,
		MaxRedirects: DefaultMaxRedirects,
	}
}

// Client executes logical requests against the screener upstream.
type Client struct {
	cfg        Config
	rng        Rand
	logger     zerolog.Logger
	httpClient *http.Client // non-nil only when set via SetHTTPClient
}

// New creates a new executor client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == nil {
		return nil, fmt.Errorf("user-agent provider is required")
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must be >= 0 (got %d)", cfg.MaxRetries)
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = 1 * time.Second
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = DefaultMaxRedirects
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Client{
		cfg:    cfg,
		rng:    rng,
		logger: log.With().Str("component", "screener-client").Logger(),
	}, nil
}

// Do executes one logical request: redirects are followed manually up to the
// budget, and transient failures are retried with exponential backoff. On
// success (or when the redirect budget runs out) the last response is
// returned with its body unread; the caller owns closing it.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (*http.Response, error) {
	if spec.Method == "" {
		spec.Method = http.MethodGet
	}

	requestID := uuid.NewString()
	userAgent := c.cfg.UserAgent.UserAgent()
	endpoint := endpointLabel(spec.URL)

	logger := c.logger.With().
		Str("request_id", requestID).
		Str("method", spec.Method).
		Str("url", spec.URL).
		Logger()

	httpClient := c.httpClient
	if httpClient == nil {
		var err error
		httpClient, err = newHTTPClient(spec)
		if err != nil {
			return nil, err
		}
	}

	start := time.Now()
	defer func() {
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	}()

	var resp *http.Response
	var lastClass ErrorClass

	// The redirect budget spans the whole logical request: a retried
	// attempt does not get a fresh budget.
	redirects := 0

	attempt := func() error {
		r, err := c.send(ctx, httpClient, spec, spec.URL, userAgent, requestID)
		if err != nil {
			lastClass = ErrorClassNetwork
			requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
			logger.Error().Err(err).Msg("HTTP request failed")
			return err
		}

		// Follow 301/307 manually so headers and proxy settings are
		// re-applied identically on every hop. Running out of budget is
		// not an error: the last response is handed back as-is.
		for isRedirect(r.StatusCode) && redirects < c.cfg.MaxRedirects {
			location := r.Header.Get("Location")
			if location == "" {
				break
			}
			// Relative Location values resolve against the hop that
			// issued them.
			if u, err := url.Parse(location); err == nil && !u.IsAbs() {
				location = r.Request.URL.ResolveReference(u).String()
			}
			drain(r)
			redirects++
			redirectsTotal.Inc()

			logger.Debug().
				Str("location", location).
				Int("redirects", redirects).
				Msg("Following redirect")

			r, err = c.send(ctx, httpClient, spec, location, userAgent, requestID)
			if err != nil {
				lastClass = ErrorClassNetwork
				requestsTotal.WithLabelValues(endpoint, "network_error").Inc()
				logger.Error().Err(err).Msg("HTTP request failed after redirect")
				return err
			}
		}

		requestsTotal.WithLabelValues(endpoint, strconv.Itoa(r.StatusCode)).Inc()

		if r.StatusCode >= 200 && r.StatusCode < 300 {
			resp = r
			return nil
		}

		if r.StatusCode >= 300 && r.StatusCode < 400 {
			// Redirect budget exhausted or a 3xx we do not follow.
			logger.Warn().
				Int("status", r.StatusCode).
				Int("redirects", redirects).
				Msg("Returning redirect response without following")
			resp = r
			return nil
		}

		lastClass = classifyStatus(r.StatusCode)
		statusErr := &StatusError{
			StatusCode: r.StatusCode,
			URL:        r.Request.URL.String(),
			Class:      lastClass,
			Message:    r.Status,
		}
		drain(r)
		return statusErr
	}

	policy := RetryPolicy{MaxRetries: c.cfg.MaxRetries, BackoffBase: c.cfg.BackoffBase}
	err := retryWithBackoff(ctx, policy, c.rng, logger, attempt, func(error) ErrorClass {
		return lastClass
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// send issues one physical request against target.
func (c *Client) send(ctx context.Context, httpClient *http.Client, spec RequestSpec, target, userAgent, requestID string) (*http.Response, error) {
	reqURL := target
	if q := spec.Params.Encode(); q != "" {
		if strings.Contains(target, "?") {
			reqURL = target + "&" + q
		} else {
			reqURL = target + "?" + q
		}
	}

	var body io.Reader
	if len(spec.Body) > 0 {
		body = bytes.NewReader(spec.Body)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for key, values := range spec.Header {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	return httpClient.Do(req)
}

// SetHTTPClient sets a custom HTTP client (for testing). Transport-level
// redirect following is disabled on a copy; redirects stay under manual
// control.
func (c *Client) SetHTTPClient(hc *http.Client) {
	cp := *hc
	cp.CheckRedirect = noFollow
	c.httpClient = &cp
}

// newHTTPClient builds the per-spec HTTP client. Redirect following is
// disabled at the transport level; Do handles redirects itself.
func newHTTPClient(spec RequestSpec) (*http.Client, error) {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}

	if len(spec.Proxies) > 0 {
		proxies := make(map[string]*url.URL, len(spec.Proxies))
		for scheme, raw := range spec.Proxies {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("parse proxy URL for scheme %q: %w", scheme, err)
			}
			proxies[scheme] = u
		}
		transport.Proxy = func(req *http.Request) (*url.URL, error) {
			return proxies[req.URL.Scheme], nil
		}
	}

	if spec.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &http.Client{
		Transport:     transport,
		Timeout:       spec.Timeout,
		CheckRedirect: noFollow,
	}, nil
}

func noFollow(req *http.Request, via []*http.Request) error {
	return http.ErrUseLastResponse
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

// endpointLabel reduces a request URL to its path for metric labels.
func endpointLabel(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" {
		return rawURL
	}
	return u.Path
}
