package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/finquery/screener-client/internal/testutil"
)

type staticAgent string

func (s staticAgent) UserAgent() string { return string(s) }

// seqAgent returns a different User-Agent on every call, to prove one value
// is drawn per logical request.
type seqAgent struct{ n int }

func (s *seqAgent) UserAgent() string {
	s.n++
	return fmt.Sprintf("agent/%d", s.n)
}

func newTestClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := New(cfg)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return c
}

func fastConfig(maxRetries int) Config {
	return Config{
		UserAgent:   staticAgent("test-agent/1.0"),
		MaxRetries:  maxRetries,
		BackoffBase: time.Millisecond,
		Rand:        zeroRand{},
	}
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:        "valid config",
			config:      DefaultConfig(staticAgent("test/1.0")),
			expectError: false,
		},
		{
			name:        "missing user agent",
			config:      Config{MaxRetries: 3},
			expectError: true,
		},
		{
			name: "negative retries",
			config: Config{
				UserAgent:  staticAgent("test/1.0"),
				MaxRetries: -1,
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.config)
			if tt.expectError && err == nil {
				t.Error("Expected error, got nil")
			}
			if !tt.expectError && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestDefaultConfig_UsesRetryPolicyDefaults(t *testing.T) {
	cfg := DefaultConfig(staticAgent("test/1.0"))
	policy := DefaultRetryPolicy()

	if cfg.MaxRetries != policy.MaxRetries {
		t.Errorf("MaxRetries = %d, want %d", cfg.MaxRetries, policy.MaxRetries)
	}
	if cfg.BackoffBase != policy.BackoffBase {
		t.Errorf("BackoffBase = %v, want %v", cfg.BackoffBase, policy.BackoffBase)
	}
	if cfg.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("MaxRedirects = %d, want %d", cfg.MaxRedirects, DefaultMaxRedirects)
	}
}

func TestNew_Defaults(t *testing.T) {
	c := newTestClient(t, Config{UserAgent: staticAgent("test/1.0")})

	if c.cfg.BackoffBase != 1*time.Second {
		t.Errorf("BackoffBase = %v, want 1s", c.cfg.BackoffBase)
	}
	if c.cfg.MaxRedirects != DefaultMaxRedirects {
		t.Errorf("MaxRedirects = %d, want %d", c.cfg.MaxRedirects, DefaultMaxRedirects)
	}
	if c.rng == nil {
		t.Error("Rand source should default to a seeded source")
	}
}

func TestDo_Success(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	mock.SetResponse("/api", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"rows": [], "total": 0, "pageSize": 0}`,
		Headers:    map[string]string{"Content-Type": "application/json"},
	})

	c := newTestClient(t, fastConfig(3))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if mock.GetRequestCount() != 1 {
		t.Errorf("Request count = %d, want 1", mock.GetRequestCount())
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "rows") {
		t.Errorf("Unexpected body: %s", body)
	}
}

func TestDo_SetsHeaders(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	c := newTestClient(t, fastConfig(0))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	header := mock.LastRequestHeader
	if got := header.Get("User-Agent"); got != "test-agent/1.0" {
		t.Errorf("User-Agent = %q, want test-agent/1.0", got)
	}
	if got := header.Get("Accept"); got != "application/json" {
		t.Errorf("Accept = %q, want application/json", got)
	}
	if header.Get("X-Request-Id") == "" {
		t.Error("X-Request-Id header missing")
	}
}

func TestDo_FollowsRedirects(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	var finalQuery string
	mock.RedirectChain("/api", 2, http.StatusMovedPermanently, func(w http.ResponseWriter, r *http.Request) {
		finalQuery = r.URL.Query().Get("term")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"rows": [], "total": 0, "pageSize": 0}`))
	})

	c := newTestClient(t, fastConfig(0))

	resp, err := c.Do(context.Background(), RequestSpec{
		URL:    mock.URL() + "/api",
		Params: NewParams("term", "bank"),
	})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("Request count = %d, want 3 (origin + 2 hops)", mock.GetRequestCount())
	}
	// The identical request, parameters included, is re-issued on each hop.
	if finalQuery != "bank" {
		t.Errorf("Final hop term = %q, want bank", finalQuery)
	}
}

func TestDo_RedirectWithin5Hops(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	mock.RedirectChain("/api", 5, http.StatusTemporaryRedirect, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"rows": [], "total": 0, "pageSize": 0}`))
	})

	c := newTestClient(t, fastConfig(2))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if mock.GetRequestCount() != 6 {
		t.Errorf("Request count = %d, want 6", mock.GetRequestCount())
	}
}

func TestDo_RedirectBudgetExhausted(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	// Six consecutive redirects: the budget covers five hops, the sixth
	// redirect response is handed back as-is, without error and without
	// burning retry attempts.
	mock.RedirectChain("/api", 6, http.StatusMovedPermanently, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	c := newTestClient(t, fastConfig(2))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusMovedPermanently {
		t.Errorf("StatusCode = %d, want 301", resp.StatusCode)
	}
	if resp.Header.Get("Location") == "" {
		t.Error("Expected the unfollowed redirect response to carry its Location header")
	}
	if mock.GetRequestCount() != 6 {
		t.Errorf("Request count = %d, want 6 (origin + 5 followed hops)", mock.GetRequestCount())
	}
}

func TestDo_RetryThenSuccess(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	mock.FailThenSucceed("/api", 2, http.StatusInternalServerError,
		testutil.EnvelopeHandler(testutil.Rows(3, 0), 3, 10))

	c := newTestClient(t, fastConfig(2))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("Request count = %d, want 3", mock.GetRequestCount())
	}
}

func TestDo_RetryExhausted(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	mock.SetResponse("/api", testutil.MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       `{"error": "upstream unavailable"}`,
	})

	c := newTestClient(t, fastConfig(2))

	_, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError in chain, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("StatusCode = %d, want 500", statusErr.StatusCode)
	}
	if statusErr.Class != ErrorClassServer {
		t.Errorf("Class = %q, want server", statusErr.Class)
	}
	if mock.GetRequestCount() != 3 {
		t.Errorf("Request count = %d, want 3 (retries + 1)", mock.GetRequestCount())
	}
}

func TestDo_ClientErrorsAreRetried(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	// The upstream screener intermittently answers 4xx under load, so
	// client statuses burn the retry budget like server ones.
	mock.SetResponse("/api", testutil.MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       `{"error": "slow down"}`,
	})

	c := newTestClient(t, fastConfig(1))

	_, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected StatusError in chain, got %v", err)
	}
	if statusErr.Class != ErrorClassClient {
		t.Errorf("Class = %q, want client", statusErr.Class)
	}
	if mock.GetRequestCount() != 2 {
		t.Errorf("Request count = %d, want 2", mock.GetRequestCount())
	}
}

func TestDo_NetworkError(t *testing.T) {
	mock := testutil.NewMockScreener()
	target := mock.URL() + "/api"
	mock.Close() // connection refused from here on

	c := newTestClient(t, fastConfig(1))

	_, err := c.Do(context.Background(), RequestSpec{URL: target})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		t.Errorf("Transport failures should not produce a StatusError, got %v", statusErr)
	}
}

func TestDo_TimeoutBoundsEachAttempt(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	mock.SetResponse("/api", testutil.MockResponse{
		StatusCode: http.StatusOK,
		Body:       `{"rows": []}`,
		Delay:      200 * time.Millisecond,
	})

	c := newTestClient(t, fastConfig(0))

	_, err := c.Do(context.Background(), RequestSpec{
		URL:     mock.URL() + "/api",
		Timeout: 20 * time.Millisecond,
	})
	if err == nil {
		t.Fatal("Expected timeout error, got nil")
	}
	if !errors.Is(err, ErrRetryExhausted) {
		t.Errorf("Expected ErrRetryExhausted, got %v", err)
	}
}

func TestDo_UserAgentStablePerLogicalRequest(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	var agents []string
	mock.SetHandler("/api", func(w http.ResponseWriter, r *http.Request) {
		agents = append(agents, r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusInternalServerError)
	})

	cfg := fastConfig(2)
	cfg.UserAgent = &seqAgent{}
	c := newTestClient(t, cfg)

	_, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err == nil {
		t.Fatal("Expected error, got nil")
	}

	if len(agents) != 3 {
		t.Fatalf("Expected 3 attempts, got %d", len(agents))
	}
	for i, agent := range agents {
		if agent != "agent/1" {
			t.Errorf("Attempt %d User-Agent = %q, want agent/1 on every attempt", i+1, agent)
		}
	}
}

func TestDo_DefaultsToGET(t *testing.T) {
	mock := testutil.NewMockScreener()
	defer mock.Close()

	var method string
	mock.SetHandler("/api", func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{}`))
	})

	c := newTestClient(t, fastConfig(0))

	resp, err := c.Do(context.Background(), RequestSpec{URL: mock.URL() + "/api"})
	if err != nil {
		t.Fatalf("Do() failed: %v", err)
	}
	resp.Body.Close()

	if method != http.MethodGet {
		t.Errorf("Method = %q, want GET", method)
	}
}
