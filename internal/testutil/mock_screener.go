// Package testutil provides testing utilities for the screener client.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock screener endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockScreener is a configurable mock screener API server for testing.
type MockScreener struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]func(w http.ResponseWriter, r *http.Request)

	// Tracking
	RequestCount      int
	RequestedPages    []string
	LastRequestHeader http.Header
}

// NewMockScreener creates a new mock screener server.
func NewMockScreener() *MockScreener {
	mock := &MockScreener{
		handlers: make(map[string]func(w http.ResponseWriter, r *http.Request)),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.RequestCount++
		mock.RequestedPages = append(mock.RequestedPages, r.URL.Query().Get("page"))
		mock.LastRequestHeader = r.Header.Clone()
		mock.mu.Unlock()

		mock.mu.RLock()
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.RUnlock()

		if exists {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockScreener) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockScreener) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockScreener) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RequestCount = 0
	m.RequestedPages = nil
	m.LastRequestHeader = nil
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockScreener) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.RequestCount
}

// GetRequestedPages returns the page parameter of every request, in order.
func (m *MockScreener) GetRequestedPages() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.RequestedPages))
	copy(out, m.RequestedPages)
	return out
}

// SetHandler sets a custom handler for a specific path.
func (m *MockScreener) SetHandler(path string, handler func(w http.ResponseWriter, r *http.Request)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockScreener) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			time.Sleep(resp.Delay)
		}
		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}
		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPages serves a paginated dataset at path. Each element of pages is the
// rows of one 1-based page; any page beyond the dataset returns an empty
// envelope. total and pageSize are echoed verbatim in every envelope, so a
// zero total exercises the empty-page sentinel.
func (m *MockScreener) SetPages(path string, pages [][]map[string]any, total, pageSize int) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		page := 0
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)

		rows := []map[string]any{}
		if page >= 1 && page <= len(pages) {
			rows = pages[page-1]
		}

		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]any{
			"rows":     rows,
			"total":    total,
			"pageSize": pageSize,
		})
	})
}

// FailThenSucceed serves failures status codes for the first failures
// requests to path, then delegates to next for the rest.
func (m *MockScreener) FailThenSucceed(path string, failures, status int, next func(w http.ResponseWriter, r *http.Request)) {
	var mu sync.Mutex
	served := 0
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		served++
		failing := served <= failures
		mu.Unlock()

		if failing {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": "upstream unavailable"}`))
			return
		}
		next(w, r)
	})
}

// RedirectChain serves count consecutive redirects with the given status
// starting at path, then delegates to final. Hop i redirects to
// path + "/hopN".
func (m *MockScreener) RedirectChain(path string, count, status int, final func(w http.ResponseWriter, r *http.Request)) {
	current := path
	for i := 1; i <= count; i++ {
		nextPath := fmt.Sprintf("%s/hop%d", path, i)
		target := m.server.URL + nextPath
		m.SetHandler(current, func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Location", target)
			w.WriteHeader(status)
		})
		current = nextPath
	}
	m.SetHandler(current, final)
}

// EnvelopeHandler returns a handler serving a single fixed page envelope.
func EnvelopeHandler(rows []map[string]any, total, pageSize int) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(map[string]any{
			"rows":     rows,
			"total":    total,
			"pageSize": pageSize,
		})
	}
}

// Rows builds n records with a "SecId" counting from offset, handy for
// asserting accumulation order.
func Rows(n, offset int) []map[string]any {
	rows := make([]map[string]any, n)
	for i := range rows {
		rows[i] = map[string]any{
			"SecId":     fmt.Sprintf("SEC%04d", offset+i),
			"LegalName": fmt.Sprintf("Security %d", offset+i),
		}
	}
	return rows
}

// defaultHandler serves an empty envelope.
func (m *MockScreener) defaultHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"rows": [], "total": 0, "pageSize": 0}`))
}
