package pagination

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finquery/screener-client/pkg/client"
)

// Prometheus metrics for page collection.
var (
	pagesFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "screener_pages_fetched_total",
		Help: "Total pages fetched across all collections",
	})

	collectionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "screener_collections_total",
		Help: "Total collection calls by outcome",
	}, []string{"outcome"})
)

// ErrPageLimitExceeded is returned when a collection crosses the hard page
// ceiling. It guards against an upstream that never returns an empty page
// and never reports a usable total.
var ErrPageLimitExceeded = errors.New("page limit exceeded")

// Record is one opaque row of a page envelope. The domain layer interprets
// its fields.
type Record map[string]any

// PageEnvelope is the generic pagination wrapper around one page of rows.
// Total and PageSize may be absent or zero; termination logic must not trust
// them blindly.
type PageEnvelope struct {
	Rows     []Record `json:"rows"`
	Total    int      `json:"total"`
	PageSize int      `json:"pageSize"`
}

// DecodeError reports a response body that was not a valid page envelope.
// Decode failures are structural, never transient, and are not retried.
type DecodeError struct {
	Page int
	Err  error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Doer executes one logical request. *client.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, spec client.RequestSpec) (*http.Response, error)
}

// Config holds collector configuration.
type Config struct {
	// PageParam is the query key carrying the 1-based page index.
	PageParam string

	// MaxPages is the hard ceiling on pages per collection. The upstream
	// contract never needs it; it only guarantees termination when the
	// server misreports totals and keeps returning rows.
	MaxPages int
}

// DefaultConfig returns safe collector defaults.
func DefaultConfig() Config {
	return Config{
		PageParam: "page",
		MaxPages:  500,
	}
}

// Collector fetches every page of a screener result set, strictly one page
// at a time. Collector holds no per-call state; a single instance is safe
// for concurrent collections.
type Collector struct {
	exec   Doer
	cfg    Config
	logger zerolog.Logger
}

// New creates a collector on top of an executor.
func New(exec Doer, cfg Config) *Collector {
	if cfg.PageParam == "" {
		cfg.PageParam = "page"
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 500
	}
	return &Collector{
		exec:   exec,
		cfg:    cfg,
		logger: log.With().Str("component", "screener-pagination").Logger(),
	}
}

// stepAction is the loop-continuation signal returned by each page step.
type stepAction int

const (
	stepContinue stepAction = iota
	stepDone
)

// CollectAll fetches pages starting at 1 until the envelope signals the end
// of the result set, and returns all rows in page order. The spec's method
// is forced to GET and its page parameter is overwritten per page; all other
// parameters pass through untouched. On any failure the accumulated rows are
// discarded and a single typed error is returned.
func (c *Collector) CollectAll(ctx context.Context, base client.RequestSpec) ([]Record, error) {
	start := time.Now()

	var records []Record
	pages := 0

	for page := 1; ; page++ {
		if page > c.cfg.MaxPages {
			collectionsTotal.WithLabelValues("page_limit").Inc()
			c.logger.Error().
				Str("url", base.URL).
				Int("max_pages", c.cfg.MaxPages).
				Msg("Collection aborted at hard page ceiling")
			return nil, fmt.Errorf("%w: fetched %d pages from %s without termination signal",
				ErrPageLimitExceeded, c.cfg.MaxPages, base.URL)
		}

		action, err := c.step(ctx, base, page, &records)
		if err != nil {
			collectionsTotal.WithLabelValues("error").Inc()
			return nil, err
		}
		pages++
		pagesFetchedTotal.Inc()

		if action == stepDone {
			break
		}
	}

	collectionsTotal.WithLabelValues("success").Inc()
	c.logger.Info().
		Str("url", base.URL).
		Int("pages", pages).
		Int("records", len(records)).
		Dur("duration", time.Since(start)).
		Msg("Collection complete")

	return records, nil
}

// step fetches and processes one page, appending its rows to acc. It returns
// stepDone when pagination is complete.
func (c *Collector) step(ctx context.Context, base client.RequestSpec, page int, acc *[]Record) (stepAction, error) {
	spec := base
	spec.Method = http.MethodGet
	spec.Params = base.Params.Clone()
	spec.Params.Set(c.cfg.PageParam, strconv.Itoa(page))

	resp, err := c.exec.Do(ctx, spec)
	if err != nil {
		// Retries already happened inside the executor; a failure here
		// aborts the whole collection.
		return stepDone, err
	}
	defer resp.Body.Close()

	var env PageEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return stepDone, &DecodeError{Page: page, Err: err}
	}

	c.logger.Debug().
		Str("url", base.URL).
		Int("page", page).
		Int("rows", len(env.Rows)).
		Int("total", env.Total).
		Msg("Page fetched")

	// Empty page: primary termination signal.
	if len(env.Rows) == 0 {
		return stepDone, nil
	}

	*acc = append(*acc, env.Rows...)

	if lastPage(&env, page) {
		return stepDone, nil
	}
	return stepContinue, nil
}

// lastPage reports whether page is provably the final page. A zero or absent
// total means the page count cannot be derived; the loop then relies on the
// empty-page sentinel instead of terminating after one page.
func lastPage(env *PageEnvelope, page int) bool {
	pageSize := env.PageSize
	if pageSize <= 0 {
		pageSize = len(env.Rows)
	}
	if env.Total <= 0 || pageSize <= 0 {
		return false
	}
	totalPages := (env.Total + pageSize - 1) / pageSize
	return page >= totalPages
}
