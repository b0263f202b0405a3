// Package screener builds search queries for the securities screener API
// and interprets the records it returns. The resilient fetch work lives in
// pkg/client and pkg/pagination; this package only constructs parameters and
// classifies results.
package screener

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/finquery/screener-client/pkg/client"
	"github.com/finquery/screener-client/pkg/pagination"
)

// Config holds the screener configuration.
type Config struct {
	// BaseURL is the screener endpoint (REQUIRED).
	BaseURL string

	// Timeout bounds each request attempt.
	Timeout time.Duration

	// Proxies maps URL scheme to proxy URL.
	Proxies map[string]string

	// InsecureSkipVerify disables TLS certificate verification.
	InsecureSkipVerify bool

	// Collector configures pagination. Zero values take
	// pagination.DefaultConfig().
	Collector pagination.Config
}

// DefaultConfig returns a safe default screener configuration.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:   baseURL,
		Timeout:   30 * time.Second,
		Collector: pagination.DefaultConfig(),
	}
}

// Screener runs searches against the securities screener API.
type Screener struct {
	collector *pagination.Collector
	cfg       Config
	logger    zerolog.Logger
}

// New creates a screener on top of an executor.
func New(exec pagination.Doer, cfg Config) (*Screener, error) {
	if exec == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Screener{
		collector: pagination.New(exec, cfg.Collector),
		cfg:       cfg,
		logger:    log.With().Str("component", "screener").Logger(),
	}, nil
}

// Search collects every security matching the query, across all result
// pages. The exchange restriction, when set, is applied client-side: the
// upstream does not filter on it server-side.
func (s *Screener) Search(ctx context.Context, q SearchQuery) ([]Security, error) {
	params, err := q.params()
	if err != nil {
		return nil, err
	}

	records, err := s.collector.CollectAll(ctx, client.RequestSpec{
		URL:                s.cfg.BaseURL,
		Params:             params,
		Timeout:            s.cfg.Timeout,
		Proxies:            s.cfg.Proxies,
		InsecureSkipVerify: s.cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", q.Term, err)
	}

	securities := make([]Security, 0, len(records))
	for _, record := range records {
		sec := NewSecurity(record)
		if q.Exchange != "" && !strings.Contains(sec.Exchange(), q.Exchange) {
			continue
		}
		securities = append(securities, sec)
	}

	if len(securities) == 0 {
		s.logger.Info().Str("term", q.Term).Msg("No securities found")
	}

	return securities, nil
}

// Lookup resolves a security by identifier (ISIN, ticker symbol or name
// fragment), requesting only the identifier field set. Multiple matches are
// returned in upstream order; the caller disambiguates.
func (s *Screener) Lookup(ctx context.Context, term string) ([]Security, error) {
	return s.Search(ctx, SearchQuery{
		Term:   term,
		Fields: IdentifierFields,
	})
}
