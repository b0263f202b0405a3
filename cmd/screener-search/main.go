// Command screener-search runs a security search against the screener API
// and prints the matching records as JSON, one per line.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/finquery/screener-client/pkg/client"
	"github.com/finquery/screener-client/pkg/logging"
	"github.com/finquery/screener-client/pkg/screener"
	"github.com/finquery/screener-client/pkg/useragent"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: screener-search <term>")
		os.Exit(2)
	}
	term := os.Args[1]

	logger := logging.Setup(logging.Config{
		Level:  logging.LogLevel(getEnv("LOG_LEVEL", "info")),
		Pretty: getEnv("LOG_PRETTY", "") != "",
		Output: os.Stderr,
	})

	// Configuration from environment
	baseURL := getEnv("SCREENER_URL", "https://tools.morningstar.co.uk/api/rest.svc/klr5zyak8x/security/screener")
	maxRetries := getEnvInt("MAX_RETRIES", 3)
	timeout := time.Duration(getEnvInt("TIMEOUT_SECONDS", 30)) * time.Second

	cfg := client.DefaultConfig(useragent.NewRandom(nil))
	cfg.MaxRetries = maxRetries

	exec, err := client.New(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create executor")
	}

	screenerCfg := screener.DefaultConfig(baseURL)
	screenerCfg.Timeout = timeout
	if proxy := getEnv("HTTPS_PROXY_URL", ""); proxy != "" {
		screenerCfg.Proxies = map[string]string{"https": proxy, "http": proxy}
	}

	scr, err := screener.New(exec, screenerCfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to create screener")
	}

	ctx := context.Background()
	securities, err := scr.Search(ctx, screener.SearchQuery{
		Term:     term,
		PageSize: getEnvInt("PAGE_SIZE", 10),
	})
	if err != nil {
		logger.Fatal().Err(err).Str("term", term).Msg("Search failed")
	}

	enc := json.NewEncoder(os.Stdout)
	for _, sec := range securities {
		if err := enc.Encode(sec.Record()); err != nil {
			logger.Fatal().Err(err).Msg("Failed to encode record")
		}
	}

	logger.Info().Str("term", term).Int("results", len(securities)).Msg("Search complete")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
