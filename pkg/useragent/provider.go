// Package useragent provides User-Agent strings for outbound screener
// requests. The upstream rotates browser fingerprints aggressively, so the
// default provider draws from a pool of common desktop browser identities.
package useragent

import (
	"math/rand"
	"time"
)

// Provider supplies the User-Agent header value for one logical request.
type Provider interface {
	UserAgent() string
}

// pool holds current desktop browser identities. Refresh occasionally when
// upstream starts rejecting stale major versions.
var pool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36 Edg/123.0.2420.81",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:125.0) Gecko/20100101 Firefox/125.0",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64; rv:124.0) Gecko/20100101 Firefox/124.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:125.0) Gecko/20100101 Firefox/125.0",
}

// Static is a Provider that always returns the same User-Agent string.
type Static string

// UserAgent implements Provider.
func (s Static) UserAgent() string { return string(s) }

// Intner is the randomness source consumed by Random. *rand.Rand satisfies
// it; tests supply a deterministic stand-in.
type Intner interface {
	Intn(n int) int
}

// Random picks a User-Agent from the browser pool on every call.
type Random struct {
	rng Intner
}

// NewRandom creates a Random provider backed by rng. A nil rng falls back to
// a time-seeded source.
func NewRandom(rng Intner) *Random {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Random{rng: rng}
}

// UserAgent implements Provider.
func (r *Random) UserAgent() string {
	return pool[r.rng.Intn(len(pool))]
}

// Pool returns a copy of the built-in User-Agent pool.
func Pool() []string {
	out := make([]string, len(pool))
	copy(out, pool)
	return out
}
