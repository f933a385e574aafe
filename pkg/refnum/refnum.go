// Package refnum generates document reference numbers (invoices, purchase
// orders, credit notes). Numbers are a prefix, a UTC timestamp and a random
// suffix, e.g. INV202601021504059137. Globally unique within a document
// type; a collision triggers regeneration, not failure.
package refnum

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Well-known prefixes.
const (
	PrefixInvoice    = "INV"
	PrefixPurchase   = "PO"
	PrefixCreditNote = "CN"
)

const timestampLayout = "20060102150405"

// maxAttempts bounds collision regeneration. With a 4-digit random suffix
// on a second-resolution timestamp, more than a couple of attempts means
// the uniqueness check itself is broken.
const maxAttempts = 5

// ExistsFunc reports whether a candidate number is already taken.
type ExistsFunc func(ctx context.Context, number string) (bool, error)

// Generator produces unique document numbers.
type Generator struct {
	now func() time.Time
}

// New creates a Generator using the real clock.
func New() *Generator {
	return &Generator{now: func() time.Time { return time.Now().UTC() }}
}

// NewWithClock creates a Generator with a custom clock, for tests.
func NewWithClock(now func() time.Time) *Generator {
	return &Generator{now: now}
}

// Next returns a fresh number with the given prefix. exists may be nil when
// the caller relies on a store uniqueness constraint instead.
func (g *Generator) Next(ctx context.Context, prefix string, exists ExistsFunc) (string, error) {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		candidate := g.candidate(prefix)
		if exists == nil {
			return candidate, nil
		}

		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check number %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not generate unique %s number after %d attempts", prefix, maxAttempts)
}

func (g *Generator) candidate(prefix string) string {
	return fmt.Sprintf("%s%s%04d", prefix, g.now().Format(timestampLayout), randomSuffix())
}

// randomSuffix returns a value in [1000, 9999].
func randomSuffix() int64 {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		// crypto/rand only fails if the OS entropy source does; fall back
		// to a clock-derived suffix rather than aborting the sale.
		return 1000 + time.Now().UnixNano()%9000
	}
	return 1000 + n.Int64()
}
