// Package replay keeps a short-lived record of consumed one-time tokens
// (Zoom OAuth state signatures, magic-link IDs) so a captured token cannot
// be presented twice inside its validity window. Entries expire with the
// token they guard, so the ledger stays bounded without any persistence.
package replay

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// Ledger records consumed token identifiers until they would have expired anyway
type Ledger struct {
	c *gocache.Cache
}

// NewLedger creates a ledger whose entries default to defaultTTL and are
// pruned every minute.
func NewLedger(defaultTTL time.Duration) *Ledger {
	return &Ledger{c: gocache.New(defaultTTL, time.Minute)}
}

// Consume marks id as used. Returns false if it was already consumed.
// ttl bounds how long the mark is kept; pass the token's remaining
// lifetime so the entry disappears with the token.
func (l *Ledger) Consume(id string, ttl time.Duration) bool {
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	return l.c.Add(id, struct{}{}, ttl) == nil
}

// Seen reports whether id has been consumed, without consuming it
func (l *Ledger) Seen(id string) bool {
	_, found := l.c.Get(id)
	return found
}
