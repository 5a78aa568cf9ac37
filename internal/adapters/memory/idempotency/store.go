package idempotency

import (
	"context"
	"sync"
	"time"

	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
	"github.com/gatepass-registry/gatepass/internal/ports/out/idempotency"
)

// DefaultRetention is how long the dev registry remembers a key.
const DefaultRetention = 24 * time.Hour

type entry struct {
	rec     idempotency.Record
	expires time.Time
}

// Store is an in-memory idempotency.Store. Entries expire retention after they were
// written, measured on clk; expired entries read as absent and are swept on the
// next Put. It is safe for concurrent use.
type Store struct {
	clk       clockport.Clock
	retention time.Duration

	mu      sync.Mutex
	entries map[idempotency.Fingerprint]entry
}

// NewStore returns a store with the given retention. A non-positive retention
// uses DefaultRetention.
func NewStore(clk clockport.Clock, retention time.Duration) *Store {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Store{
		clk:       clk,
		retention: retention,
		entries:   make(map[idempotency.Fingerprint]entry),
	}
}

func (s *Store) Get(_ context.Context, fp idempotency.Fingerprint) (idempotency.Record, bool, error) {
	now := s.clk.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[fp]
	if !ok || !now.Before(e.expires) {
		return idempotency.Record{}, false, nil
	}
	rec := e.rec
	rec.Body = append([]byte(nil), rec.Body...)
	return rec, true, nil
}

func (s *Store) Put(_ context.Context, fp idempotency.Fingerprint, rec idempotency.Record) error {
	now := s.clk.Now()
	rec.Body = append([]byte(nil), rec.Body...)
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if !now.Before(e.expires) {
			delete(s.entries, k)
		}
	}
	s.entries[fp] = entry{rec: rec, expires: now.Add(s.retention)}
	return nil
}

// Len reports the number of entries held, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
