// Package idempotency is the port for replaying responses to retried writes.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Key is the caller-provided Idempotency-Key header value.
type Key string

// Fingerprint identifies one logical request. Route is the HTTP method plus the
// route pattern, e.g. "POST /vehicles". An empty BodyHash addresses the per-key
// entry that remembers which body the key was first used with.
type Fingerprint struct {
	Key      Key
	Subject  string
	Route    string
	BodyHash string
}

// Record is a stored response that is replayed for a duplicate request.
type Record struct {
	StatusCode  int
	ContentType string
	Body        []byte
	CreatedAt   time.Time
}

// Store keeps records for as long as the implementation's retention allows.
// Get reports false for anything never stored or already expired.
type Store interface {
	Get(ctx context.Context, fp Fingerprint) (Record, bool, error)
	Put(ctx context.Context, fp Fingerprint, rec Record) error
}

// HashBody returns the hex SHA-256 of a raw request body.
func HashBody(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
