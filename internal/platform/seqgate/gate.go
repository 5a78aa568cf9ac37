// Package seqgate implements last-request-wins result gating for a single screen.
//
// Each call a screen issues takes a Ticket. A result may be applied only while its
// ticket is the most recent one issued and the gate is open; a newer Begin
// supersedes every earlier ticket, and Close (screen unmount) invalidates all of
// them. Ordering is by issue sequence, never by completion order.
package seqgate

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrSuperseded is returned for a result whose ticket is no longer the latest.
	ErrSuperseded = errors.New("seqgate: superseded by a newer request")
	// ErrClosed is returned for a result arriving after the gate closed.
	ErrClosed = errors.New("seqgate: screen closed")
)

// Gate is safe for concurrent use.
type Gate struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
	closed bool
}

// Ticket identifies one request issued through a Gate.
type Ticket struct {
	gate *Gate
	seq  uint64
}

// Begin issues a new ticket and derives a context for the request. The previous
// request's context is cancelled. When the gate is closed the returned context is
// already cancelled and the ticket is never current.
func (g *Gate) Begin(ctx context.Context) (context.Context, Ticket) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	g.seq++
	t := Ticket{gate: g, seq: g.seq}

	reqCtx, cancel := context.WithCancel(ctx)
	if g.closed {
		cancel()
		return reqCtx, t
	}
	g.cancel = cancel
	return reqCtx, t
}

// Check reports whether t may still apply its result: nil when it is the latest ticket
// of an open gate, ErrClosed or ErrSuperseded otherwise.
func (t Ticket) Check() error {
	if t.gate == nil {
		return ErrSuperseded
	}
	g := t.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return ErrClosed
	}
	if t.seq != g.seq {
		return ErrSuperseded
	}
	return nil
}

// Done releases the request context of t if it is still the latest.
func (t Ticket) Done() {
	if t.gate == nil {
		return
	}
	g := t.gate
	g.mu.Lock()
	defer g.mu.Unlock()
	if t.seq == g.seq && g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Seq returns the ticket's sequence number.
func (t Ticket) Seq() uint64 { return t.seq }

// Close invalidates every outstanding and future ticket and cancels the in-flight request.
func (g *Gate) Close() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
}

// Closed reports whether Close was called.
func (g *Gate) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}

// Run issues a ticket, calls fn with the request context and returns fn's result only
// if the ticket is still current when fn returns.
func Run[T any](ctx context.Context, g *Gate, fn func(ctx context.Context) (T, error)) (T, error) {
	reqCtx, t := g.Begin(ctx)
	defer t.Done()

	out, err := fn(reqCtx)
	if gateErr := t.Check(); gateErr != nil {
		var zero T
		return zero, gateErr
	}
	return out, err
}
