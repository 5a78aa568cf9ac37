// Package session owns the in-process session state: the launch-time bootstrap, the
// mutations that replace or destroy the session, and the Context every other
// component reads it from.
package session

import (
	"context"
	"sync"

	"github.com/gatepass-registry/gatepass/internal/app/rolegate"
	"github.com/gatepass-registry/gatepass/internal/domain"
)

// CredentialStore is the durable session record. See credentials.Store.
type CredentialStore interface {
	Put(ctx context.Context, s domain.Session) error
	Get(ctx context.Context) (domain.Session, error)
	Clear(ctx context.Context) error
}

type Reason string

const (
	ReasonBootstrap   Reason = "bootstrap"
	ReasonEstablished Reason = "established"
	ReasonLogout      Reason = "logout"
	ReasonExpired     Reason = "expired"
)

// Snapshot is a consistent view of the session at one epoch. Anything derived from
// it (capabilities, visible tabs, a loaded screen) is stale once Context.Valid
// reports false for its epoch.
type Snapshot struct {
	Epoch        uint64
	Session      domain.Session
	Capabilities rolegate.Capabilities
}

// Change is delivered to subscribers after every mutation.
type Change struct {
	Snapshot
	Reason Reason
}

// Context is the single session context shared by all components. Only Mutator and
// Bootstrapper change it.
type Context struct {
	mu      sync.RWMutex
	current Snapshot
	subs    map[int]func(Change)
	nextSub int
}

func NewContext() *Context {
	return &Context{subs: make(map[int]func(Change))}
}

func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Token returns the current bearer token, or "" when unauthenticated.
func (c *Context) Token() string {
	return c.Snapshot().Session.Token
}

// Valid reports whether state derived at epoch is still current.
func (c *Context) Valid(epoch uint64) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Epoch == epoch
}

// Subscribe registers fn for future changes and returns a function that removes it.
// fn runs synchronously after the change is visible and must not call back into
// Mutator.
func (c *Context) Subscribe(fn func(Change)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Context) publish(s domain.Session, reason Reason) Change {
	if !s.Authenticated() {
		s = domain.Session{}
	}
	c.mu.Lock()
	c.current = Snapshot{
		Epoch:        c.current.Epoch + 1,
		Session:      s,
		Capabilities: rolegate.For(s.Role),
	}
	ch := Change{Snapshot: c.current, Reason: reason}
	subs := make([]func(Change), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()

	for _, fn := range subs {
		fn(ch)
	}
	return ch
}
