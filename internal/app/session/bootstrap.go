package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gatepass-registry/gatepass/internal/domain"
)

type Status int

const (
	StatusUnknown Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// State is the launch-time session state. Role is set only when authenticated.
type State struct {
	Status Status
	Role   domain.Role
}

const DefaultBootstrapTimeout = 3 * time.Second

type BootstrapOptions struct {
	// Timeout bounds the credential read. Zero means DefaultBootstrapTimeout.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Bootstrapper resolves the launch state exactly once. Before Run completes State
// reports StatusUnknown; afterwards it never changes, whatever later mutations do
// to the Context.
type Bootstrapper struct {
	store   CredentialStore
	sctx    *Context
	timeout time.Duration
	log     *slog.Logger

	once  sync.Once
	mu    sync.RWMutex
	state State
}

func NewBootstrapper(store CredentialStore, sctx *Context, opts BootstrapOptions) *Bootstrapper {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBootstrapTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Bootstrapper{
		store:   store,
		sctx:    sctx,
		timeout: opts.Timeout,
		log:     opts.Logger.With("component", "bootstrap"),
	}
}

// Run reads the credential store and resolves the state. Storage errors, timeouts
// and panics all resolve to StatusUnauthenticated. Calls after the first return the
// first result.
func (b *Bootstrapper) Run(ctx context.Context) State {
	b.once.Do(func() {
		s, err := b.read(ctx)
		st := State{Status: StatusUnauthenticated}
		switch {
		case err != nil:
			b.log.WarnContext(ctx, "credential read failed; starting unauthenticated", "err", err)
			s = domain.Session{}
		case s.Authenticated():
			st = State{Status: StatusAuthenticated, Role: s.Role}
		default:
			s = domain.Session{}
		}

		b.mu.Lock()
		b.state = st
		b.mu.Unlock()

		b.sctx.publish(s, ReasonBootstrap)
		b.log.DebugContext(ctx, "bootstrap resolved", "status", st.Status.String(), "role", string(st.Role))
	})
	return b.State()
}

func (b *Bootstrapper) State() State {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.state
}

type readResult struct {
	s   domain.Session
	err error
}

// read runs the store read on its own goroutine so a store that ignores its
// context still cannot hold the launch past the timeout.
func (b *Bootstrapper) read(ctx context.Context) (domain.Session, error) {
	readCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan readResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- readResult{err: fmt.Errorf("credential store panic: %v", r)}
			}
		}()
		s, err := b.store.Get(readCtx)
		done <- readResult{s: s, err: err}
	}()

	select {
	case res := <-done:
		return res.s, res.err
	case <-readCtx.Done():
		if errors.Is(readCtx.Err(), context.DeadlineExceeded) {
			return domain.Session{}, fmt.Errorf("credential read exceeded %s: %w", b.timeout, readCtx.Err())
		}
		return domain.Session{}, readCtx.Err()
	}
}
