package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/gatepass-registry/gatepass/internal/domain"
)

// Mutator is the only writer of the session. Every mutation goes to the
// CredentialStore first and is published to the Context only once persisted, so
// readers never observe a session the store does not hold.
type Mutator struct {
	mu    sync.Mutex
	store CredentialStore
	sctx  *Context
	log   *slog.Logger
}

func NewMutator(store CredentialStore, sctx *Context, logger *slog.Logger) *Mutator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mutator{store: store, sctx: sctx, log: logger.With("component", "session")}
}

// Establish persists s and makes it current. It serves both login and role switch:
// any navigation state derived from the previous session is invalidated.
func (m *Mutator) Establish(ctx context.Context, s domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Put(ctx, s); err != nil {
		return err
	}
	m.sctx.publish(s, ReasonEstablished)
	m.log.InfoContext(ctx, "session established", "role", string(s.Role))
	return nil
}

// Logout clears the persisted session. On failure the session stays current, matching
// what the store still holds.
func (m *Mutator) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(ctx); err != nil {
		return err
	}
	m.sctx.publish(domain.Session{}, ReasonLogout)
	m.log.InfoContext(ctx, "logged out")
	return nil
}

// Expire destroys the session after the backend rejected token. It does nothing
// unless token is the current session's token, so a late rejection of a replaced
// session cannot touch the new one. The in-process session is dropped even if
// clearing storage fails; the next launch would then hit the same rejection and
// expire again.
func (m *Mutator) Expire(ctx context.Context, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur := m.sctx.Snapshot().Session
	if !cur.Authenticated() || token == "" || cur.Token != token {
		m.log.DebugContext(ctx, "ignoring rejection of a token that is not current")
		return
	}
	if err := m.store.Clear(ctx); err != nil {
		m.log.WarnContext(ctx, "clear expired session", "err", err)
	}
	m.sctx.publish(domain.Session{}, ReasonExpired)
	m.log.InfoContext(ctx, "session expired by backend")
}
