package resolver

import (
	"context"

	"github.com/gatepass-registry/gatepass/internal/app/session"
	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/platform/seqgate"
)

// Sessions is the session view a screen reads its token from.
type Sessions interface {
	Snapshot() session.Snapshot
	Valid(epoch uint64) bool
}

// Screen is the search or update screen's handle on the resolver. Only the latest
// lookup may deliver a result, and only while the session it started under is still
// current. Superseded lookups return seqgate.ErrSuperseded; lookups finishing after
// Close return seqgate.ErrClosed.
type Screen struct {
	r        *Resolver
	sessions Sessions
	gate     seqgate.Gate
}

func NewScreen(r *Resolver, sessions Sessions) *Screen {
	return &Screen{r: r, sessions: sessions}
}

func (s *Screen) Resolve(ctx context.Context, query string) (Outcome, error) {
	snap := s.sessions.Snapshot()
	out, err := seqgate.Run(ctx, &s.gate, func(ctx context.Context) (Outcome, error) {
		return s.r.Resolve(ctx, query, snap.Session.Token)
	})
	if err == nil && !s.sessions.Valid(snap.Epoch) {
		return NotFound, seqgate.ErrSuperseded
	}
	return out, err
}

func (s *Screen) SearchAll(ctx context.Context, query string) ([]domain.Vehicle, error) {
	snap := s.sessions.Snapshot()
	out, err := seqgate.Run(ctx, &s.gate, func(ctx context.Context) ([]domain.Vehicle, error) {
		return s.r.SearchAll(ctx, query, snap.Session.Token)
	})
	if err == nil && !s.sessions.Valid(snap.Epoch) {
		return nil, seqgate.ErrSuperseded
	}
	return out, err
}

// Close is called when the screen unmounts.
func (s *Screen) Close() { s.gate.Close() }
