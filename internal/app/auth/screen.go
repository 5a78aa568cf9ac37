package auth

import (
	"context"

	"github.com/gatepass-registry/gatepass/internal/domain"
	"github.com/gatepass-registry/gatepass/internal/platform/seqgate"
)

// Screen binds Service calls to one login or register screen. Only the latest
// submission may establish a session or report a result; after Close nothing does.
type Screen struct {
	svc  *Service
	gate seqgate.Gate
}

func NewScreen(svc *Service) *Screen {
	return &Screen{svc: svc}
}

// Login supersedes any in-flight submission. A superseded exchange never reaches the
// credential store.
func (sc *Screen) Login(ctx context.Context, identifier, secret string, claimedRole domain.Role) (domain.Session, error) {
	reqCtx, t := sc.gate.Begin(ctx)
	defer t.Done()

	sess, err := sc.svc.exchange(reqCtx, identifier, secret, claimedRole)
	if gateErr := t.Check(); gateErr != nil {
		return domain.Session{}, gateErr
	}
	if err != nil {
		return domain.Session{}, err
	}
	if err := sc.svc.establish(ctx, sess); err != nil {
		return domain.Session{}, err
	}
	return sess, nil
}

func (sc *Screen) Register(ctx context.Context, in RegisterInput, claimedRole domain.Role) error {
	_, err := seqgate.Run(ctx, &sc.gate, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, sc.svc.Register(ctx, in, claimedRole)
	})
	return err
}

// Close is called when the screen unmounts.
func (sc *Screen) Close() { sc.gate.Close() }
