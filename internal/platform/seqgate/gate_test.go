package seqgate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestGate_LatestTicketWins(t *testing.T) {
	t.Parallel()

	var g Gate
	_, a := g.Begin(context.Background())
	_, b := g.Begin(context.Background())

	if err := a.Check(); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("a.Check()=%v, want %v", err, ErrSuperseded)
	}
	if err := b.Check(); err != nil {
		t.Fatalf("b.Check()=%v, want nil", err)
	}
	if b.Seq() <= a.Seq() {
		t.Fatalf("sequence not increasing: a=%d b=%d", a.Seq(), b.Seq())
	}
}

func TestGate_BeginCancelsPreviousContext(t *testing.T) {
	t.Parallel()

	var g Gate
	ctxA, _ := g.Begin(context.Background())
	ctxB, _ := g.Begin(context.Background())

	select {
	case <-ctxA.Done():
	default:
		t.Fatalf("first request context should be cancelled")
	}
	if ctxB.Err() != nil {
		t.Fatalf("latest request context cancelled: %v", ctxB.Err())
	}
}

func TestGate_CloseDiscardsEverything(t *testing.T) {
	t.Parallel()

	var g Gate
	ctx, tk := g.Begin(context.Background())
	g.Close()

	if err := tk.Check(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Check() after Close = %v, want %v", err, ErrClosed)
	}
	if ctx.Err() == nil {
		t.Fatalf("in-flight context should be cancelled by Close")
	}

	ctx2, tk2 := g.Begin(context.Background())
	if ctx2.Err() == nil {
		t.Fatalf("context issued after Close should be cancelled")
	}
	if err := tk2.Check(); !errors.Is(err, ErrClosed) {
		t.Fatalf("Check() for post-Close ticket = %v", err)
	}
}

func TestRun_SlowStaleResultIsDiscarded(t *testing.T) {
	t.Parallel()

	var g Gate
	releaseA := make(chan struct{})
	startedA := make(chan struct{})

	var wg sync.WaitGroup
	var resA string
	var errA error
	wg.Add(1)
	go func() {
		defer wg.Done()
		resA, errA = Run(context.Background(), &g, func(ctx context.Context) (string, error) {
			close(startedA)
			<-releaseA
			return "A", nil
		})
	}()

	<-startedA
	resB, errB := Run(context.Background(), &g, func(ctx context.Context) (string, error) {
		return "B", nil
	})
	close(releaseA)
	wg.Wait()

	if errB != nil || resB != "B" {
		t.Fatalf("B = (%q, %v), want (B, nil)", resB, errB)
	}
	if !errors.Is(errA, ErrSuperseded) || resA != "" {
		t.Fatalf("A = (%q, %v), want discarded", resA, errA)
	}
}

func TestRun_PassesThroughError(t *testing.T) {
	t.Parallel()

	var g Gate
	boom := errors.New("boom")
	_, err := Run(context.Background(), &g, func(ctx context.Context) (int, error) {
		return 0, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err=%v, want %v", err, boom)
	}
}

func TestRun_ResultAfterCloseIsDiscarded(t *testing.T) {
	t.Parallel()

	var g Gate
	out, err := Run(context.Background(), &g, func(ctx context.Context) (int, error) {
		g.Close()
		select {
		case <-ctx.Done():
		case <-time.After(time.Second):
			t.Errorf("context not cancelled by Close")
		}
		return 42, nil
	})
	if !errors.Is(err, ErrClosed) || out != 0 {
		t.Fatalf("Run()=(%d, %v), want (0, ErrClosed)", out, err)
	}
}
