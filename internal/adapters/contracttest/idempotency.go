package contracttest

import (
	"context"
	"testing"
	"time"

	idempotencyport "github.com/gatepass-registry/gatepass/internal/ports/out/idempotency"
)

type IdemStoreFactory func(t *testing.T) (idempotencyport.Store, CleanupFunc)

func RunIdempotencyStore(t *testing.T, newStore IdemStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	fp := idempotencyport.Fingerprint{
		Key:      "k-1",
		Subject:  "acct-1",
		Route:    "POST /vehicles",
		BodyHash: "hash-abc",
	}
	rec := idempotencyport.Record{
		StatusCode:  201,
		ContentType: "application/json",
		Body:        []byte(`{"_id":"v1"}`),
		CreatedAt:   time.Unix(123, 0).UTC(),
	}
	if err := store.Put(ctx, fp, rec); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, ok, err := store.Get(ctx, fp)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if string(got.Body) != `{"_id":"v1"}` || got.ContentType != "application/json" || got.StatusCode != 201 {
		t.Fatalf("unexpected record: %+v", got)
	}

	// Any differing fingerprint field is a different request.
	for _, other := range []idempotencyport.Fingerprint{
		{Key: "k-2", Subject: fp.Subject, Route: fp.Route, BodyHash: fp.BodyHash},
		{Key: fp.Key, Subject: "acct-2", Route: fp.Route, BodyHash: fp.BodyHash},
		{Key: fp.Key, Subject: fp.Subject, Route: "PUT /vehicles/{id}", BodyHash: fp.BodyHash},
		{Key: fp.Key, Subject: fp.Subject, Route: fp.Route, BodyHash: "hash-def"},
	} {
		if _, ok, err := store.Get(ctx, other); err != nil || ok {
			t.Fatalf("Get(%+v) ok=%v err=%v, want absent", other, ok, err)
		}
	}

	// Overwrite semantics.
	rec2 := rec
	rec2.Body = []byte(`{"_id":"v2"}`)
	if err := store.Put(ctx, fp, rec2); err != nil {
		t.Fatalf("Put overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, fp)
	if err != nil || !ok || string(got.Body) != `{"_id":"v2"}` {
		t.Fatalf("expected overwritten record, got ok=%v err=%v body=%q", ok, err, string(got.Body))
	}
}
