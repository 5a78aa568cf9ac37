package contracttest

import (
	"context"
	"testing"

	kvport "github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

type CleanupFunc = func()

type KVStoreFactory func(t *testing.T) (kvport.Store, CleanupFunc)

// RunKV exercises the kv.Store contract, and the kv.Batcher contract when the
// store implements it.
func RunKV(t *testing.T, newStore KVStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	// Absent key.
	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) ok=%v err=%v, want absent", ok, err)
	}

	// Round trip.
	if err := store.Set(ctx, "userToken", []byte("tok-1")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok, err := store.Get(ctx, "userToken")
	if err != nil || !ok || string(got) != "tok-1" {
		t.Fatalf("Get after Set = %q ok=%v err=%v", string(got), ok, err)
	}

	// Overwrite semantics.
	if err := store.Set(ctx, "userToken", []byte("tok-2")); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}
	got, ok, err = store.Get(ctx, "userToken")
	if err != nil || !ok || string(got) != "tok-2" {
		t.Fatalf("expected overwritten value, got %q ok=%v err=%v", string(got), ok, err)
	}

	// Empty values are present, not absent.
	if err := store.Set(ctx, "empty", []byte{}); err != nil {
		t.Fatalf("Set empty: %v", err)
	}
	if _, ok, err := store.Get(ctx, "empty"); err != nil || !ok {
		t.Fatalf("Get(empty) ok=%v err=%v, want present", ok, err)
	}

	// Delete, including idempotent delete.
	if err := store.Delete(ctx, "userToken"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, "userToken"); err != nil || ok {
		t.Fatalf("Get after Delete ok=%v err=%v, want absent", ok, err)
	}
	if err := store.Delete(ctx, "userToken"); err != nil {
		t.Fatalf("Delete absent key: %v", err)
	}

	// Key isolation.
	if err := store.Set(ctx, "userInfo", []byte(`{"role":"guard"}`)); err != nil {
		t.Fatalf("Set userInfo: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "userToken"); ok {
		t.Fatalf("writing userInfo must not create userToken")
	}

	b, ok := store.(kvport.Batcher)
	if !ok {
		return
	}

	if err := b.Apply(ctx, []kvport.Op{
		kvport.SetOp("userInfo", []byte(`{"role":"admin"}`)),
		kvport.SetOp("userToken", []byte("tok-3")),
	}); err != nil {
		t.Fatalf("Apply set batch: %v", err)
	}
	info, _, _ := store.Get(ctx, "userInfo")
	tok, _, _ := store.Get(ctx, "userToken")
	if string(info) != `{"role":"admin"}` || string(tok) != "tok-3" {
		t.Fatalf("batch not applied: info=%q tok=%q", string(info), string(tok))
	}

	if err := b.Apply(ctx, []kvport.Op{
		kvport.DeleteOp("userToken"),
		kvport.DeleteOp("userInfo"),
	}); err != nil {
		t.Fatalf("Apply delete batch: %v", err)
	}
	for _, k := range []string{"userToken", "userInfo"} {
		if _, ok, err := store.Get(ctx, k); err != nil || ok {
			t.Fatalf("Get(%s) after delete batch ok=%v err=%v", k, ok, err)
		}
	}

	// An invalid op rejects the whole batch.
	if err := b.Apply(ctx, []kvport.Op{
		kvport.SetOp("userInfo", []byte("x")),
		{Kind: kvport.OpSet},
	}); err == nil {
		t.Fatalf("expected invalid batch to fail")
	}
	if _, ok, _ := store.Get(ctx, "userInfo"); ok {
		t.Fatalf("rejected batch must not partially apply")
	}
}
