package kv

import "context"

// Store is a durable string-keyed byte store that survives process restarts.
//
// Writes are atomic per key only. Implementations that can apply several writes
// atomically additionally implement Batcher.
type Store interface {
	// Get returns the value stored under key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
}

// OpKind selects what a batch Op does.
type OpKind int

const (
	OpSet OpKind = iota + 1
	OpDelete
)

// Op is a single write inside a batch.
type Op struct {
	Kind  OpKind
	Key   string
	Value []byte
}

// SetOp builds an OpSet.
func SetOp(key string, value []byte) Op { return Op{Kind: OpSet, Key: key, Value: value} }

// DeleteOp builds an OpDelete.
func DeleteOp(key string) Op { return Op{Kind: OpDelete, Key: key} }

// Batcher is implemented by stores that can apply a group of writes atomically:
// after Apply returns, either every op is visible or none is.
type Batcher interface {
	Apply(ctx context.Context, ops []Op) error
}
