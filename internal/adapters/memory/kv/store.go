package kv

import (
	"context"
	"sync"

	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

// Store is an in-memory implementation of kv.Store and kv.Batcher.
// It is safe for concurrent use. Contents do not survive the process.
type Store struct {
	mu sync.RWMutex
	m  map[string][]byte
}

func NewStore() *Store {
	return &Store{m: make(map[string][]byte)}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	return cloneBytes(v), true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = cloneBytes(value)
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, key)
	return nil
}

func (s *Store) Apply(ctx context.Context, ops []kv.Op) error {
	_ = ctx
	for _, op := range ops {
		if op.Key == "" || (op.Kind != kv.OpSet && op.Kind != kv.OpDelete) {
			return kv.ErrInvalidOp
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, op := range ops {
		switch op.Kind {
		case kv.OpSet:
			s.m[op.Key] = cloneBytes(op.Value)
		case kv.OpDelete:
			delete(s.m, op.Key)
		}
	}
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.m)
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
