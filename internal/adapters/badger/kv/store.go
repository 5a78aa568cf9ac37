// Package kv provides the default on-device kv.Store, backed by an embedded Badger database.
package kv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"

	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

// Options configures Open.
type Options struct {
	// Dir is the database directory. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in memory; used by tests.
	InMemory bool
	Logger   *slog.Logger
}

// Store implements kv.Store and kv.Batcher. Every Batcher.Apply is one Badger transaction.
type Store struct {
	db *badger.DB
}

func Open(opts Options) (*Store, error) {
	var bopts badger.Options
	if opts.InMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if opts.Dir == "" {
			return nil, errors.New("badger kv: empty directory")
		}
		bopts = badger.DefaultOptions(opts.Dir)
	}
	// Badger logs compaction progress at INFO; that goes to debug.
	bopts = bopts.WithLogger(newBadgerLogger(opts.Logger))

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	var out []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if errors.Is(err, badger.ErrDBClosed) {
		return nil, false, kv.ErrClosed
	}
	if err != nil {
		return nil, false, fmt.Errorf("badger get %s: %w", key, err)
	}
	if out == nil {
		out = []byte{}
	}
	return out, found, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.Apply(ctx, []kv.Op{kv.SetOp(key, value)})
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Apply(ctx, []kv.Op{kv.DeleteOp(key)})
}

func (s *Store) Apply(ctx context.Context, ops []kv.Op) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, op := range ops {
		if op.Key == "" || (op.Kind != kv.OpSet && op.Kind != kv.OpDelete) {
			return kv.ErrInvalidOp
		}
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			var err error
			switch op.Kind {
			case kv.OpSet:
				val := op.Value
				if val == nil {
					val = []byte{}
				}
				err = txn.Set([]byte(op.Key), val)
			case kv.OpDelete:
				err = txn.Delete([]byte(op.Key))
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, badger.ErrDBClosed) {
		return kv.ErrClosed
	}
	if err != nil {
		return fmt.Errorf("badger update: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

type badgerLogger struct {
	l *slog.Logger
}

func newBadgerLogger(l *slog.Logger) badgerLogger {
	if l == nil {
		l = slog.Default()
	}
	return badgerLogger{l: l.With("component", "badger")}
}

func (b badgerLogger) Errorf(format string, args ...any) {
	b.l.Error(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Warningf(format string, args ...any) {
	b.l.Warn(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Infof(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}

func (b badgerLogger) Debugf(format string, args ...any) {
	b.l.Debug(fmt.Sprintf(format, args...))
}
