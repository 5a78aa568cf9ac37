// Package kv stores the device credential record in Postgres, for deployments where
// guard-post terminals keep their state in a shared database. Each terminal is a
// separate namespace.
package kv

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatepass-registry/gatepass/internal/adapters/postgres"
	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

// Schema creates the table used by Store. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS device_kv (
	namespace  TEXT        NOT NULL,
	key        TEXT        NOT NULL,
	value      BYTEA       NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (namespace, key)
)`

// Store is a Postgres implementation of kv.Store and kv.Batcher.
type Store struct {
	pool      *pgxpool.Pool
	namespace string
}

func NewStore(pool *pgxpool.Pool, namespace string) *Store {
	return &Store{pool: pool, namespace: namespace}
}

// Migrate applies Schema. Terminals sharing a database may migrate at the same time;
// CREATE TABLE IF NOT EXISTS then loses the race on the pg_type row, which is
// reported as a unique violation and means the table exists.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return errors.New("nil postgres pool")
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return nil
		}
		return fmt.Errorf("migrate device_kv: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if s.pool == nil {
		return nil, false, errors.New("nil postgres pool")
	}
	var v []byte
	err := s.pool.QueryRow(ctx, `
		SELECT value
		FROM device_kv
		WHERE namespace = $1
		  AND key = $2
	`, s.namespace, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select %s: %w", key, err)
	}
	if v == nil {
		v = []byte{}
	}
	return v, true, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	return execOp(ctx, s.pool, s.namespace, kv.SetOp(key, value))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	return execOp(ctx, s.pool, s.namespace, kv.DeleteOp(key))
}

func (s *Store) Apply(ctx context.Context, ops []kv.Op) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	for _, op := range ops {
		if op.Key == "" || (op.Kind != kv.OpSet && op.Kind != kv.OpDelete) {
			return kv.ErrInvalidOp
		}
	}
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, op := range ops {
			if err := execOp(ctx, tx, s.namespace, op); err != nil {
				return err
			}
		}
		return nil
	})
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func execOp(ctx context.Context, db execer, namespace string, op kv.Op) error {
	switch op.Kind {
	case kv.OpSet:
		value := op.Value
		if value == nil {
			value = []byte{}
		}
		_, err := db.Exec(ctx, `
			INSERT INTO device_kv (namespace, key, value, updated_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (namespace, key)
			DO UPDATE SET
				value = EXCLUDED.value,
				updated_at = EXCLUDED.updated_at
		`, namespace, op.Key, value)
		if err != nil {
			return fmt.Errorf("upsert %s: %w", op.Key, err)
		}
	case kv.OpDelete:
		_, err := db.Exec(ctx, `
			DELETE FROM device_kv
			WHERE namespace = $1
			  AND key = $2
		`, namespace, op.Key)
		if err != nil {
			return fmt.Errorf("delete %s: %w", op.Key, err)
		}
	default:
		return kv.ErrInvalidOp
	}
	return nil
}
