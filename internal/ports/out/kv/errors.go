package kv

import "errors"

var (
	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("kv store closed")

	// ErrInvalidOp indicates a batch contained an op with an unknown kind or empty key.
	ErrInvalidOp = errors.New("invalid kv op")
)
