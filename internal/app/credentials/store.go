// Package credentials persists the device session as a single logical record.
//
// The record spans two keys of the underlying kv.Store: TokenKey holds the bearer
// token and ProfileKey holds a JSON profile that embeds the same token and the role.
// A session is read back only when both keys are present and agree, so a write
// interrupted at any point is observed as the absent session, never a partial one.
package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gatepass-registry/gatepass/internal/domain"
	clockport "github.com/gatepass-registry/gatepass/internal/ports/out/clock"
	"github.com/gatepass-registry/gatepass/internal/ports/out/kv"
)

const (
	TokenKey   = "userToken"
	ProfileKey = "userInfo"
)

const recordVersion = 1

// ErrIncompleteSession is returned by Put for a session without both token and role.
var ErrIncompleteSession = errors.New("credentials: session must carry both token and role")

// StorageError wraps a failure of the underlying kv.Store.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("credentials: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// record is the ProfileKey payload. Field names follow the login response so records
// written by older clients (the raw login response) still decode.
type record struct {
	Version int       `json:"v,omitempty"`
	Token   string    `json:"token"`
	Role    string    `json:"role"`
	ID      string    `json:"_id,omitempty"`
	Name    string    `json:"name,omitempty"`
	Mobile  string    `json:"mobile,omitempty"`
	Email   string    `json:"email,omitempty"`
	SavedAt time.Time `json:"savedAt,omitempty"`
}

// Store is the CredentialStore. It is safe for concurrent use to the extent the
// underlying kv.Store is.
type Store struct {
	kv  kv.Store
	clk clockport.Clock
	log *slog.Logger
}

func NewStore(store kv.Store, clk clockport.Clock, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{kv: store, clk: clk, log: logger.With("component", "credentials")}
}

// Put persists s. Both keys are written or, on failure, the absent session is left behind.
func (s *Store) Put(ctx context.Context, sess domain.Session) error {
	if !sess.Authenticated() {
		return ErrIncompleteSession
	}
	rec := record{
		Version: recordVersion,
		Token:   sess.Token,
		Role:    string(sess.Role),
		ID:      string(sess.ProfileID),
		Name:    sess.Profile.Name,
		Mobile:  sess.Profile.Mobile,
		Email:   sess.Profile.Email,
	}
	if s.clk != nil {
		rec.SavedAt = s.clk.Now()
	}
	profile, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}

	if b, ok := s.kv.(kv.Batcher); ok {
		if err := b.Apply(ctx, []kv.Op{
			kv.SetOp(ProfileKey, profile),
			kv.SetOp(TokenKey, []byte(sess.Token)),
		}); err != nil {
			return &StorageError{Op: "put", Err: err}
		}
		return nil
	}

	// Profile first: a crash before the token write leaves no token, i.e. no session.
	if err := s.kv.Set(ctx, ProfileKey, profile); err != nil {
		return &StorageError{Op: "put profile", Err: err}
	}
	if err := s.kv.Set(ctx, TokenKey, []byte(sess.Token)); err != nil {
		s.discard(ctx)
		return &StorageError{Op: "put token", Err: err}
	}
	return nil
}

// Get returns the persisted session, or the absent session when nothing consistent is
// stored. Only failures of the underlying store are returned as errors.
func (s *Store) Get(ctx context.Context) (domain.Session, error) {
	token, ok, err := s.kv.Get(ctx, TokenKey)
	if err != nil {
		return domain.Session{}, &StorageError{Op: "get token", Err: err}
	}
	if !ok || len(token) == 0 {
		return domain.Session{}, nil
	}

	raw, ok, err := s.kv.Get(ctx, ProfileKey)
	if err != nil {
		return domain.Session{}, &StorageError{Op: "get profile", Err: err}
	}
	if !ok {
		s.log.WarnContext(ctx, "token stored without profile; treating session as absent")
		return domain.Session{}, nil
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		s.log.WarnContext(ctx, "undecodable profile record; treating session as absent", "err", err)
		return domain.Session{}, nil
	}
	if rec.Token != string(token) {
		s.log.WarnContext(ctx, "profile record belongs to a different token; treating session as absent")
		return domain.Session{}, nil
	}
	if rec.Role == "" {
		s.log.WarnContext(ctx, "profile record without role; treating session as absent")
		return domain.Session{}, nil
	}

	return domain.Session{
		Token:     rec.Token,
		Role:      domain.Role(rec.Role),
		ProfileID: domain.ProfileID(rec.ID),
		Profile: domain.Profile{
			ID:     domain.ProfileID(rec.ID),
			Name:   rec.Name,
			Mobile: rec.Mobile,
			Email:  rec.Email,
		},
	}, nil
}

// Clear removes the session. Once the token is gone the session reads as absent, so a
// failure to remove the leftover profile is logged rather than returned.
func (s *Store) Clear(ctx context.Context) error {
	if b, ok := s.kv.(kv.Batcher); ok {
		if err := b.Apply(ctx, []kv.Op{
			kv.DeleteOp(TokenKey),
			kv.DeleteOp(ProfileKey),
		}); err != nil {
			return &StorageError{Op: "clear", Err: err}
		}
		return nil
	}

	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		return &StorageError{Op: "clear token", Err: err}
	}
	if err := s.kv.Delete(ctx, ProfileKey); err != nil {
		s.log.WarnContext(ctx, "token cleared but profile record remains", "err", err)
	}
	return nil
}

// discard best-effort removes both keys after a failed write.
func (s *Store) discard(ctx context.Context) {
	if err := s.kv.Delete(ctx, TokenKey); err != nil {
		s.log.WarnContext(ctx, "discard token after failed put", "err", err)
	}
	if err := s.kv.Delete(ctx, ProfileKey); err != nil {
		s.log.WarnContext(ctx, "discard profile after failed put", "err", err)
	}
}
