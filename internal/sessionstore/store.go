// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AuthPlay Contributors

// Package sessionstore bridges a generic session-store contract and an
// authentication backend onto the auth domain API.
package sessionstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/samber/oops"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/authplay/authplay/internal/auth"
	"github.com/authplay/authplay/internal/errutil"
	"github.com/authplay/authplay/internal/sessionkey"
)

// Record is a session as seen by the HTTP session layer. Data must hold
// JSON-compatible values; numbers round-trip as float64.
type Record struct {
	ID     sessionkey.ID
	Data   map[string]any
	Expiry time.Time
}

// Store implements the session-store contract over auth.API.
type Store struct {
	api    auth.API
	logger *slog.Logger
}

// NewStore creates a Store. A nil logger uses slog.Default().
func NewStore(api auth.API, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, logger: logger}
}

// Create persists a new record and assigns its ID.
func (s *Store) Create(ctx context.Context, rec *Record) error {
	blob, err := encodeData(rec.Data)
	if err != nil {
		return oops.With("store_op", "create session record").Wrap(err)
	}

	session, err := s.api.CreateSession(ctx, auth.NewSession{
		Data:   blob,
		Expiry: truncateExpiry(rec.Expiry),
	})
	if err != nil {
		return oops.Code("SESSION_STORE_CREATE_FAILED").Wrap(err)
	}

	rec.ID = sessionkey.Decode(session.ID)
	return nil
}

// Save overwrites an existing record. Saving a record that was never
// created fails with auth.ErrNotFound.
func (s *Store) Save(ctx context.Context, rec *Record) error {
	blob, err := encodeData(rec.Data)
	if err != nil {
		return oops.With("store_op", "save session record").Wrap(err)
	}

	err = s.api.SaveSession(ctx, auth.Session{
		ID:     sessionkey.Encode(rec.ID),
		Data:   blob,
		Expiry: truncateExpiry(rec.Expiry),
	})
	if err != nil {
		return oops.Code("SESSION_STORE_SAVE_FAILED").With("session_key", rec.ID.String()).Wrap(err)
	}
	return nil
}

// Load returns the record, or nil when it is absent or expired. A stored
// blob that cannot be decoded is treated as absent and logged.
func (s *Store) Load(ctx context.Context, id sessionkey.ID) (*Record, error) {
	session, err := s.api.LoadSession(ctx, sessionkey.Encode(id))
	if err != nil {
		return nil, oops.Code("SESSION_STORE_LOAD_FAILED").With("session_key", id.String()).Wrap(err)
	}
	if session == nil {
		return nil, nil
	}

	data, err := decodeData(session.Data)
	if err != nil {
		errutil.Log(ctx, s.logger, slog.LevelWarn, "discarding undecodable session", err, "session_key", id.String())
		return nil, nil
	}

	return &Record{
		ID:     sessionkey.Decode(session.ID),
		Data:   data,
		Expiry: session.Expiry,
	}, nil
}

// Delete removes the record. Unknown IDs are not an error.
func (s *Store) Delete(ctx context.Context, id sessionkey.ID) error {
	if err := s.api.DeleteSession(ctx, sessionkey.Encode(id)); err != nil {
		return oops.Code("SESSION_STORE_DELETE_FAILED").With("session_key", id.String()).Wrap(err)
	}
	return nil
}

// truncateExpiry drops sub-second precision; cookie expiry is whole seconds.
func truncateExpiry(t time.Time) time.Time {
	return t.Truncate(time.Second).UTC()
}

func encodeData(data map[string]any) ([]byte, error) {
	st, err := structpb.NewStruct(data)
	if err != nil {
		return nil, oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	blob, err := proto.Marshal(st)
	if err != nil {
		return nil, oops.Code("SESSION_ENCODE_FAILED").Wrap(err)
	}
	return blob, nil
}

func decodeData(blob []byte) (map[string]any, error) {
	var st structpb.Struct
	if err := proto.Unmarshal(blob, &st); err != nil {
		return nil, oops.Code("SESSION_DECODE_FAILED").Wrap(err)
	}
	return st.AsMap(), nil
}
