// Package docstore implements the hunt stores on SQLite, keeping each entity
// as a JSONB document next to the columns that must be updated in place
// (counters, session index, active game).
package docstore

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Store bundles the per-entity stores sharing one database. Tables are
// created by the migrations package.
type Store struct {
	Tasks    *TaskStore
	Sessions *SessionStore
	Users    *UserStore
	Logins   *LoginStore

	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{
		Tasks:    &TaskStore{db: db},
		Sessions: &SessionStore{db: db},
		Users:    &UserStore{db: db},
		Logins:   &LoginStore{db: db},
		db:       db,
	}
}

// Check implements health.Checker.
func (s *Store) Check(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

type scanner interface {
	Scan(dest ...any) error
}

func newID() string {
	return uuid.NewString()
}

func newToken() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02T15:04:05.000Z")
}

// exists reports whether query yields a row.
func exists(ctx context.Context, db *sql.DB, query string, args ...any) (bool, error) {
	var one int
	err := db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}
