package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/playperu/geohunt/internal/geohunt"
)

type SessionStore struct {
	db *sql.DB
}

func (s *SessionStore) Insert(ctx context.Context, gs geohunt.GameSession) (geohunt.GameSession, error) {
	gs.ID = newID()
	gs.CreatedAt = nowUTC()

	data, err := json.Marshal(gs)
	if err != nil {
		return geohunt.GameSession{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (id, username, idx, data) VALUES (?, ?, ?, jsonb(?))`,
		gs.ID, gs.Username, gs.Index, string(data),
	)
	if err != nil {
		return geohunt.GameSession{}, err
	}
	return gs, nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (geohunt.GameSession, error) {
	var data string
	var idx int
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data), idx FROM game_sessions WHERE id = ?`, id,
	).Scan(&data, &idx)
	if errors.Is(err, sql.ErrNoRows) {
		return geohunt.GameSession{}, geohunt.ErrSessionNotFound
	}
	if err != nil {
		return geohunt.GameSession{}, err
	}

	var gs geohunt.GameSession
	if err := json.Unmarshal([]byte(data), &gs); err != nil {
		return geohunt.GameSession{}, err
	}
	gs.Index = idx
	return gs, nil
}

// IncrementIndex updates the index column in a single statement so that
// concurrent advances never lose an increment.
func (s *SessionStore) IncrementIndex(ctx context.Context, id string, delta, limit int) (int, error) {
	var idx int
	err := s.db.QueryRowContext(ctx, `
		UPDATE game_sessions SET idx = idx + ?
		WHERE id = ? AND idx + ? <= ?
		RETURNING idx
	`, delta, id, delta, limit).Scan(&idx)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, s.missOrGameOver(ctx, id)
	}
	return idx, err
}

func (s *SessionStore) Start(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET idx = 0 WHERE id = ? AND idx = ?`, id, geohunt.IndexNotStarted,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n > 0 {
		return nil
	}
	found, err := exists(ctx, s.db, `SELECT 1 FROM game_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !found {
		return geohunt.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) missOrGameOver(ctx context.Context, id string) error {
	found, err := exists(ctx, s.db, `SELECT 1 FROM game_sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if !found {
		return geohunt.ErrSessionNotFound
	}
	return geohunt.ErrGameOver
}
