package docstore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/playperu/geohunt/internal/geohunt"
)

type LoginStore struct {
	db *sql.DB
}

func (s *LoginStore) CreateLogin(ctx context.Context, username string) (string, error) {
	token := newToken()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO login_sessions (id, username, created_at) VALUES (?, ?, ?)`,
		token, username, formatTime(nowUTC()),
	)
	if err != nil {
		return "", err
	}
	return token, nil
}

func (s *LoginStore) UsernameFromLogin(ctx context.Context, token string) (string, error) {
	var username string
	err := s.db.QueryRowContext(ctx,
		`SELECT username FROM login_sessions WHERE id = ?`, token,
	).Scan(&username)
	if errors.Is(err, sql.ErrNoRows) {
		return "", geohunt.ErrNoLoginSession
	}
	return username, err
}

func (s *LoginStore) DeleteLogin(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login_sessions WHERE id = ?`, token)
	return err
}
