package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/playperu/geohunt/internal/geohunt"
)

type UserStore struct {
	db *sql.DB
}

func (s *UserStore) Insert(ctx context.Context, u geohunt.User) (geohunt.User, error) {
	u.ID = newID()
	u.CreatedAt = nowUTC()
	u.TasksCompleted = []string{}
	u.ActiveGame = ""

	data, err := json.Marshal(u)
	if err != nil {
		return geohunt.User{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, data) VALUES (?, ?, jsonb(?))`,
		u.ID, u.Username, string(data),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return geohunt.User{}, geohunt.ErrUsernameTaken
	}
	if err != nil {
		return geohunt.User{}, err
	}
	return u, nil
}

// FindByUsername loads the user document and its completed tasks in
// completion order.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (geohunt.User, error) {
	var data, activeGame string
	err := s.db.QueryRowContext(ctx,
		`SELECT json(data), COALESCE(active_game, '') FROM users WHERE username = ?`, username,
	).Scan(&data, &activeGame)
	if errors.Is(err, sql.ErrNoRows) {
		return geohunt.User{}, geohunt.ErrUserNotFound
	}
	if err != nil {
		return geohunt.User{}, err
	}

	var u geohunt.User
	if err := json.Unmarshal([]byte(data), &u); err != nil {
		return geohunt.User{}, err
	}
	u.ActiveGame = activeGame

	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id FROM completed_tasks WHERE username = ? ORDER BY seq`, username,
	)
	if err != nil {
		return geohunt.User{}, err
	}
	defer rows.Close()

	u.TasksCompleted = []string{}
	for rows.Next() {
		var taskID string
		if err := rows.Scan(&taskID); err != nil {
			return geohunt.User{}, err
		}
		u.TasksCompleted = append(u.TasksCompleted, taskID)
	}
	return u, rows.Err()
}

func (s *UserStore) SetActiveGame(ctx context.Context, username, sessionID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET active_game = ? WHERE username = ?`, sessionID, username,
	)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return geohunt.ErrUserNotFound
	}
	return nil
}

func (s *UserStore) AppendCompletedTask(ctx context.Context, username, taskID string) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO completed_tasks (username, task_id, completed_at)
		SELECT ?, ?, ? WHERE EXISTS (SELECT 1 FROM users WHERE username = ?)
	`, username, taskID, formatTime(nowUTC()), username)
	if err != nil {
		return err
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return geohunt.ErrUserNotFound
	}
	return nil
}
