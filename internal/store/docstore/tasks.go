package docstore

import (
	"cmp"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/playperu/geohunt/internal/geofence"
	"github.com/playperu/geohunt/internal/geohunt"
)

const kmPerDegree = geofence.EarthRadiusKm * math.Pi / 180

type TaskStore struct {
	db *sql.DB
}

func scanTask(row scanner) (geohunt.Task, error) {
	var data string
	var assigned, completed int64
	if err := row.Scan(&data, &assigned, &completed); err != nil {
		return geohunt.Task{}, err
	}
	var t geohunt.Task
	if err := json.Unmarshal([]byte(data), &t); err != nil {
		return geohunt.Task{}, err
	}
	t.AssignCount = assigned
	t.CompleteCount = completed
	return t, nil
}

func (s *TaskStore) Insert(ctx context.Context, t geohunt.Task) (geohunt.Task, error) {
	t.ID = newID()
	t.CreatedAt = nowUTC()
	t.AssignCount = 0
	t.CompleteCount = 0
	if t.Hints == nil {
		t.Hints = []string{}
	}

	data, err := json.Marshal(t)
	if err != nil {
		return geohunt.Task{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, lon, lat, data) VALUES (?, ?, ?, jsonb(?))`,
		t.ID, t.Location.Lon, t.Location.Lat, string(data),
	)
	if err != nil {
		return geohunt.Task{}, err
	}
	return t, nil
}

func (s *TaskStore) FindByID(ctx context.Context, id string) (geohunt.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT json(data), assign_count, complete_count FROM tasks WHERE id = ?`, id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return geohunt.Task{}, geohunt.ErrTaskNotFound
	}
	return t, err
}

// FindWithinRadius narrows candidates with a lat/lon bounding box and keeps
// those whose great-circle distance is within radiusKm, nearest first.
func (s *TaskStore) FindWithinRadius(ctx context.Context, center geohunt.Point, radiusKm float64) ([]geohunt.Task, error) {
	dLat := radiusKm / kmPerDegree
	query := `SELECT json(data), assign_count, complete_count FROM tasks WHERE lat BETWEEN ? AND ?`
	args := []any{center.Lat - dLat, center.Lat + dLat}

	// Skip the longitude bound near the poles and across the antimeridian.
	if cosLat := math.Cos(center.Lat * math.Pi / 180); cosLat > 0.01 {
		dLon := radiusKm / (kmPerDegree * cosLat)
		if minLon, maxLon := center.Lon-dLon, center.Lon+dLon; minLon >= -180 && maxLon <= 180 {
			query += ` AND lon BETWEEN ? AND ?`
			args = append(args, minLon, maxLon)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type candidate struct {
		task geohunt.Task
		dist float64
	}
	var found []candidate
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if d := geofence.DistanceKm(center, t.Location); d <= radiusKm {
			found = append(found, candidate{task: t, dist: d})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	slices.SortFunc(found, func(a, b candidate) int { return cmp.Compare(a.dist, b.dist) })

	tasks := make([]geohunt.Task, len(found))
	for i, c := range found {
		tasks[i] = c.task
	}
	return tasks, nil
}

func (s *TaskStore) IncrementCounter(ctx context.Context, id string, c geohunt.Counter) error {
	var column string
	switch c {
	case geohunt.CounterAssign:
		column = "assign_count"
	case geohunt.CounterComplete:
		column = "complete_count"
	default:
		return fmt.Errorf("unknown task counter %q", c)
	}

	result, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE tasks SET %[1]s = %[1]s + 1 WHERE id = ?`, column), id,
	)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return geohunt.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks`).Scan(&n)
	return n, err
}
