// Package stats builds the per-user statistics report from the hunt stores
// and the media database.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/geohunt/internal/geofence"
	"github.com/playperu/geohunt/internal/geohunt"
)

type Aggregator struct {
	tasks         geohunt.TaskStore
	users         geohunt.UserStore
	media         geohunt.MediaStore
	maxDistanceKm float64
	logger        *slog.Logger
}

func NewAggregator(logger *slog.Logger, tasks geohunt.TaskStore, users geohunt.UserStore, media geohunt.MediaStore, maxDistanceKm float64) *Aggregator {
	return &Aggregator{
		tasks:         tasks,
		users:         users,
		media:         media,
		maxDistanceKm: maxDistanceKm,
		logger:        logger,
	}
}

// Stats fetches the media summary, the completed-task count, the global task
// count and the video correlations concurrently. Any failure fails the whole
// report.
func (a *Aggregator) Stats(ctx context.Context, username string) (geohunt.StatsReport, error) {
	user, err := a.users.FindByUsername(ctx, username)
	if err != nil {
		return geohunt.StatsReport{}, err
	}

	var (
		summary geohunt.MediaSummary
		count   int64
		matches []geohunt.VideoMatch
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.media.SummaryForUser(gctx, username)
		if err != nil {
			return fmt.Errorf("media summary: %w", err)
		}
		summary = s
		return nil
	})
	g.Go(func() error {
		n, err := a.tasks.Count(gctx)
		if err != nil {
			return fmt.Errorf("counting tasks: %w", err)
		}
		count = n
		return nil
	})
	g.Go(func() error {
		m, err := a.validateVideos(gctx, user)
		if err != nil {
			return err
		}
		matches = m
		return nil
	})
	if err := g.Wait(); err != nil {
		return geohunt.StatsReport{}, err
	}

	return geohunt.StatsReport{
		GeoHunt: geohunt.GeoHuntStats{
			UserName:       user.Username,
			TasksCompleted: len(user.TasksCompleted),
		},
		MediaQ:          summary,
		Tasks:           geohunt.TaskTotals{Count: count},
		ValidatedVideos: matches,
	}, nil
}

// validateVideos matches each uploaded video against the user's completed
// tasks. A video is credited to the first task it comes within range of.
func (a *Aggregator) validateVideos(ctx context.Context, user geohunt.User) ([]geohunt.VideoMatch, error) {
	records, err := a.media.RawRecordsForUser(ctx, user.Username)
	if err != nil {
		return nil, fmt.Errorf("media records: %w", err)
	}
	matches := []geohunt.VideoMatch{}
	if len(records) == 0 || len(user.TasksCompleted) == 0 {
		return matches, nil
	}

	tasks, err := a.completedTasks(ctx, user.TasksCompleted)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		points, err := ParseCoordinates(rec.Latitudes, rec.Longitudes)
		if err != nil {
			a.logger.Warn("skipping media record", "media_id", rec.ID, "user", user.Username, "error", err)
			continue
		}
		if m, ok := a.firstMatch(rec, points, tasks); ok {
			matches = append(matches, m)
		}
	}
	return matches, nil
}

func (a *Aggregator) firstMatch(rec geohunt.MediaRecord, points []geohunt.Point, tasks []geohunt.Task) (geohunt.VideoMatch, bool) {
	for _, t := range tasks {
		for _, p := range points {
			if d := geofence.DistanceKm(t.Location, p); d < a.maxDistanceKm {
				return geohunt.VideoMatch{
					TaskID:     t.ID,
					TaskName:   t.Name,
					MediaID:    rec.ID,
					Location:   p,
					DistanceKm: d,
				}, true
			}
		}
	}
	return geohunt.VideoMatch{}, false
}

// completedTasks resolves ids in completion order, once each. Tasks that no
// longer exist are left out.
func (a *Aggregator) completedTasks(ctx context.Context, ids []string) ([]geohunt.Task, error) {
	seen := make(map[string]bool, len(ids))
	var tasks []geohunt.Task
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		t, err := a.tasks.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, geohunt.ErrTaskNotFound) {
				a.logger.Warn("completed task missing", "task_id", id)
				continue
			}
			return nil, fmt.Errorf("loading task %s: %w", id, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
