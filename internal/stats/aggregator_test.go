package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/geohunt"
	"github.com/playperu/geohunt/internal/migrations"
	"github.com/playperu/geohunt/internal/store/docstore"
)

type fakeMedia struct {
	summary    geohunt.MediaSummary
	records    []geohunt.MediaRecord
	summaryErr error
	recordsErr error
}

func (f *fakeMedia) SummaryForUser(ctx context.Context, username string) (geohunt.MediaSummary, error) {
	return f.summary, f.summaryErr
}

func (f *fakeMedia) RawRecordsForUser(ctx context.Context, username string) ([]geohunt.MediaRecord, error) {
	return f.records, f.recordsErr
}

var (
	gate  = geohunt.Point{Lon: 13.3777, Lat: 52.5163}
	tower = geohunt.Point{Lon: 13.4094, Lat: 52.5208}
)

func setup(t *testing.T, media *fakeMedia) (*Aggregator, *docstore.Store, [2]string) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := migrations.Run(ctx, db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	s := docstore.New(db)

	var ids [2]string
	for i, p := range []geohunt.Point{gate, tower} {
		task, err := s.Tasks.Insert(ctx, geohunt.Task{Name: []string{"Gate", "Tower"}[i], Location: p})
		if err != nil {
			t.Fatalf("insert task: %v", err)
		}
		ids[i] = task.ID
	}
	if _, err := s.Tasks.Insert(ctx, geohunt.Task{Name: "Elsewhere", Location: geohunt.Point{Lon: 2.35, Lat: 48.85}}); err != nil {
		t.Fatalf("insert task: %v", err)
	}

	if _, err := s.Users.Insert(ctx, geohunt.User{Username: "alice"}); err != nil {
		t.Fatalf("insert user: %v", err)
	}
	for _, id := range []string{ids[0], ids[1], ids[0]} {
		if err := s.Users.AppendCompletedTask(ctx, "alice", id); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAggregator(logger, s.Tasks, s.Users, media, 0.1), s, ids
}

func TestStatsReport(t *testing.T) {
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	nearTowerLats, nearTowerLons := EncodeCoordinates([]geohunt.Point{
		{Lon: 2.35, Lat: 48.85},
		{Lon: tower.Lon, Lat: tower.Lat + 0.0002},
	})
	media := &fakeMedia{
		summary: geohunt.MediaSummary{UploadedVideos: 3, DeviceInfo: "Pixel", LastActivityDate: last},
		records: []geohunt.MediaRecord{
			{ID: 1, Uploader: "alice", Latitudes: "40.0", Longitudes: "-74.0"},
			{ID: 2, Uploader: "alice", Latitudes: nearTowerLats, Longitudes: nearTowerLons},
			{ID: 3, Uploader: "alice", Latitudes: "52.5163,52.5164", Longitudes: "13.3777"},
		},
	}
	agg, _, ids := setup(t, media)

	report, err := agg.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}

	if report.GeoHunt.UserName != "alice" || report.GeoHunt.TasksCompleted != 3 {
		t.Errorf("geoHunt = %+v", report.GeoHunt)
	}
	if report.Tasks.Count != 3 {
		t.Errorf("tasks.count = %d, want 3", report.Tasks.Count)
	}
	if report.MediaQ.UploadedVideos != 3 || !report.MediaQ.LastActivityDate.Equal(last) {
		t.Errorf("mediaQ = %+v", report.MediaQ)
	}

	if len(report.ValidatedVideos) != 1 {
		t.Fatalf("validatedVideos = %+v, want one match", report.ValidatedVideos)
	}
	m := report.ValidatedVideos[0]
	if m.MediaID != 2 || m.TaskID != ids[1] || m.TaskName != "Tower" {
		t.Errorf("match = %+v", m)
	}
	if m.DistanceKm <= 0 || m.DistanceKm >= 0.1 {
		t.Errorf("distance = %v, want within (0, 0.1)", m.DistanceKm)
	}
}

func TestStatsFirstTaskWins(t *testing.T) {
	// Both tasks sit within range of the upload when the limit is wide.
	media := &fakeMedia{records: []geohunt.MediaRecord{{ID: 7, Latitudes: "52.5185", Longitudes: "13.39"}}}
	agg, _, ids := setup(t, media)
	agg.maxDistanceKm = 50

	report, err := agg.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(report.ValidatedVideos) != 1 || report.ValidatedVideos[0].TaskID != ids[0] {
		t.Errorf("validatedVideos = %+v, want one match on the first completed task", report.ValidatedVideos)
	}
}

func TestStatsNoMedia(t *testing.T) {
	agg, _, _ := setup(t, &fakeMedia{})

	report, err := agg.Stats(context.Background(), "alice")
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if report.ValidatedVideos == nil || len(report.ValidatedVideos) != 0 {
		t.Errorf("validatedVideos = %#v, want empty slice", report.ValidatedVideos)
	}
	if !report.MediaQ.LastActivityDate.IsZero() {
		t.Errorf("mediaQ = %+v, want zero summary", report.MediaQ)
	}
}

func TestStatsErrors(t *testing.T) {
	boom := errors.New("connection refused")

	t.Run("unknown user", func(t *testing.T) {
		agg, _, _ := setup(t, &fakeMedia{})
		if _, err := agg.Stats(context.Background(), "bob"); !errors.Is(err, geohunt.ErrUserNotFound) {
			t.Errorf("err = %v, want ErrUserNotFound", err)
		}
	})
	t.Run("summary fails", func(t *testing.T) {
		agg, _, _ := setup(t, &fakeMedia{summaryErr: boom})
		if _, err := agg.Stats(context.Background(), "alice"); !errors.Is(err, boom) {
			t.Errorf("err = %v, want wrapped failure", err)
		}
	})
	t.Run("records unavailable", func(t *testing.T) {
		agg, _, _ := setup(t, &fakeMedia{recordsErr: geohunt.ErrStoreUnavailable})
		if _, err := agg.Stats(context.Background(), "alice"); !errors.Is(err, geohunt.ErrStoreUnavailable) {
			t.Errorf("err = %v, want ErrStoreUnavailable", err)
		}
	})
}
