package docstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/geohunt"
	"github.com/playperu/geohunt/internal/migrations"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.Open(context.Background(), database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := migrations.Run(context.Background(), db); err != nil {
		t.Fatalf("migrations: %v", err)
	}
	return New(db)
}

var alexanderplatz = geohunt.Point{Lon: 13.4132, Lat: 52.5219}

func TestTaskInsertAndFind(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	created, err := s.Tasks.Insert(ctx, geohunt.Task{
		Name:          "TV Tower",
		RiddleText:    "Tallest in town",
		Hints:         []string{"round", "silver", "tall"},
		Location:      alexanderplatz,
		AssignCount:   42,
		CompleteCount: 7,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated id")
	}

	got, err := s.Tasks.FindByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Name != "TV Tower" || len(got.Hints) != 3 || got.Location != alexanderplatz {
		t.Errorf("unexpected task %+v", got)
	}
	if got.AssignCount != 0 || got.CompleteCount != 0 {
		t.Errorf("counters = %d/%d, want 0/0", got.AssignCount, got.CompleteCount)
	}

	if _, err := s.Tasks.FindByID(ctx, "nope"); !errors.Is(err, geohunt.ErrTaskNotFound) {
		t.Errorf("find unknown: err = %v, want ErrTaskNotFound", err)
	}
}

func TestTaskCounters(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	task, _ := s.Tasks.Insert(ctx, geohunt.Task{Name: "a", Location: alexanderplatz})

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Tasks.IncrementCounter(ctx, task.ID, geohunt.CounterAssign); err != nil {
				t.Errorf("increment: %v", err)
			}
		}()
	}
	wg.Wait()
	if err := s.Tasks.IncrementCounter(ctx, task.ID, geohunt.CounterComplete); err != nil {
		t.Fatalf("increment complete: %v", err)
	}

	got, _ := s.Tasks.FindByID(ctx, task.ID)
	if got.AssignCount != 5 || got.CompleteCount != 1 {
		t.Errorf("counters = %d/%d, want 5/1", got.AssignCount, got.CompleteCount)
	}

	if err := s.Tasks.IncrementCounter(ctx, "nope", geohunt.CounterAssign); !errors.Is(err, geohunt.ErrTaskNotFound) {
		t.Errorf("unknown task: err = %v, want ErrTaskNotFound", err)
	}
	if err := s.Tasks.IncrementCounter(ctx, task.ID, "bogus"); err == nil {
		t.Error("expected error for unknown counter")
	}
}

func TestTaskFindWithinRadius(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	points := map[string]geohunt.Point{
		"near":    {Lon: 13.4140, Lat: 52.5220},
		"nearish": {Lon: 13.5, Lat: 52.6},
		"potsdam": {Lon: 13.0645, Lat: 52.3906},  // ~27 km
		"hamburg": {Lon: 9.9937, Lat: 53.5511},   // ~255 km
		"sydney":  {Lon: 151.2093, Lat: -33.8688}, // far away
	}
	for name, p := range points {
		if _, err := s.Tasks.Insert(ctx, geohunt.Task{Name: name, Location: p}); err != nil {
			t.Fatalf("insert %s: %v", name, err)
		}
	}

	got, err := s.Tasks.FindWithinRadius(ctx, alexanderplatz, 25)
	if err != nil {
		t.Fatalf("find within radius: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d tasks, want 2: %+v", len(got), got)
	}
	if got[0].Name != "near" || got[1].Name != "nearish" {
		t.Errorf("order = %q, %q; want near, nearish", got[0].Name, got[1].Name)
	}

	n, err := s.Tasks.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 5 {
		t.Errorf("count = %d, want 5", n)
	}
}

func TestSessionIndex(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	gs, err := s.Sessions.Insert(ctx, geohunt.GameSession{
		Username: "hunter",
		TaskIDs:  []string{"a", "b", "c", "d"},
		Index:    geohunt.IndexNotStarted,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := s.Sessions.Start(ctx, gs.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	// Starting twice leaves the index alone.
	if err := s.Sessions.Start(ctx, gs.ID); err != nil {
		t.Fatalf("second start: %v", err)
	}

	got, _ := s.Sessions.FindByID(ctx, gs.ID)
	if got.Index != 0 || len(got.TaskIDs) != 4 || got.Username != "hunter" {
		t.Fatalf("unexpected session %+v", got)
	}

	for want := 1; want <= geohunt.TasksPerGame; want++ {
		idx, err := s.Sessions.IncrementIndex(ctx, gs.ID, 1, geohunt.TasksPerGame)
		if err != nil {
			t.Fatalf("increment to %d: %v", want, err)
		}
		if idx != want {
			t.Errorf("index = %d, want %d", idx, want)
		}
	}

	if _, err := s.Sessions.IncrementIndex(ctx, gs.ID, 1, geohunt.TasksPerGame); !errors.Is(err, geohunt.ErrGameOver) {
		t.Errorf("past the end: err = %v, want ErrGameOver", err)
	}
	if _, err := s.Sessions.IncrementIndex(ctx, "nope", 1, geohunt.TasksPerGame); !errors.Is(err, geohunt.ErrSessionNotFound) {
		t.Errorf("unknown: err = %v, want ErrSessionNotFound", err)
	}
	if err := s.Sessions.Start(ctx, "nope"); !errors.Is(err, geohunt.ErrSessionNotFound) {
		t.Errorf("start unknown: err = %v, want ErrSessionNotFound", err)
	}
}

func TestSessionConcurrentIncrements(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	gs, _ := s.Sessions.Insert(ctx, geohunt.GameSession{Username: "u", TaskIDs: []string{"a", "b", "c", "d"}, Index: -1})

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Sessions.IncrementIndex(ctx, gs.ID, 1, geohunt.TasksPerGame)
		}()
	}
	wg.Wait()

	got, _ := s.Sessions.FindByID(ctx, gs.ID)
	if got.Index != geohunt.TasksPerGame {
		t.Errorf("index = %d, want %d", got.Index, geohunt.TasksPerGame)
	}
}

func TestUsers(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	if _, err := s.Users.Insert(ctx, geohunt.User{Username: "hunter", PasswordHash: "x"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := s.Users.Insert(ctx, geohunt.User{Username: "hunter"}); !errors.Is(err, geohunt.ErrUsernameTaken) {
		t.Errorf("duplicate: err = %v, want ErrUsernameTaken", err)
	}

	for _, id := range []string{"t2", "t1", "t3"} {
		if err := s.Users.AppendCompletedTask(ctx, "hunter", id); err != nil {
			t.Fatalf("append %s: %v", id, err)
		}
	}
	if err := s.Users.SetActiveGame(ctx, "hunter", "g1"); err != nil {
		t.Fatalf("set active game: %v", err)
	}

	u, err := s.Users.FindByUsername(ctx, "hunter")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if u.ActiveGame != "g1" || u.PasswordHash != "x" {
		t.Errorf("unexpected user %+v", u)
	}
	want := []string{"t2", "t1", "t3"}
	if len(u.TasksCompleted) != len(want) {
		t.Fatalf("completed = %v, want %v", u.TasksCompleted, want)
	}
	for i := range want {
		if u.TasksCompleted[i] != want[i] {
			t.Errorf("completed[%d] = %q, want %q", i, u.TasksCompleted[i], want[i])
		}
	}

	if _, err := s.Users.FindByUsername(ctx, "ghost"); !errors.Is(err, geohunt.ErrUserNotFound) {
		t.Errorf("find unknown: err = %v", err)
	}
	if err := s.Users.AppendCompletedTask(ctx, "ghost", "t1"); !errors.Is(err, geohunt.ErrUserNotFound) {
		t.Errorf("append unknown: err = %v", err)
	}
	if err := s.Users.SetActiveGame(ctx, "ghost", "g1"); !errors.Is(err, geohunt.ErrUserNotFound) {
		t.Errorf("set active unknown: err = %v", err)
	}
}

func TestLogins(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	token, err := s.Logins.CreateLogin(ctx, "hunter")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	username, err := s.Logins.UsernameFromLogin(ctx, token)
	if err != nil || username != "hunter" {
		t.Fatalf("lookup = %q, %v", username, err)
	}
	if err := s.Logins.DeleteLogin(ctx, token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Logins.UsernameFromLogin(ctx, token); !errors.Is(err, geohunt.ErrNoLoginSession) {
		t.Errorf("after delete: err = %v, want ErrNoLoginSession", err)
	}
}
