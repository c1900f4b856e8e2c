package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"testing"
)

func TestSeedDemoTasks(t *testing.T) {
	e := newTestEnv(t, stubMedia{})
	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for range 2 {
		if err := SeedDemoTasks(ctx, logger, e.store.Tasks); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	n, err := e.store.Tasks.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != int64(len(demoTasks)) {
		t.Errorf("count = %d, want %d", n, len(demoTasks))
	}

	// The seeded city is playable out of the box.
	cookie := e.registerAndLogin(t, "alice")
	w := e.do(http.MethodPost, "/api/hunts", map[string]float64{"lon": 13.39, "lat": 52.515}, cookie)
	if w.Code != http.StatusCreated {
		t.Errorf("create hunt: expected 201, got %d: %s", w.Code, w.Body.String())
	}
}
