package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/game"
	"github.com/playperu/geohunt/internal/geohunt"
	"github.com/playperu/geohunt/internal/migrations"
	"github.com/playperu/geohunt/internal/stats"
	"github.com/playperu/geohunt/internal/store/docstore"
)

var berlin = geohunt.Point{Lon: 13.405, Lat: 52.52}

type stubMedia struct {
	records []geohunt.MediaRecord
	err     error
}

func (s stubMedia) SummaryForUser(context.Context, string) (geohunt.MediaSummary, error) {
	return geohunt.MediaSummary{UploadedVideos: len(s.records), DeviceInfo: "test"}, s.err
}

func (s stubMedia) RawRecordsForUser(context.Context, string) ([]geohunt.MediaRecord, error) {
	return s.records, s.err
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type testEnv struct {
	router http.Handler
	store  *docstore.Store
	broker *Broker
}

func newTestEnv(t *testing.T, media geohunt.MediaStore) *testEnv {
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

	logger := discardLogger
	broker := NewBroker(logger)
	deps := Deps{
		Tasks:    s.Tasks,
		Sessions: s.Sessions,
		Users:    s.Users,
		Logins:   s.Logins,
		Engine:   game.NewEngine(logger, s.Tasks, s.Sessions, s.Users, game.Config{RadiusKm: 25, MaxDistanceKm: 0.1}),
		Stats:    stats.NewAggregator(logger, s.Tasks, s.Users, media, 0.1),
		Broker:   broker,
	}
	return &testEnv{router: NewRouter(logger, deps), store: s, broker: broker}
}

// do sends a JSON request, attaching cookie when non-nil.
func (e *testEnv) do(method, path string, body any, cookie *http.Cookie) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

// registerAndLogin creates a player and returns their login cookie.
func (e *testEnv) registerAndLogin(t *testing.T, username string) *http.Cookie {
	t.Helper()
	creds := map[string]string{"username": username, "password": "hunter22"}

	if w := e.do(http.MethodPost, "/api/register", creds, nil); w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	w := e.do(http.MethodPost, "/api/login", creds, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == loginCookieName {
			return c
		}
	}
	t.Fatal("login: no session cookie")
	return nil
}

// seedTasks inserts n tasks spread east of berlin, about 680 m apart.
func (e *testEnv) seedTasks(t *testing.T, n int) []geohunt.Task {
	t.Helper()
	out := make([]geohunt.Task, n)
	for i := range n {
		task, err := e.store.Tasks.Insert(context.Background(), geohunt.Task{
			Name:       "task",
			RiddleText: "riddle",
			Hints:      []string{"one", "two", "three"},
			Location:   geohunt.Point{Lon: berlin.Lon + float64(i)*0.01, Lat: berlin.Lat},
		})
		if err != nil {
			t.Fatalf("insert task: %v", err)
		}
		out[i] = task
	}
	return out
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode: %v (body %q)", err, w.Body.String())
	}
	return v
}
