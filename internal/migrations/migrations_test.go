package migrations_test

import (
	"context"
	"testing"

	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/migrations"
)

func TestRunCreatesTables(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	v, err := migrations.Run(ctx, db)
	if err != nil {
		t.Fatalf("running migrations: %v", err)
	}
	if v != 1 {
		t.Errorf("version = %d, want 1", v)
	}

	for _, table := range []string{"tasks", "game_sessions", "users", "completed_tasks", "login_sessions"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found: %v", table, err)
		}
	}
}

func TestRunTwiceIsNoOp(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	first, err := migrations.Run(ctx, db)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := migrations.Run(ctx, db)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Errorf("version moved from %d to %d", first, second)
	}
}
