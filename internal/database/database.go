// Package database opens the libSQL database that backs the document store.
package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/tursodatabase/go-libsql"
)

// Memory names a private in-memory database.
const Memory = ":memory:"

// Open opens the database at path and applies the connection pragmas. A
// Memory database is held on one connection, since each new connection
// would get its own empty database.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	db, err := sql.Open("libsql", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if path == Memory {
		db.SetMaxOpenConns(1)
	}

	if err := applyPragmas(ctx, db, pragmas(path)); err != nil {
		db.Close()
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database %s: %w", path, err)
	}
	return db, nil
}

func pragmas(path string) []string {
	p := []string{
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	if path != Memory {
		p = append(p, "PRAGMA journal_mode=WAL", "PRAGMA synchronous=NORMAL")
	}
	return p
}

// applyPragmas runs each statement as a query because libSQL refuses Exec
// for statements that return a row, which some pragmas do.
func applyPragmas(ctx context.Context, db *sql.DB, stmts []string) error {
	for _, stmt := range stmts {
		rows, err := db.QueryContext(ctx, stmt)
		if err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
		rows.Close()
	}
	return nil
}
