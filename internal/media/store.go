// Package media reads upload statistics from the remote media database, a
// PostgreSQL server usually reached through an SSH tunnel.
package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/ssh"

	"github.com/playperu/geohunt/internal/geohunt"
)

type Config struct {
	DSN string       `env:"DSN"`
	SSH TunnelConfig `envPrefix:"SSH_"`
}

// Store implements geohunt.MediaStore. The connection is opened once by
// Connect; queries issued before it is ready wait according to the retry
// policy. Once Connect has failed, queries fail without waiting.
type Store struct {
	logger *slog.Logger
	retry  RetryPolicy

	pool    atomic.Pointer[pgxpool.Pool]
	tunnel  atomic.Pointer[ssh.Client]
	connErr atomic.Pointer[error]
}

func New(logger *slog.Logger, retry RetryPolicy) *Store {
	return &Store{logger: logger, retry: retry}
}

// Connect opens the tunnel and the connection pool and verifies both with a
// ping. It is meant to run once, in the background, at startup.
func (s *Store) Connect(ctx context.Context, cfg Config) error {
	err := s.connect(ctx, cfg)
	if err != nil {
		s.connErr.Store(&err)
	}
	return err
}

func (s *Store) connect(ctx context.Context, cfg Config) error {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return fmt.Errorf("parsing media dsn: %w", err)
	}

	if cfg.SSH.Enabled() {
		client, err := openTunnel(s.logger, cfg.SSH)
		if err != nil {
			return err
		}
		s.tunnel.Store(client)
		poolCfg.ConnConfig.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return client.DialContext(ctx, network, addr)
		}
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("creating media pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return fmt.Errorf("pinging media database: %w", err)
	}
	s.pool.Store(pool)

	s.logger.Info("media store connected", "host", poolCfg.ConnConfig.Host, "tunnel", cfg.SSH.Enabled())
	return nil
}

func (s *Store) Close() {
	if p := s.pool.Swap(nil); p != nil {
		p.Close()
	}
	if t := s.tunnel.Swap(nil); t != nil {
		t.Close()
	}
}

// Check implements health.Checker.
func (s *Store) Check(ctx context.Context) error {
	p := s.pool.Load()
	if p == nil {
		if err := s.connectError(); err != nil {
			return err
		}
		return errNotReady
	}
	return p.Ping(ctx)
}

const summarySQL = `
SELECT uploaded_videos, COALESCE(device_info, ''), last_activity
FROM user_activity
WHERE username = $1
ORDER BY last_activity DESC
LIMIT 1`

// SummaryForUser returns the latest activity row, or a zero summary for a
// user that never uploaded.
func (s *Store) SummaryForUser(ctx context.Context, username string) (geohunt.MediaSummary, error) {
	var sum geohunt.MediaSummary
	err := s.withPool(ctx, func(p *pgxpool.Pool) error {
		err := p.QueryRow(ctx, summarySQL, username).Scan(&sum.UploadedVideos, &sum.DeviceInfo, &sum.LastActivityDate)
		if errors.Is(err, pgx.ErrNoRows) {
			sum = geohunt.MediaSummary{}
			return nil
		}
		return err
	})
	if err != nil {
		return geohunt.MediaSummary{}, fmt.Errorf("querying media summary: %w", err)
	}
	return sum, nil
}

const recordsSQL = `
SELECT id, username, latitudes, longitudes
FROM videos
WHERE username = $1
ORDER BY id`

func (s *Store) RawRecordsForUser(ctx context.Context, username string) ([]geohunt.MediaRecord, error) {
	var records []geohunt.MediaRecord
	err := s.withPool(ctx, func(p *pgxpool.Pool) error {
		rows, err := p.Query(ctx, recordsSQL, username)
		if err != nil {
			return err
		}
		records, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (geohunt.MediaRecord, error) {
			var r geohunt.MediaRecord
			err := row.Scan(&r.ID, &r.Uploader, &r.Latitudes, &r.Longitudes)
			return r, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("querying media records: %w", err)
	}
	return records, nil
}

func (s *Store) withPool(ctx context.Context, fn func(*pgxpool.Pool) error) error {
	return s.retry.Do(ctx, s.logger, func() error {
		p := s.pool.Load()
		if p == nil {
			if err := s.connectError(); err != nil {
				return fmt.Errorf("%w: %v", geohunt.ErrStoreUnavailable, err)
			}
			return errNotReady
		}
		return fn(p)
	})
}

func (s *Store) connectError() error {
	if e := s.connErr.Load(); e != nil {
		return *e
	}
	return nil
}

// Disabled stands in for the media database when none is configured: every
// user has a zero summary and no uploads.
type Disabled struct{}

func (Disabled) SummaryForUser(context.Context, string) (geohunt.MediaSummary, error) {
	return geohunt.MediaSummary{}, nil
}

func (Disabled) RawRecordsForUser(context.Context, string) ([]geohunt.MediaRecord, error) {
	return nil, nil
}
