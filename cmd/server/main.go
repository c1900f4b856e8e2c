package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/playperu/geohunt/internal/config"
	"github.com/playperu/geohunt/internal/database"
	"github.com/playperu/geohunt/internal/game"
	"github.com/playperu/geohunt/internal/geohunt"
	"github.com/playperu/geohunt/internal/handler/health"
	"github.com/playperu/geohunt/internal/media"
	"github.com/playperu/geohunt/internal/migrations"
	"github.com/playperu/geohunt/internal/server"
	"github.com/playperu/geohunt/internal/stats"
	"github.com/playperu/geohunt/internal/store/docstore"
	"github.com/playperu/geohunt/internal/store/mongostore"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Hunt stores ---
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer st.close()

	if cfg.SeedDemo {
		if err := server.SeedDemoTasks(ctx, logger, st.tasks); err != nil {
			return fmt.Errorf("seeding demo tasks: %w", err)
		}
	}

	// --- Media database ---
	var mediaStore geohunt.MediaStore = media.Disabled{}
	checks := map[string]health.Checker{"store": st.check}
	g, gctx := errgroup.WithContext(ctx)

	if cfg.Media.DSN != "" {
		ms := media.New(logger, cfg.MediaRetry())
		defer ms.Close()
		mediaStore = ms
		checks["media"] = ms

		// Queries wait for the connection under the retry policy, so startup
		// does not block on the tunnel.
		go func() {
			if err := ms.Connect(gctx, cfg.Media); err != nil {
				logger.Error("media store connection failed", "error", err)
			}
		}()
	} else {
		logger.Warn("MEDIA_DSN not set, upload statistics disabled")
	}

	if cfg.Debug {
		logger.Warn("debug geofence enabled", "max_distance_km", cfg.GeofenceKm())
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, server.Deps{
		Tasks:    st.tasks,
		Sessions: st.sessions,
		Users:    st.users,
		Logins:   st.logins,
		Engine: game.NewEngine(logger, st.tasks, st.sessions, st.users, game.Config{
			RadiusKm:      cfg.TaskRadiusKm,
			MaxDistanceKm: cfg.GeofenceKm(),
		}),
		Stats:  stats.NewAggregator(logger, st.tasks, st.users, mediaStore, cfg.GeofenceKm()),
		Broker: server.NewBroker(logger),
		Health: health.NewHandler(logger, checks, health.WithOptional("media")).Routes(),
		WebDir: cfg.WebDir,
	})

	// --- Run ---
	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

type stores struct {
	tasks    geohunt.TaskStore
	sessions geohunt.SessionStore
	users    geohunt.UserStore
	logins   geohunt.LoginStore
	check    health.Checker
	close    func()
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StoreBackend {
	case config.BackendMongo:
		ms, err := mongostore.Connect(ctx, logger, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, fmt.Errorf("connecting to mongo: %w", err)
		}
		return &stores{
			tasks:    ms.Tasks,
			sessions: ms.Sessions,
			users:    ms.Users,
			logins:   ms.Logins,
			check:    ms,
			close:    func() { ms.Close(context.Background()) },
		}, nil

	default:
		if dir := filepath.Dir(cfg.DBPath); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		db, err := database.Open(ctx, cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("connecting to sqlite: %w", err)
		}
		version, err := migrations.Run(ctx, db)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		logger.Info("connected to sqlite", "path", cfg.DBPath, "schema_version", version)

		ds := docstore.New(db)
		return &stores{
			tasks:    ds.Tasks,
			sessions: ds.Sessions,
			users:    ds.Users,
			logins:   ds.Logins,
			check:    ds,
			close:    func() { db.Close() },
		}, nil
	}
}
