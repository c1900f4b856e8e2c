// Package mongostore implements the hunt stores on MongoDB. Task locations
// are GeoJSON points behind a 2dsphere index so proximity queries use $near.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tasksCollection    = "tasks"
	sessionsCollection = "games"
	usersCollection    = "users"
	loginsCollection   = "logins"
)

type Store struct {
	Tasks    *TaskStore
	Sessions *SessionStore
	Users    *UserStore
	Logins   *LoginStore

	client *mongo.Client
}

// Connect dials uri, verifies the connection and ensures indexes. Index
// failures are logged, not fatal.
func Connect(ctx context.Context, logger *slog.Logger, uri, dbName string) (*Store, error) {
	start := time.Now()
	logger.Info("connecting to mongo", "uri", redactURI(uri), "db", dbName)

	dctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(dctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(dctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(dbName)
	if err := createIndexes(dctx, db); err != nil {
		logger.Warn("mongo index creation", "error", err)
	}

	logger.Info("connected to mongo", "duration_ms", time.Since(start).Milliseconds())
	return &Store{
		Tasks:    &TaskStore{col: db.Collection(tasksCollection)},
		Sessions: &SessionStore{col: db.Collection(sessionsCollection)},
		Users:    &UserStore{col: db.Collection(usersCollection)},
		Logins:   &LoginStore{col: db.Collection(loginsCollection)},
		client:   client,
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Check implements health.Checker.
func (s *Store) Check(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func createIndexes(ctx context.Context, db *mongo.Database) error {
	var errs []string

	if _, err := db.Collection(tasksCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "location", Value: "2dsphere"}},
	}); err != nil {
		errs = append(errs, "tasks.location: "+err.Error())
	}
	if _, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		errs = append(errs, "users.username: "+err.Error())
	}
	if _, err := db.Collection(sessionsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user", Value: 1}},
	}); err != nil {
		errs = append(errs, "games.user: "+err.Error())
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func newID() string {
	return uuid.NewString()
}

func nowUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// documentExists tells a guarded update that missed on its condition apart
// from one whose document does not exist.
func documentExists(ctx context.Context, col *mongo.Collection, id string) (bool, error) {
	n, err := col.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

func redactURI(raw string) string {
	if raw == "" || !strings.Contains(raw, "://") {
		return raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	u.User = url.UserPassword("****", "****")
	return u.String()
}
