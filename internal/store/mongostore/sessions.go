package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/playperu/geohunt/internal/geohunt"
)

type sessionDoc struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"user"`
	TaskIDs   []string  `bson:"tasks"`
	Index     int       `bson:"index"`
	CreatedAt time.Time `bson:"createdAt"`
}

type SessionStore struct {
	col *mongo.Collection
}

func (s *SessionStore) Insert(ctx context.Context, gs geohunt.GameSession) (geohunt.GameSession, error) {
	gs.ID = newID()
	gs.CreatedAt = nowUTC()
	_, err := s.col.InsertOne(ctx, sessionDoc{
		ID:        gs.ID,
		Username:  gs.Username,
		TaskIDs:   gs.TaskIDs,
		Index:     gs.Index,
		CreatedAt: gs.CreatedAt,
	})
	if err != nil {
		return geohunt.GameSession{}, err
	}
	return gs, nil
}

func (s *SessionStore) FindByID(ctx context.Context, id string) (geohunt.GameSession, error) {
	var d sessionDoc
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return geohunt.GameSession{}, geohunt.ErrSessionNotFound
	}
	if err != nil {
		return geohunt.GameSession{}, err
	}
	return geohunt.GameSession{
		ID:        d.ID,
		Username:  d.Username,
		TaskIDs:   d.TaskIDs,
		Index:     d.Index,
		CreatedAt: d.CreatedAt,
	}, nil
}

func (s *SessionStore) IncrementIndex(ctx context.Context, id string, delta, limit int) (int, error) {
	var d sessionDoc
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "index": bson.M{"$lte": limit - delta}},
		bson.M{"$inc": bson.M{"index": delta}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		found, err := documentExists(ctx, s.col, id)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, geohunt.ErrSessionNotFound
		}
		return 0, geohunt.ErrGameOver
	}
	if err != nil {
		return 0, err
	}
	return d.Index, nil
}

func (s *SessionStore) Start(ctx context.Context, id string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "index": geohunt.IndexNotStarted},
		bson.M{"$set": bson.M{"index": 0}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount > 0 {
		return nil
	}
	found, err := documentExists(ctx, s.col, id)
	if err != nil {
		return err
	}
	if !found {
		return geohunt.ErrSessionNotFound
	}
	return nil
}
