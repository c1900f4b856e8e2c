package mongostore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/playperu/geohunt/internal/geohunt"
)

type userDoc struct {
	ID             string    `bson:"_id"`
	Username       string    `bson:"username"`
	PasswordHash   string    `bson:"passwordHash"`
	TasksCompleted []string  `bson:"tasksCompleted"`
	ActiveGame     string    `bson:"activeGame,omitempty"`
	CreatedAt      time.Time `bson:"createdAt"`
}

type UserStore struct {
	col *mongo.Collection
}

func (s *UserStore) Insert(ctx context.Context, u geohunt.User) (geohunt.User, error) {
	u.ID = newID()
	u.CreatedAt = nowUTC()
	u.TasksCompleted = []string{}
	u.ActiveGame = ""

	_, err := s.col.InsertOne(ctx, userDoc{
		ID:             u.ID,
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		TasksCompleted: u.TasksCompleted,
		CreatedAt:      u.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return geohunt.User{}, geohunt.ErrUsernameTaken
	}
	if err != nil {
		return geohunt.User{}, err
	}
	return u, nil
}

func (s *UserStore) FindByUsername(ctx context.Context, username string) (geohunt.User, error) {
	var d userDoc
	err := s.col.FindOne(ctx, bson.M{"username": username}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return geohunt.User{}, geohunt.ErrUserNotFound
	}
	if err != nil {
		return geohunt.User{}, err
	}
	u := geohunt.User{
		ID:             d.ID,
		Username:       d.Username,
		PasswordHash:   d.PasswordHash,
		TasksCompleted: d.TasksCompleted,
		ActiveGame:     d.ActiveGame,
		CreatedAt:      d.CreatedAt,
	}
	if u.TasksCompleted == nil {
		u.TasksCompleted = []string{}
	}
	return u, nil
}

func (s *UserStore) SetActiveGame(ctx context.Context, username, sessionID string) error {
	return s.update(ctx, username, bson.M{"$set": bson.M{"activeGame": sessionID}})
}

func (s *UserStore) AppendCompletedTask(ctx context.Context, username, taskID string) error {
	return s.update(ctx, username, bson.M{"$push": bson.M{"tasksCompleted": taskID}})
}

func (s *UserStore) update(ctx context.Context, username string, update bson.M) error {
	res, err := s.col.UpdateOne(ctx, bson.M{"username": username}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return geohunt.ErrUserNotFound
	}
	return nil
}

type loginDoc struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	CreatedAt time.Time `bson:"createdAt"`
}

type LoginStore struct {
	col *mongo.Collection
}

func (s *LoginStore) CreateLogin(ctx context.Context, username string) (string, error) {
	b := make([]byte, 16)
	rand.Read(b)
	token := hex.EncodeToString(b)

	if _, err := s.col.InsertOne(ctx, loginDoc{ID: token, Username: username, CreatedAt: nowUTC()}); err != nil {
		return "", err
	}
	return token, nil
}

func (s *LoginStore) UsernameFromLogin(ctx context.Context, token string) (string, error) {
	var d loginDoc
	err := s.col.FindOne(ctx, bson.M{"_id": token}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", geohunt.ErrNoLoginSession
	}
	return d.Username, err
}

func (s *LoginStore) DeleteLogin(ctx context.Context, token string) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": token})
	return err
}
