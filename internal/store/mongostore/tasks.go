package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/playperu/geohunt/internal/geohunt"
)

type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type taskDoc struct {
	ID            string    `bson:"_id"`
	Name          string    `bson:"taskName"`
	RiddleText    string    `bson:"riddleText"`
	Hints         []string  `bson:"hints"`
	Location      geoPoint  `bson:"location"`
	CreatedBy     string    `bson:"createdBy,omitempty"`
	AssignCount   int64     `bson:"assignCount"`
	CompleteCount int64     `bson:"completeCount"`
	CreatedAt     time.Time `bson:"createdAt"`
}

func toTaskDoc(t geohunt.Task) taskDoc {
	return taskDoc{
		ID:            t.ID,
		Name:          t.Name,
		RiddleText:    t.RiddleText,
		Hints:         t.Hints,
		Location:      geoPoint{Type: "Point", Coordinates: []float64{t.Location.Lon, t.Location.Lat}},
		CreatedBy:     t.CreatedBy,
		AssignCount:   t.AssignCount,
		CompleteCount: t.CompleteCount,
		CreatedAt:     t.CreatedAt,
	}
}

func (d taskDoc) task() geohunt.Task {
	t := geohunt.Task{
		ID:            d.ID,
		Name:          d.Name,
		RiddleText:    d.RiddleText,
		Hints:         d.Hints,
		CreatedBy:     d.CreatedBy,
		AssignCount:   d.AssignCount,
		CompleteCount: d.CompleteCount,
		CreatedAt:     d.CreatedAt,
	}
	if len(d.Location.Coordinates) == 2 {
		t.Location = geohunt.Point{Lon: d.Location.Coordinates[0], Lat: d.Location.Coordinates[1]}
	}
	return t
}

// nearFilter matches documents within radiusKm of center, nearest first.
func nearFilter(center geohunt.Point, radiusKm float64) bson.M {
	return bson.M{
		"location": bson.M{
			"$near": bson.M{
				"$geometry": bson.M{
					"type":        "Point",
					"coordinates": []float64{center.Lon, center.Lat},
				},
				"$maxDistance": radiusKm * 1000,
			},
		},
	}
}

type TaskStore struct {
	col *mongo.Collection
}

func (s *TaskStore) Insert(ctx context.Context, t geohunt.Task) (geohunt.Task, error) {
	t.ID = newID()
	t.CreatedAt = nowUTC()
	t.AssignCount = 0
	t.CompleteCount = 0
	if t.Hints == nil {
		t.Hints = []string{}
	}
	if _, err := s.col.InsertOne(ctx, toTaskDoc(t)); err != nil {
		return geohunt.Task{}, err
	}
	return t, nil
}

func (s *TaskStore) FindByID(ctx context.Context, id string) (geohunt.Task, error) {
	var d taskDoc
	err := s.col.FindOne(ctx, bson.M{"_id": id}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return geohunt.Task{}, geohunt.ErrTaskNotFound
	}
	if err != nil {
		return geohunt.Task{}, err
	}
	return d.task(), nil
}

func (s *TaskStore) FindWithinRadius(ctx context.Context, center geohunt.Point, radiusKm float64) ([]geohunt.Task, error) {
	cur, err := s.col.Find(ctx, nearFilter(center, radiusKm))
	if err != nil {
		return nil, err
	}
	var docs []taskDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	tasks := make([]geohunt.Task, len(docs))
	for i, d := range docs {
		tasks[i] = d.task()
	}
	return tasks, nil
}

func (s *TaskStore) IncrementCounter(ctx context.Context, id string, c geohunt.Counter) error {
	if c != geohunt.CounterAssign && c != geohunt.CounterComplete {
		return fmt.Errorf("unknown task counter %q", c)
	}
	res, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$inc": bson.M{string(c): 1}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return geohunt.ErrTaskNotFound
	}
	return nil
}

func (s *TaskStore) Count(ctx context.Context) (int64, error) {
	return s.col.CountDocuments(ctx, bson.D{})
}
