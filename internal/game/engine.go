package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/playperu/geohunt/internal/geofence"
	"github.com/playperu/geohunt/internal/geohunt"
)

// Result tells the player what an advance did.
type Result string

const (
	ResultOK                Result = "ok"
	ResultIncorrectLocation Result = "incorrect location"
	ResultGameOver          Result = "game over"
)

// ActiveTask is either the current task of a running hunt or, once Finished,
// the game-over signal.
type ActiveTask struct {
	Finished bool
	Message  string
	Index    int
	Task     geohunt.TaskView
}

// Location is a device position report. Every field is required.
type Location struct {
	Lon      *float64 `json:"lon"`
	Lat      *float64 `json:"lat"`
	Accuracy *float64 `json:"accuracy"`
}

// Completion claims that the player stands at the task TaskID.
type Completion struct {
	TaskID   string
	Location *Location
}

type Outcome struct {
	Result     Result
	Skipped    bool
	Index      int
	Finished   bool
	TaskID     string
	DistanceKm float64
}

type Config struct {
	RadiusKm      float64
	MaxDistanceKm float64
}

// Engine owns the session state machine: Created (index -1), Active
// (0..TasksPerGame-1) and Finished (TasksPerGame). Finished is terminal;
// further calls report game over and change nothing.
type Engine struct {
	tasks    geohunt.TaskStore
	sessions geohunt.SessionStore
	users    geohunt.UserStore
	assigner *Assigner

	maxDistanceKm float64
	logger        *slog.Logger
}

func NewEngine(logger *slog.Logger, tasks geohunt.TaskStore, sessions geohunt.SessionStore, users geohunt.UserStore, cfg Config) *Engine {
	return &Engine{
		tasks:         tasks,
		sessions:      sessions,
		users:         users,
		assigner:      NewAssigner(tasks, cfg.RadiusKm),
		maxDistanceKm: cfg.MaxDistanceKm,
		logger:        logger,
	}
}

// CreateHunt assigns tasks near (lon, lat) to a new session owned by
// username and makes it the user's active game.
func (e *Engine) CreateHunt(ctx context.Context, username string, lon, lat *float64) (string, error) {
	if username == "" || lon == nil || lat == nil {
		return "", geohunt.ErrMissingParameters
	}
	if _, err := e.users.FindByUsername(ctx, username); err != nil {
		return "", err
	}

	tasks, err := e.assigner.Assign(ctx, geohunt.Point{Lon: *lon, Lat: *lat})
	if err != nil {
		return "", err
	}
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}

	sess, err := e.sessions.Insert(ctx, geohunt.GameSession{
		Username: username,
		TaskIDs:  ids,
		Index:    geohunt.IndexNotStarted,
	})
	if err != nil {
		return "", fmt.Errorf("inserting session: %w", err)
	}
	if err := e.users.SetActiveGame(ctx, username, sess.ID); err != nil {
		return "", fmt.Errorf("setting active game: %w", err)
	}

	e.logger.Info("hunt created", "session_id", sess.ID, "user", username, "tasks", ids)
	return sess.ID, nil
}

// ActiveTask returns the current task of a session and counts the
// assignment. The first call on a Created session starts it.
func (e *Engine) ActiveTask(ctx context.Context, sessionID string) (ActiveTask, error) {
	sess, err := e.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return ActiveTask{}, err
	}
	if sess.Finished() {
		return gameOver(sess.Index), nil
	}

	tasks, err := e.resolveTasks(ctx, sess)
	if err != nil {
		return ActiveTask{}, err
	}

	if sess.Index == geohunt.IndexNotStarted {
		if err := e.sessions.Start(ctx, sess.ID); err != nil {
			return ActiveTask{}, fmt.Errorf("starting session: %w", err)
		}
		// Start is a no-op when a concurrent skip got there first.
		if sess, err = e.sessions.FindByID(ctx, sess.ID); err != nil {
			return ActiveTask{}, err
		}
		if sess.Finished() {
			return gameOver(sess.Index), nil
		}
	}

	task := tasks[sess.Index]
	if err := e.tasks.IncrementCounter(ctx, task.ID, geohunt.CounterAssign); err != nil {
		return ActiveTask{}, fmt.Errorf("counting assignment: %w", err)
	}

	return ActiveTask{Index: sess.Index, Task: geohunt.NewTaskView(task)}, nil
}

// Advance moves a session past its current task. A skip always advances. A
// completion advances only when the reported location passes the geofence;
// otherwise nothing is written and the outcome reports the wrong location.
func (e *Engine) Advance(ctx context.Context, sessionID string, skip bool, c *Completion) (Outcome, error) {
	sess, err := e.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return Outcome{}, err
	}
	if sess.Finished() {
		return Outcome{Result: ResultGameOver, Index: sess.Index, Finished: true}, nil
	}

	if skip {
		idx, err := e.sessions.IncrementIndex(ctx, sess.ID, 1, geohunt.TasksPerGame)
		if errors.Is(err, geohunt.ErrGameOver) {
			return Outcome{Result: ResultGameOver, Index: geohunt.TasksPerGame, Finished: true}, nil
		}
		if err != nil {
			return Outcome{}, fmt.Errorf("skipping task: %w", err)
		}
		e.logger.Info("task skipped", "session_id", sess.ID, "index", idx)
		return Outcome{Result: ResultOK, Skipped: true, Index: idx, Finished: idx == geohunt.TasksPerGame}, nil
	}

	reported, accuracy, err := validateCompletion(sess, c)
	if err != nil {
		return Outcome{}, err
	}

	task, err := e.tasks.FindByID(ctx, c.TaskID)
	if errors.Is(err, geohunt.ErrTaskNotFound) {
		return Outcome{}, fmt.Errorf("%w: task %s", geohunt.ErrDataIntegrity, c.TaskID)
	}
	if err != nil {
		return Outcome{}, err
	}

	dist := geofence.DistanceKm(task.Location, reported)
	if !geofence.Accept(task.Location, reported, accuracy, e.maxDistanceKm) {
		e.logger.Info("incorrect location",
			"session_id", sess.ID, "task_id", task.ID, "distance_km", dist, "accuracy", accuracy)
		return Outcome{Result: ResultIncorrectLocation, Index: sess.Index, TaskID: task.ID, DistanceKm: dist}, nil
	}

	// The limit only admits the increment while the stored index still
	// points at this task, so a concurrent completion cannot also count.
	idx, err := e.sessions.IncrementIndex(ctx, sess.ID, 1, sess.Index+1)
	if errors.Is(err, geohunt.ErrGameOver) {
		return Outcome{}, fmt.Errorf("%w: task %s is no longer active", geohunt.ErrInvalidCompletionInput, task.ID)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("advancing session: %w", err)
	}

	// Not atomic with the index update: a failure here leaves the session
	// advanced without the counter or history entry.
	if err := e.tasks.IncrementCounter(ctx, task.ID, geohunt.CounterComplete); err != nil {
		return Outcome{}, fmt.Errorf("counting completion: %w", err)
	}
	if err := e.users.AppendCompletedTask(ctx, sess.Username, task.ID); err != nil {
		return Outcome{}, fmt.Errorf("recording completion: %w", err)
	}

	e.logger.Info("task completed", "session_id", sess.ID, "task_id", task.ID, "user", sess.Username, "index", idx)
	return Outcome{
		Result:     ResultOK,
		Index:      idx,
		Finished:   idx == geohunt.TasksPerGame,
		TaskID:     task.ID,
		DistanceKm: dist,
	}, nil
}

func validateCompletion(sess geohunt.GameSession, c *Completion) (geohunt.Point, float64, error) {
	if c == nil || c.TaskID == "" || c.Location == nil ||
		c.Location.Lon == nil || c.Location.Lat == nil || c.Location.Accuracy == nil {
		return geohunt.Point{}, 0, geohunt.ErrInvalidCompletionInput
	}
	if sess.Index == geohunt.IndexNotStarted {
		return geohunt.Point{}, 0, fmt.Errorf("%w: hunt has not started", geohunt.ErrInvalidCompletionInput)
	}
	if sess.Index >= len(sess.TaskIDs) || sess.TaskIDs[sess.Index] != c.TaskID {
		return geohunt.Point{}, 0, fmt.Errorf("%w: task %s is not the active task", geohunt.ErrInvalidCompletionInput, c.TaskID)
	}
	return geohunt.Point{Lon: *c.Location.Lon, Lat: *c.Location.Lat}, *c.Location.Accuracy, nil
}

// resolveTasks loads every task of the session; a missing one is a data
// integrity failure rather than a partial answer.
func (e *Engine) resolveTasks(ctx context.Context, sess geohunt.GameSession) ([]geohunt.Task, error) {
	if len(sess.TaskIDs) != geohunt.TasksPerGame {
		return nil, fmt.Errorf("%w: session %s has %d tasks", geohunt.ErrDataIntegrity, sess.ID, len(sess.TaskIDs))
	}
	tasks := make([]geohunt.Task, len(sess.TaskIDs))
	for i, id := range sess.TaskIDs {
		t, err := e.tasks.FindByID(ctx, id)
		if errors.Is(err, geohunt.ErrTaskNotFound) {
			return nil, fmt.Errorf("%w: task %s", geohunt.ErrDataIntegrity, id)
		}
		if err != nil {
			return nil, err
		}
		tasks[i] = t
	}
	return tasks, nil
}

func gameOver(index int) ActiveTask {
	return ActiveTask{Finished: true, Message: geohunt.GameOverMessage, Index: index}
}
