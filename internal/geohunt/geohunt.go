// Package geohunt defines the core domain types and store contracts of the
// scavenger hunt. It has no external dependencies.
package geohunt

import "time"

// TasksPerGame is the number of tasks assigned to every hunt.
const TasksPerGame = 4

// IndexNotStarted is the session index of a hunt whose first task has not
// been handed out yet.
const IndexNotStarted = -1

// GameOverMessage is shown to players once every task of a hunt is resolved.
const GameOverMessage = "Game Over!"

// Point is a geographic position in degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type Task struct {
	ID            string    `json:"id"`
	Name          string    `json:"taskName"`
	RiddleText    string    `json:"riddleText"`
	Hints         []string  `json:"hints"`
	Location      Point     `json:"location"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	AssignCount   int64     `json:"assignCount"`
	CompleteCount int64     `json:"completeCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Counter names a monotonically increasing task counter.
type Counter string

const (
	CounterAssign   Counter = "assignCount"
	CounterComplete Counter = "completeCount"
)

// GameSession is one player's run through an ordered list of tasks. TaskIDs
// is fixed at creation; Index only grows.
type GameSession struct {
	ID        string    `json:"id"`
	Username  string    `json:"user"`
	TaskIDs   []string  `json:"tasks"`
	Index     int       `json:"index"`
	CreatedAt time.Time `json:"createdAt"`
}

// Finished reports whether every task of the session has been resolved.
func (s GameSession) Finished() bool {
	return s.Index >= TasksPerGame
}

type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	PasswordHash   string    `json:"passwordHash"`
	TasksCompleted []string  `json:"tasksCompleted"`
	ActiveGame     string    `json:"activeGame,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TaskView is the player-facing projection of the active task. Hints past
// the second are withheld.
type TaskView struct {
	ID         string `json:"id"`
	TaskName   string `json:"taskName"`
	RiddleText string `json:"riddleText"`
	Hint1      string `json:"hint1"`
	Hint2      string `json:"hint2"`
}

// NewTaskView projects t for a player.
func NewTaskView(t Task) TaskView {
	v := TaskView{ID: t.ID, TaskName: t.Name, RiddleText: t.RiddleText}
	if len(t.Hints) > 0 {
		v.Hint1 = t.Hints[0]
	}
	if len(t.Hints) > 1 {
		v.Hint2 = t.Hints[1]
	}
	return v
}

// MediaRecord is an uploaded video as stored by the media database. Its
// coordinates are kept as two parallel comma-joined lists.
type MediaRecord struct {
	ID         int64  `json:"id"`
	Uploader   string `json:"uploader"`
	Latitudes  string `json:"latitudes"`
	Longitudes string `json:"longitudes"`
}

// MediaSummary is the latest per-user activity row of the media database.
type MediaSummary struct {
	UploadedVideos   int       `json:"Uploaded Videos"`
	DeviceInfo       string    `json:"DeviceInfo"`
	LastActivityDate time.Time `json:"LastActivityDate"`
}

type GeoHuntStats struct {
	UserName       string `json:"userName"`
	TasksCompleted int    `json:"tasksCompleted"`
}

type TaskTotals struct {
	Count int64 `json:"count"`
}

// VideoMatch correlates an uploaded video with a completed task.
type VideoMatch struct {
	TaskID     string  `json:"taskId"`
	TaskName   string  `json:"taskName"`
	MediaID    int64   `json:"mediaId"`
	Location   Point   `json:"location"`
	DistanceKm float64 `json:"distance"`
}

// StatsReport is built fresh for every request and never stored.
type StatsReport struct {
	GeoHunt         GeoHuntStats `json:"geoHunt"`
	MediaQ          MediaSummary `json:"mediaQ"`
	Tasks           TaskTotals   `json:"tasks"`
	ValidatedVideos []VideoMatch `json:"validatedVideos"`
}
