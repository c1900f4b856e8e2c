package geohunt

import "context"

// TaskStore persists tasks. FindByID returns ErrTaskNotFound for unknown ids.
type TaskStore interface {
	FindByID(ctx context.Context, id string) (Task, error)
	FindWithinRadius(ctx context.Context, center Point, radiusKm float64) ([]Task, error)
	Insert(ctx context.Context, t Task) (Task, error)
	// IncrementCounter adds one to the named counter in place.
	IncrementCounter(ctx context.Context, id string, c Counter) error
	Count(ctx context.Context) (int64, error)
}

// SessionStore persists game sessions. FindByID returns ErrSessionNotFound
// for unknown ids.
type SessionStore interface {
	Insert(ctx context.Context, s GameSession) (GameSession, error)
	FindByID(ctx context.Context, id string) (GameSession, error)
	// IncrementIndex adds delta to the stored index unless the result would
	// exceed limit, in which case it returns ErrGameOver. It returns the new
	// index.
	IncrementIndex(ctx context.Context, id string, delta, limit int) (int, error)
	// Start moves a session from IndexNotStarted to 0. Sessions that already
	// started are left alone.
	Start(ctx context.Context, id string) error
}

// UserStore persists players. Insert returns ErrUsernameTaken on a duplicate
// username; lookups return ErrUserNotFound.
type UserStore interface {
	FindByUsername(ctx context.Context, username string) (User, error)
	Insert(ctx context.Context, u User) (User, error)
	SetActiveGame(ctx context.Context, username, sessionID string) error
	AppendCompletedTask(ctx context.Context, username, taskID string) error
}

// LoginStore keeps authenticated browser sessions.
type LoginStore interface {
	CreateLogin(ctx context.Context, username string) (token string, err error)
	UsernameFromLogin(ctx context.Context, token string) (string, error)
	DeleteLogin(ctx context.Context, token string) error
}

// MediaStore is the read-only view of the remote media database.
type MediaStore interface {
	SummaryForUser(ctx context.Context, username string) (MediaSummary, error)
	RawRecordsForUser(ctx context.Context, username string) ([]MediaRecord, error)
}
