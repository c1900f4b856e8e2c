package geohunt

import "errors"

var (
	ErrMissingParameters      = errors.New("missing parameters")
	ErrSessionNotFound        = errors.New("session not found")
	ErrUserNotFound           = errors.New("user not found")
	ErrTaskNotFound           = errors.New("task not found")
	ErrInsufficientTasks      = errors.New("not enough tasks near location")
	ErrDataIntegrity          = errors.New("session references a missing task")
	ErrStoreUnavailable       = errors.New("store unavailable")
	ErrInvalidCompletionInput = errors.New("invalid completion input")

	ErrUsernameTaken      = errors.New("username already taken")
	ErrGameOver           = errors.New("game is over")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoLoginSession     = errors.New("no valid login session")
)
