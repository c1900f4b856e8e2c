package server

import (
	"context"

	"github.com/cohesivestack/valgo"

	"github.com/playperu/geohunt/internal/game"
)

// CredentialsRequest is the body of POST /api/register and POST /api/login.
type CredentialsRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func (c *CredentialsRequest) Validate(_ context.Context) *valgo.Validation {
	return valgo.
		Is(valgo.StringP(c.Username, "username", "username").Not().Nil().Not().Blank().MaxLength(64)).
		Is(valgo.StringP(c.Password, "password", "password").Not().Nil().Not().Blank())
}

// RegisterRequest additionally bounds the password length accepted by bcrypt.
type RegisterRequest struct {
	CredentialsRequest
}

func (r *RegisterRequest) Validate(ctx context.Context) *valgo.Validation {
	return r.CredentialsRequest.Validate(ctx).
		Is(valgo.StringP(r.Password, "password", "password").MinLength(6).MaxLength(72))
}

type PointRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

func (p *PointRequest) validate(v *valgo.Validation) *valgo.Validation {
	return v.
		Is(valgo.Float64P(p.Lon, "lon", "lon").Not().Nil().Between(-180, 180)).
		Is(valgo.Float64P(p.Lat, "lat", "lat").Not().Nil().Between(-90, 90))
}

// CreateTaskRequest is the body of POST /api/tasks. Counters are not
// accepted; every task starts at zero.
type CreateTaskRequest struct {
	TaskName   *string      `json:"taskName"`
	RiddleText *string      `json:"riddleText"`
	Hints      []string     `json:"hints"`
	Location   PointRequest `json:"location"`
}

func (c *CreateTaskRequest) Validate(_ context.Context) *valgo.Validation {
	v := valgo.
		Is(valgo.StringP(c.TaskName, "taskName", "taskName").Not().Nil().Not().Blank().MaxLength(200)).
		Is(valgo.StringP(c.RiddleText, "riddleText", "riddleText").Not().Nil().Not().Blank())
	return c.Location.validate(v)
}

// CreateHuntRequest is the body of POST /api/hunts. Missing coordinates send
// the player back to the login page rather than failing validation.
type CreateHuntRequest struct {
	Lon *float64 `json:"lon"`
	Lat *float64 `json:"lat"`
}

type CreateHuntResponse struct {
	SessionID string `json:"sessionId"`
}

// OutcomeRequest is the body of POST /api/hunts/{sessionID}/outcome.
type OutcomeRequest struct {
	IsSkipping *bool          `json:"isSkipping"`
	TaskID     string         `json:"taskId,omitempty"`
	Location   *game.Location `json:"location,omitempty"`
}

func (o *OutcomeRequest) Validate(_ context.Context) *valgo.Validation {
	return valgo.Is(valgo.BoolP(o.IsSkipping, "isSkipping", "isSkipping").Not().Nil())
}

func (o *OutcomeRequest) completion() *game.Completion {
	if o.TaskID == "" && o.Location == nil {
		return nil
	}
	return &game.Completion{TaskID: o.TaskID, Location: o.Location}
}
