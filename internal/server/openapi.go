package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/geohunt/internal/geohunt"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse maps each checked dependency to "ok" or "error".
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type huntPath struct {
	SessionID string `path:"sessionID"`
}

type outcomeRequestDoc struct {
	huntPath
	OutcomeRequest
}

type statsPath struct {
	Username string `path:"username"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "GeoHunt API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for location-based scavenger hunts.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of backend dependencies.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/register
	postRegister, _ := r.NewOperationContext(http.MethodPost, "/api/register")
	postRegister.SetSummary("Register")
	postRegister.SetDescription("Creates a player account. Usernames are unique.")
	postRegister.AddReqStructure(RegisterRequest{})
	postRegister.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postRegister.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postRegister)

	// POST /api/login
	postLogin, _ := r.NewOperationContext(http.MethodPost, "/api/login")
	postLogin.SetSummary("Login")
	postLogin.SetDescription("Authenticate with username and password. Sets the geohunt_session cookie.")
	postLogin.AddReqStructure(CredentialsRequest{})
	postLogin.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postLogin.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postLogin)

	// POST /api/logout
	postLogout, _ := r.NewOperationContext(http.MethodPost, "/api/logout")
	postLogout.SetSummary("Logout")
	postLogout.SetDescription("Clears the login session and cookie.")
	postLogout.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postLogout)

	// GET /api/me
	getMe, _ := r.NewOperationContext(http.MethodGet, "/api/me")
	getMe.SetSummary("Current player")
	getMe.AddRespStructure(MeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getMe.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(getMe)

	// POST /api/tasks
	postTask, _ := r.NewOperationContext(http.MethodPost, "/api/tasks")
	postTask.SetSummary("Create task")
	postTask.SetDescription("Adds a task at a location. Counters always start at zero. Requires login.")
	postTask.AddReqStructure(CreateTaskRequest{})
	postTask.AddRespStructure(geohunt.Task{}, openapi.WithHTTPStatus(http.StatusCreated))
	postTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	_ = r.AddOperation(postTask)

	// POST /api/hunts
	postHunt, _ := r.NewOperationContext(http.MethodPost, "/api/hunts")
	postHunt.SetSummary("Start a hunt")
	postHunt.SetDescription("Assigns four random tasks within range of the player. Redirects to /login when the player or coordinates are missing.")
	postHunt.AddReqStructure(CreateHuntRequest{})
	postHunt.AddRespStructure(CreateHuntResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postHunt.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSeeOther))
	postHunt.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnprocessableEntity))
	_ = r.AddOperation(postHunt)

	// GET /api/hunts/{sessionID}/task
	getTask, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/{sessionID}/task")
	getTask.SetSummary("Active task")
	getTask.SetDescription(`Returns the current task, or {"msg": "Game Over!"} once the hunt is finished.`)
	getTask.AddReqStructure(huntPath{})
	getTask.AddRespStructure(ActiveTaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getTask.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getTask)

	// POST /api/hunts/{sessionID}/outcome
	postOutcome, _ := r.NewOperationContext(http.MethodPost, "/api/hunts/{sessionID}/outcome")
	postOutcome.SetSummary("Report task outcome")
	postOutcome.SetDescription("Skips the current task or claims it with a device location.")
	postOutcome.AddReqStructure(outcomeRequestDoc{})
	postOutcome.AddRespStructure(OutcomeResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postOutcome.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postOutcome.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postOutcome)

	// GET /api/hunts/{sessionID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/hunts/{sessionID}/events")
	getEvents.SetSummary("Hunt event stream")
	getEvents.SetDescription("Upgrades to a WebSocket that pushes task_completed, task_skipped, wrong_location and game_over events.")
	getEvents.AddReqStructure(huntPath{})
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getEvents)

	// GET /api/users/{username}/stats
	getStats, _ := r.NewOperationContext(http.MethodGet, "/api/users/{username}/stats")
	getStats.SetSummary("Player statistics")
	getStats.SetDescription("Combines hunt progress with upload statistics from the media database.")
	getStats.AddReqStructure(statsPath{})
	getStats.AddRespStructure(geohunt.StatsReport{}, openapi.WithHTTPStatus(http.StatusOK))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	getStats.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getStats)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
