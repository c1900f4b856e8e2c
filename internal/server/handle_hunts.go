package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/geohunt/internal/game"
	"github.com/playperu/geohunt/internal/geohunt"
)

// ActiveTaskResponse carries either the current task or, with msg
// "Game Over!", nothing else.
type ActiveTaskResponse struct {
	Msg  string            `json:"msg"`
	Task *geohunt.TaskView `json:"task,omitempty"`
}

type OutcomeResponse struct {
	Msg      string  `json:"msg"`
	Index    int     `json:"index"`
	Finished bool    `json:"finished"`
	Distance float64 `json:"distance,omitempty"`
}

func handleCreateHunt(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// An unreadable body is treated as missing coordinates.
		var req CreateHuntRequest
		if err := readJSON(r, &req); err != nil {
			req = CreateHuntRequest{}
		}
		username := userFrom(r)
		if username == "" || req.Lon == nil || req.Lat == nil {
			logger.Info("hunt request incomplete, redirecting to login", "user", username)
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}

		id, err := engine.CreateHunt(r.Context(), username, req.Lon, req.Lat)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateHuntResponse{SessionID: id})
	}
}

func handleActiveTask(logger *slog.Logger, engine *game.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		at, err := engine.ActiveTask(r.Context(), chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if at.Finished {
			writeJSON(w, http.StatusOK, ActiveTaskResponse{Msg: at.Message})
			return
		}
		writeJSON(w, http.StatusOK, ActiveTaskResponse{Msg: "ok", Task: &at.Task})
	}
}

func handleOutcome(logger *slog.Logger, engine *game.Engine, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req OutcomeRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		sessionID := chi.URLParam(r, "sessionID")

		out, err := engine.Advance(r.Context(), sessionID, *req.IsSkipping, req.completion())
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		publishOutcome(broker, sessionID, out)

		resp := OutcomeResponse{Msg: string(out.Result), Index: out.Index, Finished: out.Finished}
		switch out.Result {
		case game.ResultGameOver:
			resp.Msg = geohunt.GameOverMessage
		case game.ResultIncorrectLocation:
			resp.Distance = out.DistanceKm
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func publishOutcome(broker *Broker, sessionID string, out game.Outcome) {
	ev := HuntEvent{Index: out.Index, TaskID: out.TaskID}
	switch {
	case out.Result == game.ResultIncorrectLocation:
		ev.Type = EventWrongLocation
		ev.DistanceKm = out.DistanceKm
	case out.Result == game.ResultOK && out.Skipped:
		ev.Type = EventTaskSkipped
	case out.Result == game.ResultOK:
		ev.Type = EventTaskCompleted
	default:
		return
	}
	broker.Publish(sessionID, ev)
	if out.Finished {
		broker.Publish(sessionID, HuntEvent{Type: EventGameOver, Index: out.Index})
	}
}
