package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/geohunt/internal/geohunt"
)

func handleCreateTask(logger *slog.Logger, tasks geohunt.TaskStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTaskRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hints := req.Hints
		if hints == nil {
			hints = []string{}
		}
		t, err := tasks.Insert(r.Context(), geohunt.Task{
			Name:       *req.TaskName,
			RiddleText: *req.RiddleText,
			Hints:      hints,
			Location:   geohunt.Point{Lon: *req.Location.Lon, Lat: *req.Location.Lat},
			CreatedBy:  userFrom(r),
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		logger.Info("task created", "task_id", t.ID, "user", t.CreatedBy)
		writeJSON(w, http.StatusCreated, t)
	}
}
