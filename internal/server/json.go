package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	"github.com/cohesivestack/valgo"

	"github.com/playperu/geohunt/internal/geohunt"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// validator is implemented by request bodies.
type validator interface {
	Validate(ctx context.Context) *valgo.Validation
}

// decodeRequest reads a JSON body into v and validates it. The returned
// error is safe to show to the client.
func decodeRequest(r *http.Request, v validator) error {
	if err := readJSON(r, v); err != nil {
		return errors.New("invalid request body")
	}
	if val := v.Validate(r.Context()); !val.Valid() {
		return errors.New(validationMessage(val))
	}
	return nil
}

func validationMessage(val *valgo.Validation) string {
	var verr *valgo.Error
	if !errors.As(val.Error(), &verr) {
		return "invalid request body"
	}
	fields := verr.Errors()
	names := slices.Sorted(maps.Keys(fields))
	if len(names) == 0 {
		return "invalid request body"
	}
	msgs := fields[names[0]].Messages()
	if len(msgs) == 0 {
		return fmt.Sprintf("%s is invalid", names[0])
	}
	return msgs[0]
}

// writeDomainError maps the domain error taxonomy onto HTTP statuses.
// Anything unrecognised is logged and reported as an internal error.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, geohunt.ErrMissingParameters):
		writeError(w, http.StatusBadRequest, "missing parameters")
	case errors.Is(err, geohunt.ErrInvalidCompletionInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, geohunt.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, "session not found")
	case errors.Is(err, geohunt.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, geohunt.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "task not found")
	case errors.Is(err, geohunt.ErrUsernameTaken):
		writeError(w, http.StatusConflict, "username already taken")
	case errors.Is(err, geohunt.ErrInsufficientTasks):
		writeError(w, http.StatusUnprocessableEntity, "not enough tasks nearby")
	case errors.Is(err, geohunt.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, geohunt.ErrStoreUnavailable):
		logger.Warn("store unavailable", "error", err)
		writeError(w, http.StatusServiceUnavailable, "store unavailable")
	case errors.Is(err, geohunt.ErrDataIntegrity):
		logger.Error("data integrity error", "error", err)
		writeError(w, http.StatusInternalServerError, "data integrity error")
	default:
		logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
