package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/playperu/geohunt/internal/geohunt"
)

// MeResponse describes the logged-in player.
type MeResponse struct {
	Username       string `json:"username"`
	TasksCompleted int    `json:"tasksCompleted"`
	ActiveGame     string `json:"activeGame,omitempty"`
}

func handleRegister(logger *slog.Logger, users geohunt.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		u, err := users.Insert(r.Context(), geohunt.User{
			Username:     strings.TrimSpace(*req.Username),
			PasswordHash: string(hash),
		})
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		logger.Info("user registered", "user", u.Username)
		writeJSON(w, http.StatusCreated, MeResponse{Username: u.Username})
	}
}

func handleLogin(logger *slog.Logger, users geohunt.UserStore, logins geohunt.LoginStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := decodeRequest(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		u, err := users.FindByUsername(r.Context(), strings.TrimSpace(*req.Username))
		if errors.Is(err, geohunt.ErrUserNotFound) {
			writeDomainError(w, logger, geohunt.ErrInvalidCredentials)
			return
		}
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(*req.Password)); err != nil {
			writeDomainError(w, logger, geohunt.ErrInvalidCredentials)
			return
		}

		token, err := logins.CreateLogin(r.Context(), u.Username)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     loginCookieName,
			Value:    token,
			Path:     "/",
			MaxAge:   int(7 * 24 * time.Hour / time.Second),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func handleLogout(logins geohunt.LoginStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(loginCookieName)
		if err == nil && cookie.Value != "" {
			logins.DeleteLogin(r.Context(), cookie.Value)
		}

		http.SetCookie(w, &http.Cookie{
			Name:     loginCookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleMe(logger *slog.Logger, users geohunt.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		username := userFrom(r)
		if username == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		u, err := users.FindByUsername(r.Context(), username)
		if err != nil {
			writeDomainError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, meResponse(u))
	}
}

func meResponse(u geohunt.User) MeResponse {
	return MeResponse{
		Username:       u.Username,
		TasksCompleted: len(u.TasksCompleted),
		ActiveGame:     u.ActiveGame,
	}
}
