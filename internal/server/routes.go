package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("GeoHunt API", "/openapi.json", "/docs"))
	if d.Health != nil {
		r.Mount("/healthz", d.Health)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(loadUser(d.Logins))

		r.Post("/register", handleRegister(logger, d.Users))
		r.Post("/login", handleLogin(logger, d.Users, d.Logins))
		r.Post("/logout", handleLogout(d.Logins))
		r.Get("/me", handleMe(logger, d.Users))

		// Redirects to the login page instead of answering 401.
		r.Post("/hunts", handleCreateHunt(logger, d.Engine))

		r.Group(func(r chi.Router) {
			r.Use(requireUser)

			r.Post("/tasks", handleCreateTask(logger, d.Tasks))
			r.Get("/hunts/{sessionID}/task", handleActiveTask(logger, d.Engine))
			r.Post("/hunts/{sessionID}/outcome", handleOutcome(logger, d.Engine, d.Broker))
			r.Get("/hunts/{sessionID}/events", handleEvents(logger, d.Sessions, d.Broker))
			r.Get("/users/{username}/stats", handleStats(logger, d.Stats))
		})
	})

	if d.WebDir != "" {
		if info, err := os.Stat(d.WebDir); err == nil && info.IsDir() {
			logger.Info("serving web client", "dir", d.WebDir)
			r.NotFound(handleSPA(d.WebDir))
		}
	}
}
