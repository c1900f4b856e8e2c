package server

import (
	"context"
	"net/http"

	"github.com/playperu/geohunt/internal/geohunt"
)

type ctxKey int

const ctxKeyUser ctxKey = iota

const loginCookieName = "geohunt_session"

// loadUser resolves the login cookie, when present, to a username. Requests
// without a valid login pass through anonymously.
func loadUser(logins geohunt.LoginStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(loginCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}
			username, err := logins.UsernameFromLogin(r.Context(), cookie.Value)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := context.WithValue(r.Context(), ctxKeyUser, username)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userFrom(r) == "" {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the logged-in username, or "" for anonymous requests.
func userFrom(r *http.Request) string {
	u, _ := r.Context().Value(ctxKeyUser).(string)
	return u
}
