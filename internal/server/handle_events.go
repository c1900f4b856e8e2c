package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/playperu/geohunt/internal/geohunt"
)

const (
	eventsPingInterval = 30 * time.Second
	eventsWriteTimeout = 5 * time.Second
)

// handleEvents streams the hunt's events over a websocket until the client
// goes away. Messages from the client are ignored.
func handleEvents(logger *slog.Logger, sessions geohunt.SessionStore, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := chi.URLParam(r, "sessionID")
		if _, err := sessions.FindByID(r.Context(), sessionID); err != nil {
			writeDomainError(w, logger, err)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		sub := broker.Subscribe(sessionID)
		defer sub.Close()

		ctx := conn.CloseRead(r.Context())
		ping := time.NewTicker(eventsPingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("event stream closed", "session_id", sessionID)
				return
			case data := <-sub.Events:
				if err := writeEvent(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, eventsWriteTimeout)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					return
				}
			}
		}
	}
}

func writeEvent(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, eventsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
