package server

import (
	"encoding/json"
	"log/slog"
	"slices"
	"sync"
)

const (
	EventTaskCompleted = "task_completed"
	EventTaskSkipped   = "task_skipped"
	EventWrongLocation = "wrong_location"
	EventGameOver      = "game_over"
)

// eventBuffer is how many undelivered events a watcher may fall behind by.
const eventBuffer = 16

// HuntEvent is the payload pushed to everyone watching a hunt.
type HuntEvent struct {
	Type       string  `json:"type"`
	Index      int     `json:"index"`
	TaskID     string  `json:"taskId,omitempty"`
	DistanceKm float64 `json:"distance,omitempty"`
}

// Subscription delivers the JSON-encoded events of one hunt until Close.
type Subscription struct {
	Events <-chan []byte

	events    chan []byte
	sessionID string
	broker    *Broker
	once      sync.Once
}

// Close detaches the subscription. It is safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.broker.detach(s) })
}

// Broker fans hunt events out to the watchers of each session.
type Broker struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string][]*Subscription
}

func NewBroker(logger *slog.Logger) *Broker {
	return &Broker{logger: logger, sessions: make(map[string][]*Subscription)}
}

func (b *Broker) Subscribe(sessionID string) *Subscription {
	ch := make(chan []byte, eventBuffer)
	sub := &Subscription{Events: ch, events: ch, sessionID: sessionID, broker: b}

	b.mu.Lock()
	b.sessions[sessionID] = append(b.sessions[sessionID], sub)
	b.mu.Unlock()
	return sub
}

func (b *Broker) detach(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	rest := slices.DeleteFunc(b.sessions[sub.sessionID], func(s *Subscription) bool { return s == sub })
	if len(rest) == 0 {
		delete(b.sessions, sub.sessionID)
		return
	}
	b.sessions[sub.sessionID] = rest
}

// Publish returns how many watchers received ev. It never blocks: a watcher
// whose buffer is full misses the event.
func (b *Broker) Publish(sessionID string, ev HuntEvent) int {
	data, err := json.Marshal(ev)
	if err != nil {
		b.logger.Error("encoding hunt event", "error", err)
		return 0
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	delivered := 0
	for _, sub := range b.sessions[sessionID] {
		select {
		case sub.events <- data:
			delivered++
		default:
			b.logger.Warn("hunt event dropped", "session_id", sessionID, "type", ev.Type)
		}
	}
	return delivered
}

func (b *Broker) watchers(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions[sessionID])
}
