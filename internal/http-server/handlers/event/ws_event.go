package event

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

// WSEvent publishes through the in-house websocket hub instead of Pusher,
// for local runs without external credentials.
type WSEvent struct {
	log  *slog.Logger
	conn *websocket.Conn
	mu   sync.Mutex
}

type wsEnvelope struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

func NewWSEvent(log *slog.Logger, conn *websocket.Conn) *WSEvent {
	return &WSEvent{log: log, conn: conn}
}

func (p *WSEvent) Publish(channel, event string, data any) error {
	const op = "handlers.event.WSEvent.Publish"

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	msg, err := json.Marshal(wsEnvelope{
		Action:  "publish",
		Channel: channel,
		Event:   event,
		Data:    raw,
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	// gorilla connections allow one concurrent writer.
	p.mu.Lock()
	defer p.mu.Unlock()

	if err = p.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		p.log.Error("failed to publish over websocket", sl.Err(err))

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
