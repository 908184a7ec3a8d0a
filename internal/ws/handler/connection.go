package handler

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/cryptomagiciian/casino-backend-sub001/internal/lib/logger/sl"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

// Message is the fan-out envelope: bet lifecycle events published by the
// API land on per-user channels ("user-7") that clients subscribe to.
type Message struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

type Subscription struct {
	Conn    *websocket.Conn
	Channel string
}

type Hub struct {
	Channels    map[string]map[*websocket.Conn]bool
	Broadcast   chan Message
	Subscribe   chan Subscription
	Unsubscribe chan *websocket.Conn
	mutex       sync.RWMutex
	log         *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		Channels:    make(map[string]map[*websocket.Conn]bool),
		Broadcast:   make(chan Message),
		Subscribe:   make(chan Subscription),
		Unsubscribe: make(chan *websocket.Conn),
		log:         log,
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func (hub *Hub) run() {
	for {
		select {
		case sub := <-hub.Subscribe:
			hub.mutex.Lock()
			if hub.Channels[sub.Channel] == nil {
				hub.Channels[sub.Channel] = make(map[*websocket.Conn]bool)
			}
			hub.Channels[sub.Channel][sub.Conn] = true
			hub.mutex.Unlock()
		case conn := <-hub.Unsubscribe:
			hub.mutex.Lock()
			for channel, conns := range hub.Channels {
				delete(conns, conn)
				if len(conns) == 0 {
					delete(hub.Channels, channel)
				}
			}
			hub.mutex.Unlock()
		case message := <-hub.Broadcast:
			data, err := json.Marshal(message)
			if err != nil {
				hub.log.Error("failed to marshal message", sl.Err(err))

				continue
			}

			hub.mutex.RLock()
			for conn := range hub.Channels[message.Channel] {
				if err = conn.WriteMessage(websocket.TextMessage, data); err != nil {
					hub.log.Error("failed to write message", sl.Err(err))
				}
			}
			hub.mutex.RUnlock()
		}
	}
}

// inbound is what connected peers send: subscribes from clients, publishes
// from the API.
type inbound struct {
	Action  string          `json:"action"`
	Channel string          `json:"channel"`
	Event   string          `json:"event,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (hub *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		hub.log.Error("failed to upgrade connection", sl.Err(err))

		return
	}
	defer func() {
		hub.Unsubscribe <- ws

		if err = ws.Close(); err != nil {
			hub.log.Error("failed to close connection", sl.Err(err))
		}
	}()

	for {
		_, p, err := ws.ReadMessage()
		if err != nil {
			return
		}

		var msg inbound
		if err = json.Unmarshal(p, &msg); err != nil {
			hub.log.Error("failed to unmarshal message", sl.Err(err))

			continue
		}

		switch msg.Action {
		case "subscribe":
			hub.Subscribe <- Subscription{Conn: ws, Channel: msg.Channel}
		case "publish":
			hub.Broadcast <- Message{Channel: msg.Channel, Event: msg.Event, Data: msg.Data}
		default:
			hub.log.Warn("unknown action", sl.String("action", msg.Action))
		}
	}
}

func (hub *Hub) RunServer() {
	go hub.run()
}
