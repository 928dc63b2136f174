// Package ws streams pointer events for one ear's chart over a websocket.
// Each client message is one pointer event; each reply is the chart state
// after it, in the order the events arrived.
package ws

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/audiogram/internal/api/handlers"
	"github.com/RMahshie/audiogram/internal/audiogram"
	"github.com/RMahshie/audiogram/internal/repository"
	"github.com/RMahshie/audiogram/internal/session"
	"github.com/RMahshie/audiogram/pkg/models"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	maxMessageSize = 4096

	sendBufferSize = 64
)

// Message types
const (
	TypePointer = "pointer"
	TypeState   = "state"
	TypeError   = "error"
)

// Message is the websocket envelope in both directions.
type Message struct {
	Type  string                `json:"type"`
	Event *models.PointerEvent  `json:"event,omitempty"`
	State *models.PointerResult `json:"state,omitempty"`
	Error string                `json:"error,omitempty"`
}

// ChartHandler upgrades chart event streams.
type ChartHandler struct {
	repo     repository.SessionRepository
	upgrader websocket.Upgrader
}

// NewChartHandler accepts upgrades from allowedOrigins; "*" allows any.
// Requests without an Origin header are always accepted.
func NewChartHandler(repo repository.SessionRepository, allowedOrigins []string) *ChartHandler {
	return &ChartHandler{
		repo: repo,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// ServeHTTP expects chi URL params "id" and "ear".
func (h *ChartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID, err := handlers.ParseSessionID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid session ID", http.StatusBadRequest)
		return
	}
	ear, err := audiogram.ParseEar(chi.URLParam(r, "ear"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, err := h.repo.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to load session", http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("sessionID", sessionID.String()).Msg("Websocket upgrade failed")
		return
	}
	log.Info().Str("sessionID", sessionID.String()).Str("ear", string(ear)).Msg("Chart stream connected")

	c := &client{
		conn:  conn,
		send:  make(chan Message, sendBufferSize),
		done:  make(chan struct{}),
		sess:  s,
		ear:   ear,
		touch: func() { _ = h.repo.Touch(r.Context(), sessionID) },
	}
	go c.writePump()
	c.readPump()
}

type client struct {
	conn  *websocket.Conn
	send  chan Message
	done  chan struct{} // closed when writePump exits
	sess  *session.Session
	ear   audiogram.Ear
	touch func()
}

// readPump applies events in arrival order. When the stream ends any drag
// it left open is ended, the same as the pointer leaving the chart.
func (c *client) readPump() {
	defer func() {
		if _, err := c.sess.Pointer(c.ear, session.PointerEvent{Type: session.EventLeave}); err != nil {
			log.Warn().Err(err).Msg("Failed to end drag on disconnect")
		}
		close(c.send)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("ear", string(c.ear)).Msg("Chart stream read error")
			}
			return
		}
		select {
		case c.send <- c.handle(data):
		case <-c.done:
			return
		}
	}
}

func (c *client) handle(data []byte) Message {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{Type: TypeError, Error: "Failed to parse message"}
	}
	if msg.Type != TypePointer || msg.Event == nil {
		return Message{Type: TypeError, Error: "Expected a pointer message"}
	}
	res, err := c.sess.Pointer(c.ear, handlers.PointerEvent(*msg.Event))
	if err != nil {
		return Message{Type: TypeError, Error: err.Error()}
	}
	c.touch()
	body := handlers.PointerBody(res)
	return Message{Type: TypeState, State: &body}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
		close(c.done)
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
