package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/dmitrijs2005/mediakeeper/internal/eventbus"
	"github.com/gorilla/websocket"
)

const (
	writeWait   = 10 * time.Second
	pongWait    = 60 * time.Second
	pingPeriod  = (pongWait * 9) / 10
	sendBacklog = 64
)

// Message is one bus event as sent over /events.
type Message struct {
	Type      eventbus.Kind  `json:"type"`
	Data      eventbus.Event `json:"data,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func newMessage(e eventbus.Event) Message {
	m := Message{Type: e.Kind(), Data: e, Timestamp: time.Now().Unix()}
	if failed, ok := e.(eventbus.SyncFailed); ok && failed.Err != nil {
		m.Error = failed.Err.Error()
	}
	return m
}

// handleEvents streams every bus event to the client until either side
// closes. A client that falls behind by more than sendBacklog events is
// disconnected.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	ctx := r.Context()

	send := make(chan Message, sendBacklog)
	overflow := make(chan struct{})
	var once sync.Once

	var unsubs []func()
	for _, kind := range eventbus.Kinds {
		unsubs = append(unsubs, s.engine.Subscribe(kind, func(e eventbus.Event) error {
			select {
			case send <- newMessage(e):
			default:
				once.Do(func() { close(overflow) })
			}
			return nil
		}))
	}
	defer func() {
		for _, u := range unsubs {
			u()
		}
	}()

	closed := make(chan struct{})
	go s.readPump(conn, closed)

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case m := <-send:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteJSON(m); err != nil {
				s.logger.Debug(ctx, "websocket write failed", "error", err)
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-overflow:
			s.logger.Warn(ctx, "event stream client too slow, disconnecting")
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"),
				time.Now().Add(writeWait))
			return
		case <-closed:
			return
		case <-ctx.Done():
			return
		}
	}
}

// readPump discards client frames and reports when the connection closes.
func (s *Server) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
