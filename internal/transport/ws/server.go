package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
}

// Server отдаёт события комнаты только на чтение: вход и выход идут через HTTP/gRPC.
type Server struct {
	upgrader websocket.Upgrader
	hub      *Hub
	roomSvc  RoomSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, rooms RoomSvc, pingEvery time.Duration) *Server {
	if pingEvery <= 0 {
		pingEvery = 15 * time.Second
	}
	return &Server{
		hub:     hub,
		roomSvc: rooms,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: pingEvery,
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...&user_id=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if strings.TrimSpace(q.Get("access_token")) == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return
	}
	uid, err := strconv.ParseInt(strings.TrimSpace(q.Get("user_id")), 10, 64)
	if err != nil || uid <= 0 {
		http.Error(w, "invalid user_id", http.StatusUnauthorized)
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	// комнату проверяем до апгрейда, чтобы отдать нормальный HTTP-статус
	room, err := s.roomSvc.GetRoom(r.Context(), roomID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrRoomNotFound):
			http.Error(w, "room not found", http.StatusNotFound)
		case errors.Is(err, domain.ErrInvalidInput):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			slog.ErrorContext(r.Context(), "ws get room failed", "room", roomID, "err", err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		}
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade сам пишет ответ клиенту
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, roomID, uid)
	s.hub.Add(c)
	slog.DebugContext(r.Context(), "ws subscribed", "room", roomID, "user", uid)

	if err := c.Send(Message{Type: TypeState, Payload: statePayload(room)}); err != nil {
		slog.Warn("ws send initial state failed", "room", roomID, "user", uid, "err", err)
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.writeLoop(ctx, c)
	}()
	s.readLoop(c)

	s.hub.Remove(c)
	_ = c.Close()
	<-done
}

// readLoop только держит соединение: входящие сообщения не обрабатываются.
func (s *Server) readLoop(c *wsConn) {
	c.conn.SetReadLimit(1 << 12)
	_ = c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeLoop — единственный писатель в соединение: сообщения из очереди и ping.
// Закрывает соединение при выходе, предварительно дописав очередь.
func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()
	defer func() {
		if err := c.conn.Close(); err != nil {
			slog.Debug("ws close failed", "room", c.roomID, "user", c.userID, "err", err)
		}
	}()

	for {
		select {
		case msg := <-c.out:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				_ = c.Close()
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = c.Close()
				return
			}
		case <-ctx.Done():
			_ = c.Close()
			return
		case <-c.closed:
			c.flush()
			return
		}
	}
}

const (
	writeWait     = 5 * time.Second
	sendQueueSize = 64
)

var (
	errSlowConsumer = errors.New("ws: send queue is full")
	errConnClosed   = errors.New("ws: connection closed")
)

type wsConn struct {
	conn   *websocket.Conn
	roomID string
	userID int64

	out       chan Message
	closed    chan struct{}
	closeOnce sync.Once
}

func newWsConn(c *websocket.Conn, roomID string, userID int64) *wsConn {
	return &wsConn{
		conn:   c,
		roomID: roomID,
		userID: userID,
		out:    make(chan Message, sendQueueSize),
		closed: make(chan struct{}),
	}
}

// Send только ставит сообщение в очередь и не блокируется. Переполненная очередь
// означает, что клиент не читает: соединение закрывается.
func (c *wsConn) Send(msg Message) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	select {
	case c.out <- msg:
		return nil
	default:
		_ = c.Close()
		return errSlowConsumer
	}
}

// flush дописывает уже поставленные сообщения (например room_deleted) с общим дедлайном.
func (c *wsConn) flush() {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	for {
		select {
		case msg := <-c.out:
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		default:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			return
		}
	}
}

// Close помечает соединение закрытым; сокет закрывает writeLoop.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return nil
}

func (c *wsConn) UserID() string { return strconv.FormatInt(c.userID, 10) }
func (c *wsConn) RoomID() string { return c.roomID }
