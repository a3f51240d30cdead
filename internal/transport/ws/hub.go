package ws

import (
	"strconv"
	"sync"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type Conn interface {
	Send(msg Message) error
	Close() error
	UserID() string
	RoomID() string
}

// Hub держит подписчиков по комнатам и реализует service.Notifier.
type Hub struct {
	mu    sync.RWMutex
	rooms map[string]map[Conn]struct{} // roomID -> set of connections
}

func NewHub() *Hub {
	return &Hub{rooms: make(map[string]map[Conn]struct{})}
}

func (h *Hub) Add(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rs, ok := h.rooms[c.RoomID()]
	if !ok {
		rs = make(map[Conn]struct{})
		h.rooms[c.RoomID()] = rs
	}
	rs[c] = struct{}{}
}

func (h *Hub) Remove(c Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rs, ok := h.rooms[c.RoomID()]; ok {
		delete(rs, c)
		if len(rs) == 0 {
			delete(h.rooms, c.RoomID())
		}
	}
}

// Subscribers возвращает число соединений, подписанных на комнату.
func (h *Hub) Subscribers(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

func (h *Hub) Broadcast(roomID string, msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if rs, ok := h.rooms[roomID]; ok {
		for c := range rs {
			_ = c.Send(msg) // best-effort
		}
	}
}

// Publish рассылает событие подписчикам комнаты. Удаление комнаты
// дополнительно отключает всех её подписчиков.
func (h *Hub) Publish(ev domain.RoomEvent) {
	msg, ok := messageFor(ev)
	if !ok {
		return
	}
	h.Broadcast(ev.RoomID, msg)

	if ev.Type != domain.EventRoomDeleted {
		return
	}
	h.mu.Lock()
	rs := h.rooms[ev.RoomID]
	delete(h.rooms, ev.RoomID)
	h.mu.Unlock()
	for c := range rs {
		_ = c.Close()
	}
}

// CloseAll вызывается при остановке сервера.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	rooms := h.rooms
	h.rooms = make(map[string]map[Conn]struct{})
	h.mu.Unlock()

	for _, rs := range rooms {
		for c := range rs {
			_ = c.Close()
		}
	}
}

func formatUserID(id int64) string { return strconv.FormatInt(id, 10) }
