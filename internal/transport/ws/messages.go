package ws

import (
	"time"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

// Типы событий, которые уходят в WS
const (
	TypeState         = "state"          // снапшот комнаты при подключении
	TypePeerJoined    = "peer_joined"    // пользователь вошёл в комнату
	TypePeerLeft      = "peer_left"      // пользователь вышел
	TypeStatusChanged = "status_changed" // WAIT -> ING -> END
	TypeRoomDeleted   = "room_deleted"   // после него сервер закрывает соединения комнаты
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type StatePayload struct {
	RoomID       string    `json:"room_id"`
	Status       string    `json:"status"`
	Capacity     int       `json:"capacity"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type PeerEventPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
	TSUnix int64  `json:"ts_unix"`
}

type StatusPayload struct {
	RoomID string `json:"room_id"`
	Status string `json:"status"`
	TSUnix int64  `json:"ts_unix"`
}

type RoomDeletedPayload struct {
	RoomID string `json:"room_id"`
	TSUnix int64  `json:"ts_unix"`
}

// messageFor переводит доменное событие в сообщение для клиента. при ok=false событие не транслируется.
func messageFor(ev domain.RoomEvent) (Message, bool) {
	switch ev.Type {
	case domain.EventParticipantJoined, domain.EventParticipantLeft:
		typ := TypePeerJoined
		if ev.Type == domain.EventParticipantLeft {
			typ = TypePeerLeft
		}
		return Message{Type: typ, Payload: PeerEventPayload{
			RoomID: ev.RoomID,
			UserID: formatUserID(ev.UserID),
			TSUnix: ev.At.Unix(),
		}}, true
	case domain.EventStatusChanged:
		return Message{Type: TypeStatusChanged, Payload: StatusPayload{
			RoomID: ev.RoomID,
			Status: string(ev.Status),
			TSUnix: ev.At.Unix(),
		}}, true
	case domain.EventRoomDeleted:
		return Message{Type: TypeRoomDeleted, Payload: RoomDeletedPayload{
			RoomID: ev.RoomID,
			TSUnix: ev.At.Unix(),
		}}, true
	default:
		return Message{}, false
	}
}

func statePayload(r *domain.Room) StatePayload {
	ids := make([]string, 0, len(r.Participants))
	for _, id := range r.Participants {
		ids = append(ids, formatUserID(id))
	}
	return StatePayload{
		RoomID:       r.ID,
		Status:       string(r.Status),
		Capacity:     r.Capacity,
		Participants: ids,
		CreatedAt:    r.CreatedAt,
	}
}
