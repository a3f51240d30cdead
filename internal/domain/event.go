package domain

import "time"

type EventType string

const (
	EventParticipantJoined EventType = "participant_joined"
	EventParticipantLeft   EventType = "participant_left"
	EventStatusChanged     EventType = "status_changed"
	EventRoomDeleted       EventType = "room_deleted"
)

// RoomEvent публикуется после успешной записи в хранилище.
type RoomEvent struct {
	Type   EventType  `json:"type"`
	RoomID string     `json:"room_id"`
	UserID int64      `json:"user_id,omitempty"`
	Status RoomStatus `json:"status,omitempty"`
	At     time.Time  `json:"at"`
}

// FinishedSession — сводка завершённой комнаты для внешнего хранилища результатов.
type FinishedSession struct {
	RoomID       string
	Title        string
	Type         RoomType
	Capacity     int
	Participants []int64
	CreatedAt    time.Time
	FinishedAt   time.Time
	Started      bool
}
