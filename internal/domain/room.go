package domain

import (
	"fmt"
	"slices"
	"time"
)

type RoomType string

const (
	RoomTypeInterview    RoomType = "INTERVIEW"
	RoomTypePersonality  RoomType = "PERSONALITY"
	RoomTypePresentation RoomType = "PRESENTATION"
)

var roomTypes = []RoomType{RoomTypeInterview, RoomTypePersonality, RoomTypePresentation}

func ParseRoomType(s string) (RoomType, error) {
	t := RoomType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown room type %q", ErrInvalidInput, s)
	}
	return t, nil
}

func (t RoomType) Valid() bool { return slices.Contains(roomTypes, t) }

// RoomStatus — стадия интервью. Меняется только вперёд: WAIT -> ING -> END.
type RoomStatus string

const (
	StatusWait RoomStatus = "WAIT"
	StatusIng  RoomStatus = "ING"
	StatusEnd  RoomStatus = "END"
)

func ParseRoomStatus(s string) (RoomStatus, error) {
	st := RoomStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: unknown room status %q", ErrInvalidInput, s)
	}
	return st, nil
}

func (s RoomStatus) Valid() bool {
	switch s {
	case StatusWait, StatusIng, StatusEnd:
		return true
	}
	return false
}

// Room хранится целиком в значении ключа room:{type}:{capacity}:{status}:{id}.
type Room struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description"`
	Type         RoomType   `json:"type"`
	Status       RoomStatus `json:"status"`
	Capacity     int        `json:"capacity"`
	Participants []int64    `json:"participants"`
	CreatedAt    time.Time  `json:"created_at"`
}

func NewRoom(id, title, description string, typ RoomType, capacity int, now time.Time) *Room {
	return &Room{
		ID:           id,
		Title:        title,
		Description:  description,
		Type:         typ,
		Status:       StatusWait,
		Capacity:     capacity,
		Participants: []int64{},
		CreatedAt:    now,
	}
}

func (r *Room) HasParticipant(userID int64) bool {
	return slices.Contains(r.Participants, userID)
}

// AddParticipant is a no-op for a user who is already inside, even after the room closed.
func (r *Room) AddParticipant(userID int64) error {
	if r.HasParticipant(userID) {
		return nil
	}
	if r.Status != StatusWait {
		return ErrRoomClosed
	}
	if len(r.Participants) >= r.Capacity {
		return ErrRoomFull
	}
	r.Participants = append(r.Participants, userID)
	return nil
}

func (r *Room) RemoveParticipant(userID int64) bool {
	i := slices.Index(r.Participants, userID)
	if i < 0 {
		return false
	}
	r.Participants = slices.Delete(r.Participants, i, i+1)
	return true
}

func (r *Room) Start() error {
	if r.Status != StatusWait {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusIng
	return nil
}

// Finish допускает WAIT -> END: интервью отменено до начала.
func (r *Room) Finish() error {
	if r.Status == StatusEnd {
		return fmt.Errorf("%w: finish from %s", ErrInvalidTransition, r.Status)
	}
	r.Status = StatusEnd
	return nil
}

func (r *Room) Clone() *Room {
	cp := *r
	cp.Participants = slices.Clone(r.Participants)
	if cp.Participants == nil {
		cp.Participants = []int64{}
	}
	return &cp
}
