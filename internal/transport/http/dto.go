package http

import (
	"time"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type CreateRoomRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Type        string `json:"type"`
	Capacity    int    `json:"capacity"`
}

type CreateRoomResponse struct {
	RoomID string `json:"room_id"`
}

type RoomDetail struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Capacity     int       `json:"capacity"`
	Participants []int64   `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

type RoomItem struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	Type             string    `json:"type"`
	Status           string    `json:"status"`
	Capacity         int       `json:"capacity"`
	ParticipantCount int       `json:"participant_count"`
	CreatedAt        time.Time `json:"created_at"`
}

type RoomsListResponse struct {
	Rooms []RoomItem `json:"rooms"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

func toRoomDetail(r *domain.Room) RoomDetail {
	return RoomDetail{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Type:         string(r.Type),
		Status:       string(r.Status),
		Capacity:     r.Capacity,
		Participants: r.Participants,
		CreatedAt:    r.CreatedAt,
	}
}

func toRoomItem(r domain.Room) RoomItem {
	return RoomItem{
		ID:               r.ID,
		Title:            r.Title,
		Type:             string(r.Type),
		Status:           string(r.Status),
		Capacity:         r.Capacity,
		ParticipantCount: len(r.Participants),
		CreatedAt:        r.CreatedAt,
	}
}
