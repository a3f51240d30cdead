package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/samber/lo"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
	"github.com/cwrk-planet/interview-room-service/internal/service"
	httpmw "github.com/cwrk-planet/interview-room-service/internal/transport/http/middleware"
)

type RoomSvc interface {
	CreateRoom(ctx context.Context, in service.CreateRoomInput) (*domain.Room, error)
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListRooms(ctx context.Context, in service.ListRoomsInput) ([]domain.Room, error)
	DeleteRoom(ctx context.Context, id string) error
}

type MemberSvc interface {
	JoinRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
	LeaveRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error)
}

type LifecycleSvc interface {
	StartInterview(ctx context.Context, roomID string) (*domain.Room, error)
	FinishInterview(ctx context.Context, roomID string) (*domain.Room, error)
}

type Handler struct {
	roomSvc      RoomSvc
	memberSvc    MemberSvc
	lifecycleSvc LifecycleSvc
}

func NewHandler(room RoomSvc, member MemberSvc, lifecycle LifecycleSvc) *Handler {
	return &Handler{
		roomSvc:      room,
		memberSvc:    member,
		lifecycleSvc: lifecycle,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "handler."+op, slog.Any("err", err))
	}
	writeJSON(w, status, ErrorResponse{Error: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrRoomClosed),
		errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	typ, err := domain.ParseRoomType(req.Type)
	if err != nil {
		writeError(w, r, "CreateRoom", err)
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), service.CreateRoomInput{
		Title:       req.Title,
		Description: req.Description,
		Type:        typ,
		Capacity:    req.Capacity,
	})
	if err != nil {
		writeError(w, r, "CreateRoom", err)
		return
	}

	writeJSON(w, http.StatusCreated, CreateRoomResponse{RoomID: room.ID})
}

// GET /rooms?type=&capacity=&status=&page=&size=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	in, err := parseListQuery(r)
	if err != nil {
		writeError(w, r, "ListRooms", err)
		return
	}

	rooms, err := h.roomSvc.ListRooms(r.Context(), in)
	if err != nil {
		writeError(w, r, "ListRooms", err)
		return
	}

	writeJSON(w, http.StatusOK, RoomsListResponse{Rooms: lo.Map(rooms, func(rm domain.Room, _ int) RoomItem {
		return toRoomItem(rm)
	})})
}

func parseListQuery(r *http.Request) (service.ListRoomsInput, error) {
	q := r.URL.Query()
	var in service.ListRoomsInput

	if s := q.Get("type"); s != "" {
		typ, err := domain.ParseRoomType(s)
		if err != nil {
			return in, err
		}
		in.Type = &typ
	}
	if s := q.Get("status"); s != "" {
		st, err := domain.ParseRoomStatus(s)
		if err != nil {
			return in, err
		}
		in.Status = &st
	}
	if s := q.Get("capacity"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return in, fmt.Errorf("%w: capacity must be an integer", domain.ErrInvalidInput)
		}
		in.Capacity = &n
	}
	for name, dst := range map[string]*int{"page": &in.Page, "size": &in.Size} {
		if s := q.Get(name); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return in, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, name)
			}
			*dst = n
		}
	}
	return in, nil
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "GetRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDetail(room))
}

// DELETE /rooms/{id}
func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	if err := h.roomSvc.DeleteRoom(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, "DeleteRoom", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /rooms/{id}/enter
func (h *Handler) EnterRoom(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}
	room, err := h.memberSvc.JoinRoom(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, "EnterRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDetail(room))
}

// POST /rooms/{id}/exit
func (h *Handler) ExitRoom(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == 0 {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}
	room, err := h.memberSvc.LeaveRoom(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeError(w, r, "ExitRoom", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDetail(room))
}

// POST /rooms/{id}/start
func (h *Handler) StartInterview(w http.ResponseWriter, r *http.Request) {
	room, err := h.lifecycleSvc.StartInterview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "StartInterview", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDetail(room))
}

// POST /rooms/{id}/finish
func (h *Handler) FinishInterview(w http.ResponseWriter, r *http.Request) {
	room, err := h.lifecycleSvc.FinishInterview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "FinishInterview", err)
		return
	}
	writeJSON(w, http.StatusOK, toRoomDetail(room))
}
