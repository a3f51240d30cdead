package service

import (
	"context"
	"time"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type MemberService struct {
	store    RoomStore
	notifier Notifier

	now func() time.Time
}

func NewMemberService(store RoomStore, notifier Notifier) *MemberService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &MemberService{store: store, notifier: notifier, now: time.Now}
}

// JoinRoom: проверка вместимости и добавление выполняются внутри одной мутации,
// поэтому параллельные входы не пробьют лимит. Повторный вход ничего не меняет.
func (s *MemberService) JoinRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error) {
	if err := validateID(roomID); err != nil {
		return nil, err
	}
	var added bool
	room, err := s.store.Mutate(ctx, roomID, func(r *domain.Room) error {
		added = !r.HasParticipant(userID)
		return r.AddParticipant(userID)
	})
	if err != nil {
		return nil, err
	}
	if added {
		s.notifier.Publish(domain.RoomEvent{
			Type:   domain.EventParticipantJoined,
			RoomID: roomID,
			UserID: userID,
			At:     s.now().UTC(),
		})
	}
	return room, nil
}

// LeaveRoom: выход отсутствующего участника не ошибка.
func (s *MemberService) LeaveRoom(ctx context.Context, roomID string, userID int64) (*domain.Room, error) {
	if err := validateID(roomID); err != nil {
		return nil, err
	}
	var removed bool
	room, err := s.store.Mutate(ctx, roomID, func(r *domain.Room) error {
		removed = r.RemoveParticipant(userID)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if removed {
		s.notifier.Publish(domain.RoomEvent{
			Type:   domain.EventParticipantLeft,
			RoomID: roomID,
			UserID: userID,
			At:     s.now().UTC(),
		})
	}
	return room, nil
}
