package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

// LifecycleService ведёт комнату по WAIT -> ING -> END. Оба перехода идут через
// Mutate: статус входит в ключ, поэтому запись переиндексируется.
type LifecycleService struct {
	store    RoomStore
	notifier Notifier
	archive  Archive // nil: архив не подключён

	now func() time.Time
}

func NewLifecycleService(store RoomStore, notifier Notifier, archive Archive) *LifecycleService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &LifecycleService{store: store, notifier: notifier, archive: archive, now: time.Now}
}

func (s *LifecycleService) StartInterview(ctx context.Context, roomID string) (*domain.Room, error) {
	if err := validateID(roomID); err != nil {
		return nil, err
	}
	room, err := s.store.Mutate(ctx, roomID, func(r *domain.Room) error {
		return r.Start()
	})
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, room)
	return room, nil
}

// FinishInterview допускает и WAIT -> END: интервью, брошенное до старта.
func (s *LifecycleService) FinishInterview(ctx context.Context, roomID string) (*domain.Room, error) {
	if err := validateID(roomID); err != nil {
		return nil, err
	}
	var prev domain.RoomStatus
	room, err := s.store.Mutate(ctx, roomID, func(r *domain.Room) error {
		prev = r.Status
		return r.Finish()
	})
	if err != nil {
		return nil, err
	}
	s.statusChanged(ctx, room)

	if s.archive != nil {
		finished := domain.FinishedSession{
			RoomID:       room.ID,
			Title:        room.Title,
			Type:         room.Type,
			Capacity:     room.Capacity,
			Participants: room.Participants,
			CreatedAt:    room.CreatedAt,
			FinishedAt:   s.now().UTC(),
			Started:      prev == domain.StatusIng,
		}
		// переход уже зафиксирован; ошибка архива его не откатывает
		if err := s.archive.SaveFinished(ctx, finished); err != nil {
			slog.ErrorContext(ctx, "archive finished room", "room", room.ID, "err", err)
		}
	}
	return room, nil
}

func (s *LifecycleService) statusChanged(ctx context.Context, room *domain.Room) {
	slog.InfoContext(ctx, "room status changed", "room", room.ID, "status", room.Status)
	s.notifier.Publish(domain.RoomEvent{
		Type:   domain.EventStatusChanged,
		RoomID: room.ID,
		Status: room.Status,
		At:     s.now().UTC(),
	})
}
