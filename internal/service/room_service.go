package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
	"github.com/cwrk-planet/interview-room-service/internal/roomkey"
)

type Limits struct {
	MaxCapacity     int
	DefaultPageSize int
	MaxPageSize     int
}

func (l Limits) withDefaults() Limits {
	if l.MaxCapacity <= 0 {
		l.MaxCapacity = 10
	}
	if l.DefaultPageSize <= 0 {
		l.DefaultPageSize = 10
	}
	if l.MaxPageSize <= 0 {
		l.MaxPageSize = 50
	}
	return l
}

type CreateRoomInput struct {
	Title       string          `validate:"required,max=100"`
	Description string          `validate:"max=1000"`
	Type        domain.RoomType `validate:"required,oneof=INTERVIEW PERSONALITY PRESENTATION"`
	Capacity    int             `validate:"required,min=1"`
}

// ListRoomsInput: nil-фильтр означает «любое значение»; Page начинается с 1.
type ListRoomsInput struct {
	Type     *domain.RoomType
	Capacity *int   `validate:"omitempty,min=1"`
	Status   *domain.RoomStatus
	Page     int `validate:"gte=0"`
	Size     int `validate:"gte=0"`
}

type RoomService struct {
	store    RoomStore
	notifier Notifier
	limits   Limits

	now   func() time.Time
	newID func() string
}

func NewRoomService(store RoomStore, notifier Notifier, limits Limits) *RoomService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &RoomService{
		store:    store,
		notifier: notifier,
		limits:   limits.withDefaults(),
		now:      time.Now,
		newID:    uuid.NewString,
	}
}

// CreateRoom создаёт комнату в статусе WAIT без участников.
func (s *RoomService) CreateRoom(ctx context.Context, in CreateRoomInput) (*domain.Room, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Capacity > s.limits.MaxCapacity {
		return nil, fmt.Errorf("%w: capacity must be in [1..%d]", domain.ErrInvalidInput, s.limits.MaxCapacity)
	}

	room := domain.NewRoom(s.newID(), in.Title, in.Description, in.Type, in.Capacity, s.now().UTC())
	if err := s.store.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("store.Create: %w", err)
	}
	slog.InfoContext(ctx, "room created", "room", room.ID, "type", room.Type, "capacity", room.Capacity)
	return room, nil
}

// GetRoom возвращает комнату по ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	return s.store.Get(ctx, id)
}

// ListRooms сканирует пространство ключей по фильтрам и отдаёт страницу.
// Порядок лексикографический по составному ключу; список не транзакционный:
// комната, изменившая статус между сканом и чтением, на странице пропускается.
func (s *RoomService) ListRooms(ctx context.Context, in ListRoomsInput) ([]domain.Room, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Type != nil && !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown room type %q", domain.ErrInvalidInput, *in.Type)
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown room status %q", domain.ErrInvalidInput, *in.Status)
	}
	page, size := in.Page, in.Size
	if page == 0 {
		page = 1
	}
	if size == 0 {
		size = s.limits.DefaultPageSize
	}
	if size > s.limits.MaxPageSize {
		size = s.limits.MaxPageSize
	}

	filter := roomkey.Filter{Type: in.Type, Capacity: in.Capacity, Status: in.Status}
	keys, err := s.store.Keys(ctx, filter.Pattern())
	if err != nil {
		return nil, fmt.Errorf("store.Keys: %w", err)
	}
	keys = lo.Filter(keys, func(key string, _ int) bool {
		p, err := roomkey.Decode(key)
		return err == nil && filter.Match(p)
	})

	// сравнение до умножения: (page-1)*size переполняется на больших page
	pages := (len(keys) + size - 1) / size
	if page > pages {
		return []domain.Room{}, nil
	}
	start := (page - 1) * size
	end := min(start+size, len(keys))

	rooms, err := s.store.GetMany(ctx, keys[start:end])
	if err != nil {
		return nil, fmt.Errorf("store.GetMany: %w", err)
	}
	if rooms == nil {
		rooms = []domain.Room{}
	}
	return rooms, nil
}

// DeleteRoom — после END и сохранения результатов, либо вручную оператором.
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.notifier.Publish(domain.RoomEvent{Type: domain.EventRoomDeleted, RoomID: id, At: s.now().UTC()})
	return nil
}
