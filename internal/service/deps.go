package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

// RoomStore — хранилище комнат. Mutate — единственный путь изменения записи.
type RoomStore interface {
	Create(ctx context.Context, room *domain.Room) error
	Get(ctx context.Context, id string) (*domain.Room, error)
	Mutate(ctx context.Context, id string, fn func(room *domain.Room) error) (*domain.Room, error)
	Delete(ctx context.Context, id string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
	GetMany(ctx context.Context, keys []string) ([]domain.Room, error)
}

// Notifier получает события после того, как запись в хранилище завершилась.
type Notifier interface {
	Publish(ev domain.RoomEvent)
}

// Archive сохраняет итог завершённого интервью во внешнее хранилище.
type Archive interface {
	SaveFinished(ctx context.Context, s domain.FinishedSession) error
}

type nopNotifier struct{}

func (nopNotifier) Publish(domain.RoomEvent) {}

var validate = validator.New(validator.WithRequiredStructEnabled())

func validateInput(v any) error {
	if err := validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed on %q", domain.ErrInvalidInput, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: room id is required", domain.ErrInvalidInput)
	}
	return nil
}
