package redis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
	"github.com/cwrk-planet/interview-room-service/internal/roomkey"
)

// indexPrefix лежит вне пространства "room:*", чтобы SCAN по комнатам его не задевал.
const (
	indexPrefix = "roomid:"
	scanCount   = 200
)

type Options struct {
	TTL          time.Duration // 0: без истечения
	OpTimeout    time.Duration
	MaxAttempts  int // попытки CAS при конкурентной записи
	Retries      int // повторы при сетевых ошибках
	RetryBackoff time.Duration
}

func (o Options) withDefaults() Options {
	if o.OpTimeout <= 0 {
		o.OpTimeout = 2 * time.Second
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 32
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
	if o.RetryBackoff <= 0 {
		o.RetryBackoff = 50 * time.Millisecond
	}
	return o
}

// RoomRepository — единственный путь записи комнат. Значение лежит по составному
// ключу, индекс roomid:{id} указывает на текущий составной ключ.
type RoomRepository struct {
	rdb  goredis.UniversalClient
	opts Options
	log  *slog.Logger
}

func NewRoomRepository(rdb goredis.UniversalClient, opts Options) *RoomRepository {
	return &RoomRepository{
		rdb:  rdb,
		opts: opts.withDefaults(),
		log:  slog.Default().With("component", "redis.rooms"),
	}
}

func indexKey(id string) string { return indexPrefix + id }

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	key, err := roomkey.ForRoom(room)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}

	return r.withRetry(ctx, "create", func(ctx context.Context) error {
		_, err := r.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Set(ctx, key, data, r.opts.TTL)
			p.Set(ctx, indexKey(room.ID), key, r.opts.TTL)
			return nil
		})
		return err
	})
}

// Get читает индекс, затем запись. Между двумя чтениями конкурентный переход статуса
// может переложить запись под новый ключ: тогда индекс перечитывается. RoomNotFound
// возвращается только когда пропал сам индекс.
func (r *RoomRepository) Get(ctx context.Context, id string) (*domain.Room, error) {
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		var (
			room  *domain.Room
			moved bool
		)
		err := r.withRetry(ctx, "get", func(ctx context.Context) error {
			key, err := r.rdb.Get(ctx, indexKey(id)).Result()
			if err != nil {
				return notFound(err)
			}
			data, err := r.rdb.Get(ctx, key).Bytes()
			if errors.Is(err, goredis.Nil) {
				moved = true
				return nil
			}
			if err != nil {
				return err
			}
			room, err = decodeRoom(data)
			return err
		})
		if err != nil {
			return nil, err
		}
		if !moved {
			return room, nil
		}
		r.log.Debug("room re-keyed during read", "room", id, "attempt", attempt)
	}
	return nil, fmt.Errorf("get %s: %w", id, domain.ErrConcurrentModification)
}

// Mutate читает комнату, применяет fn и записывает результат одной транзакцией
// MULTI/EXEC под WATCH индекса и составного ключа. Если изменился статус, старый ключ
// удаляется и пишется новый вместе с индексом. fn получает копию и может вызываться
// повторно; ошибка fn отменяет запись целиком. Проигравший гонку писатель повторяет
// попытку до MaxAttempts, затем получает ErrConcurrentModification.
func (r *RoomRepository) Mutate(ctx context.Context, id string, fn func(room *domain.Room) error) (*domain.Room, error) {
	var (
		out *domain.Room
		// pending — запись, чей EXEC оборвался сетевой ошибкой: ответ потерян,
		// но транзакция могла примениться.
		pending []byte
	)
	err := r.cas(ctx, "mutate", id, func(ctx context.Context, tx *goredis.Tx) error {
		oldKey, err := tx.Get(ctx, indexKey(id)).Result()
		if err != nil {
			return notFound(err)
		}
		if err := tx.Watch(ctx, oldKey).Err(); err != nil {
			return err
		}
		data, err := tx.Get(ctx, oldKey).Bytes()
		if errors.Is(err, goredis.Nil) {
			// индекс уже указывает на другой ключ: гонка проиграна, cas повторит
			return goredis.TxFailedErr
		}
		if err != nil {
			return err
		}
		cur, err := decodeRoom(data)
		if err != nil {
			return err
		}
		if pending != nil && bytes.Equal(data, pending) {
			// предыдущий EXEC применился, повторно fn не вызываем
			pending = nil
			out = cur
			return nil
		}
		pending = nil

		next := cur.Clone()
		if err := fn(next); err != nil {
			return err
		}
		if err := checkImmutable(cur, next); err != nil {
			return err
		}

		newData, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("marshal room: %w", err)
		}
		if bytes.Equal(data, newData) {
			out = next
			return nil
		}
		newKey, err := roomkey.ForRoom(next)
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
		}

		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			if newKey != oldKey {
				p.Del(ctx, oldKey)
			}
			p.Set(ctx, newKey, newData, r.opts.TTL)
			p.Set(ctx, indexKey(id), newKey, r.opts.TTL)
			return nil
		})
		if err != nil {
			if isTransient(err) {
				pending = newData
			}
			return err
		}
		out = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *RoomRepository) Delete(ctx context.Context, id string) error {
	return r.cas(ctx, "delete", id, func(ctx context.Context, tx *goredis.Tx) error {
		key, err := tx.Get(ctx, indexKey(id)).Result()
		if err != nil {
			return notFound(err)
		}
		_, err = tx.TxPipelined(ctx, func(p goredis.Pipeliner) error {
			p.Del(ctx, key, indexKey(id))
			return nil
		})
		return err
	})
}

// Keys возвращает составные ключи по шаблону SCAN MATCH, отсортированные и без дублей.
func (r *RoomRepository) Keys(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	err := r.withRetry(ctx, "scan", func(ctx context.Context) error {
		seen := make(map[string]struct{})
		iter := r.rdb.Scan(ctx, 0, pattern, scanCount).Iterator()
		for iter.Next(ctx) {
			seen[iter.Val()] = struct{}{}
		}
		if err := iter.Err(); err != nil {
			return err
		}
		keys = lo.Keys(seen)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// GetMany пропускает ключи, исчезнувшие между SCAN и MGET.
func (r *RoomRepository) GetMany(ctx context.Context, keys []string) ([]domain.Room, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	var vals []any
	err := r.withRetry(ctx, "mget", func(ctx context.Context) error {
		var err error
		vals, err = r.rdb.MGet(ctx, keys...).Result()
		return err
	})
	if err != nil {
		return nil, err
	}

	rooms := make([]domain.Room, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		room, err := decodeRoom([]byte(s))
		if err != nil {
			r.log.Warn("skip undecodable room", "key", keys[i], "err", err)
			continue
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

func (r *RoomRepository) cas(ctx context.Context, op, id string, fn func(ctx context.Context, tx *goredis.Tx) error) error {
	for attempt := 1; attempt <= r.opts.MaxAttempts; attempt++ {
		err := r.withRetry(ctx, op, func(ctx context.Context) error {
			return r.rdb.Watch(ctx, func(tx *goredis.Tx) error {
				return fn(ctx, tx)
			}, indexKey(id))
		})
		if !errors.Is(err, goredis.TxFailedErr) {
			return err
		}
		r.log.Debug("cas conflict", "op", op, "room", id, "attempt", attempt)
		if err := sleep(ctx, jitter(attempt)); err != nil {
			return err
		}
	}
	return fmt.Errorf("%s %s: %w", op, id, domain.ErrConcurrentModification)
}

func decodeRoom(data []byte) (*domain.Room, error) {
	var room domain.Room
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room: %w", err)
	}
	if room.Participants == nil {
		room.Participants = []int64{}
	}
	return &room, nil
}

func notFound(err error) error {
	if errors.Is(err, goredis.Nil) {
		return domain.ErrRoomNotFound
	}
	return err
}

func checkImmutable(cur, next *domain.Room) error {
	if cur.ID != next.ID || cur.Type != next.Type || cur.Capacity != next.Capacity ||
		cur.Title != next.Title || cur.Description != next.Description || !cur.CreatedAt.Equal(next.CreatedAt) {
		return fmt.Errorf("%w: immutable room field changed", domain.ErrInvalidInput)
	}
	if len(next.Participants) > next.Capacity {
		return domain.ErrRoomFull
	}
	return nil
}
