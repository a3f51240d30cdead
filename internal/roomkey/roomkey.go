// Package roomkey кодирует фильтруемые атрибуты комнаты в составной ключ
// room:{type}:{capacity}:{status}:{id}. Формат ключа является контрактом хранилища, менять нельзя.
package roomkey

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

const (
	Prefix    = "room"
	Separator = ":"
	wildcard  = "*"
	segments  = 5
)

var ErrMalformedKey = errors.New("malformed room key")

type Parts struct {
	Type     domain.RoomType
	Capacity int
	Status   domain.RoomStatus
	ID       string
}

func Encode(typ domain.RoomType, capacity int, status domain.RoomStatus, id string) (string, error) {
	switch {
	case !typ.Valid():
		return "", fmt.Errorf("%w: type %q", ErrMalformedKey, typ)
	case capacity <= 0:
		return "", fmt.Errorf("%w: capacity %d", ErrMalformedKey, capacity)
	case !status.Valid():
		return "", fmt.Errorf("%w: status %q", ErrMalformedKey, status)
	case id == "" || strings.Contains(id, Separator):
		return "", fmt.Errorf("%w: id %q", ErrMalformedKey, id)
	}
	return strings.Join([]string{Prefix, string(typ), strconv.Itoa(capacity), string(status), id}, Separator), nil
}

func ForRoom(r *domain.Room) (string, error) {
	return Encode(r.Type, r.Capacity, r.Status, r.ID)
}

func Decode(key string) (Parts, error) {
	seg := strings.Split(key, Separator)
	if len(seg) != segments || seg[0] != Prefix {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	capacity, err := strconv.Atoi(seg[2])
	// "03" и "+3" не являются каноничной записью и не могли быть закодированы
	if err != nil || capacity <= 0 || strconv.Itoa(capacity) != seg[2] {
		return Parts{}, fmt.Errorf("%w: capacity in %q", ErrMalformedKey, key)
	}
	p := Parts{
		Type:     domain.RoomType(seg[1]),
		Capacity: capacity,
		Status:   domain.RoomStatus(seg[3]),
		ID:       seg[4],
	}
	if !p.Type.Valid() || !p.Status.Valid() || p.ID == "" {
		return Parts{}, fmt.Errorf("%w: %q", ErrMalformedKey, key)
	}
	return p, nil
}

// Filter — подмножество {type, capacity, status}; nil означает «любое значение».
type Filter struct {
	Type     *domain.RoomType
	Capacity *int
	Status   *domain.RoomStatus
}

// Pattern строит шаблон для SCAN MATCH. Пропущенные хвостовые сегменты сворачиваются
// в один "*", т.е. получается чистый префикс; пропущенный средний сегмент заменяется
// "*" только на своём месте. Значения сегментов не содержат ":", поэтому каждый "*"
// между разделителями совпадает ровно с одним сегментом.
func (f Filter) Pattern() string {
	seg := []string{wildcard, wildcard, wildcard}
	if f.Type != nil {
		seg[0] = string(*f.Type)
	}
	if f.Capacity != nil {
		seg[1] = strconv.Itoa(*f.Capacity)
	}
	if f.Status != nil {
		seg[2] = string(*f.Status)
	}

	last := -1
	for i, s := range seg {
		if s != wildcard {
			last = i
		}
	}
	if last < 0 {
		return Prefix + Separator + wildcard
	}
	return Prefix + Separator + strings.Join(seg[:last+1], Separator) + Separator + wildcard
}

func (f Filter) Match(p Parts) bool {
	if f.Type != nil && *f.Type != p.Type {
		return false
	}
	if f.Capacity != nil && *f.Capacity != p.Capacity {
		return false
	}
	if f.Status != nil && *f.Status != p.Status {
		return false
	}
	return true
}
