package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// SessionArchive сохраняет сводку завершённых комнат. Сами комнаты живут только в Redis.
type SessionArchive struct {
	db execer
}

func NewSessionArchive(db execer) *SessionArchive {
	return &SessionArchive{db: db}
}

const insertFinishedSession = `
	INSERT INTO interview_sessions
		(room_id, title, room_type, capacity, participants, started, created_at, finished_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (room_id) DO NOTHING`

func (a *SessionArchive) SaveFinished(ctx context.Context, s domain.FinishedSession) error {
	participants := s.Participants
	if participants == nil {
		participants = []int64{}
	}
	_, err := a.db.Exec(ctx, insertFinishedSession,
		s.RoomID, s.Title, string(s.Type), s.Capacity, participants, s.Started, s.CreatedAt, s.FinishedAt)
	if err != nil {
		return fmt.Errorf("insert interview_session %s: %w", s.RoomID, err)
	}
	return nil
}
