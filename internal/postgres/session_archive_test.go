package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

type fakeExec struct {
	sql  string
	args []any
	err  error
}

func (f *fakeExec) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.sql, f.args = sql, args
	return pgconn.NewCommandTag("INSERT 0 1"), f.err
}

func TestSaveFinished_Args(t *testing.T) {
	db := &fakeExec{}
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	finished := created.Add(time.Hour)

	err := NewSessionArchive(db).SaveFinished(context.Background(), domain.FinishedSession{
		RoomID:     "r1",
		Title:      "mock interview",
		Type:       domain.RoomTypePresentation,
		Capacity:   4,
		CreatedAt:  created,
		FinishedAt: finished,
		Started:    true,
	})
	require.NoError(t, err)

	assert.Contains(t, db.sql, "INSERT INTO interview_sessions")
	assert.Equal(t, []any{"r1", "mock interview", "PRESENTATION", 4, []int64{}, true, created, finished}, db.args)
}

func TestSaveFinished_WrapsError(t *testing.T) {
	boom := errors.New("conn reset")
	err := NewSessionArchive(&fakeExec{err: boom}).SaveFinished(context.Background(), domain.FinishedSession{RoomID: "r1"})
	assert.ErrorIs(t, err, boom)
}
