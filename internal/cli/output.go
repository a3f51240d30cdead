package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/lo"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

// Exit codes for roomctl.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // операция отклонена (нет комнаты, неверный переход)
	ExitCommandError = 2 // не удалось прочитать конфиг или подключиться
)

type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error { return e.Err }

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

type roomView struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Type         string    `json:"type"`
	Status       string    `json:"status"`
	Capacity     int       `json:"capacity"`
	Participants []int64   `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

func viewOf(r domain.Room) roomView {
	return roomView{
		ID:           r.ID,
		Title:        r.Title,
		Type:         string(r.Type),
		Status:       string(r.Status),
		Capacity:     r.Capacity,
		Participants: r.Participants,
		CreatedAt:    r.CreatedAt,
	}
}

func writeRooms(w io.Writer, format string, rooms []domain.Room) error {
	views := lo.Map(rooms, func(r domain.Room, _ int) roomView { return viewOf(r) })
	if format == "json" {
		return writeJSON(w, views)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tSEATS\tTITLE")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d/%d\t%s\n", v.ID, v.Type, v.Status, len(v.Participants), v.Capacity, v.Title)
	}
	return tw.Flush()
}

func writeRoom(w io.Writer, format string, r *domain.Room) error {
	v := viewOf(*r)
	if format == "json" {
		return writeJSON(w, v)
	}

	ids := lo.Map(v.Participants, func(id int64, _ int) string { return strconv.FormatInt(id, 10) })
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id:\t%s\n", v.ID)
	fmt.Fprintf(tw, "title:\t%s\n", v.Title)
	fmt.Fprintf(tw, "type:\t%s\n", v.Type)
	fmt.Fprintf(tw, "status:\t%s\n", v.Status)
	fmt.Fprintf(tw, "seats:\t%d/%d\n", len(v.Participants), v.Capacity)
	fmt.Fprintf(tw, "participants:\t%s\n", strings.Join(ids, ","))
	fmt.Fprintf(tw, "created_at:\t%s\n", v.CreatedAt.Format(time.RFC3339))
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
