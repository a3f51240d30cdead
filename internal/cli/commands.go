package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
	"github.com/cwrk-planet/interview-room-service/internal/service"
)

type listOptions struct {
	roomType string
	status   string
	capacity int
	page     int
	size     int
}

func newListCommand(root *RootOptions) *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List rooms filtered by type, capacity and status",
		Example: `  roomctl list --status WAIT
  roomctl list --type INTERVIEW --capacity 2 --page 2 --size 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, err := opts.input()
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid flags", err)
			}
			return withServices(cmd, root, func(ctx context.Context, svc *Services) error {
				rooms, err := svc.Rooms.ListRooms(ctx, in)
				if err != nil {
					return err
				}
				return writeRooms(cmd.OutOrStdout(), root.Format, rooms)
			})
		},
	}

	cmd.Flags().StringVar(&opts.roomType, "type", "", "room type (INTERVIEW|PERSONALITY|PRESENTATION)")
	cmd.Flags().StringVar(&opts.status, "status", "", "room status (WAIT|ING|END)")
	cmd.Flags().IntVar(&opts.capacity, "capacity", 0, "exact capacity (0 = any)")
	cmd.Flags().IntVar(&opts.page, "page", 1, "page number, starting at 1")
	cmd.Flags().IntVar(&opts.size, "size", 0, "page size (0 = server default)")

	return cmd
}

func (o listOptions) input() (service.ListRoomsInput, error) {
	in := service.ListRoomsInput{Page: o.page, Size: o.size}
	if o.roomType != "" {
		t, err := domain.ParseRoomType(o.roomType)
		if err != nil {
			return in, err
		}
		in.Type = &t
	}
	if o.status != "" {
		s, err := domain.ParseRoomStatus(o.status)
		if err != nil {
			return in, err
		}
		in.Status = &s
	}
	if o.capacity != 0 {
		c := o.capacity
		in.Capacity = &c
	}
	return in, nil
}

func newGetCommand(root *RootOptions) *cobra.Command {
	return roomCommand(root, "get", "Show a room", func(ctx context.Context, svc *Services, id string) (*domain.Room, error) {
		return svc.Rooms.GetRoom(ctx, id)
	})
}

func newStartCommand(root *RootOptions) *cobra.Command {
	return roomCommand(root, "start", "Move a room from WAIT to ING", func(ctx context.Context, svc *Services, id string) (*domain.Room, error) {
		return svc.Lifecycle.StartInterview(ctx, id)
	})
}

func newFinishCommand(root *RootOptions) *cobra.Command {
	return roomCommand(root, "finish", "Move a room to END", func(ctx context.Context, svc *Services, id string) (*domain.Room, error) {
		return svc.Lifecycle.FinishInterview(ctx, id)
	})
}

func newDeleteCommand(root *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ROOM_ID",
		Short: "Delete a room and its index entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, root, func(ctx context.Context, svc *Services) error {
				if err := svc.Rooms.DeleteRoom(ctx, args[0]); err != nil {
					return err
				}
				if root.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]string{"deleted": args[0]})
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return err
			})
		},
	}
}

func roomCommand(root *RootOptions, name, short string, op func(context.Context, *Services, string) (*domain.Room, error)) *cobra.Command {
	return &cobra.Command{
		Use:   name + " ROOM_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withServices(cmd, root, func(ctx context.Context, svc *Services) error {
				room, err := op(ctx, svc, args[0])
				if err != nil {
					return err
				}
				return writeRoom(cmd.OutOrStdout(), root.Format, room)
			})
		},
	}
}

func withServices(cmd *cobra.Command, root *RootOptions, fn func(context.Context, *Services) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	svc, closeFn, err := root.services(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	return fn(ctx, svc)
}
