// Package cli: операторская утилита roomctl поверх того же сервисного слоя, что и сервер.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/cwrk-planet/interview-room-service/config"
	"github.com/cwrk-planet/interview-room-service/internal/app"
	"github.com/cwrk-planet/interview-room-service/internal/postgres"
	"github.com/cwrk-planet/interview-room-service/internal/service"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

type RootOptions struct {
	ConfigPath string
	Format     string

	open Opener
}

// Services нужны командам.
type Services struct {
	Rooms     *service.RoomService
	Lifecycle *service.LifecycleService
}

// Opener поднимает сервисы по пути к конфигу. close освобождает соединения.
type Opener func(ctx context.Context, configPath string) (svc *Services, closeFn func(), err error)

func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "roomctl",
		Short: "Operate interview rooms stored in Redis",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !lo.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config.yaml (default: $CONFIG_PATH or ./config/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	cmd.AddCommand(newListCommand(opts))
	cmd.AddCommand(newGetCommand(opts))
	cmd.AddCommand(newStartCommand(opts))
	cmd.AddCommand(newFinishCommand(opts))
	cmd.AddCommand(newDeleteCommand(opts))

	return cmd
}

func (o *RootOptions) services(ctx context.Context) (*Services, func(), error) {
	svc, closeFn, err := o.open(ctx, o.ConfigPath)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "open store", err)
	}
	return svc, closeFn, nil
}

// DefaultOpener читает конфиг и подключается к Redis (и к Postgres, если задан DSN).
// Логи пишутся в stderr, чтобы не мешать выводу команд.
func DefaultOpener(ctx context.Context, configPath string) (*Services, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.Load(configPath)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, nil, err
	}
	app.InitLogger(cfg.Logging, os.Stderr)

	rdb, store, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){func() { _ = rdb.Close() }}

	var archive service.Archive
	if cfg.Postgres.DSN != "" {
		pool, err := postgres.NewPool(ctx, postgres.Config{
			DSN:             cfg.Postgres.DSN,
			MaxConns:        2,
			ApplicationName: "roomctl",
		})
		if err != nil {
			_ = rdb.Close()
			return nil, nil, err
		}
		closers = append(closers, pool.Close)
		archive = postgres.NewSessionArchive(pool)
	}

	svc := &Services{
		Rooms:     service.NewRoomService(store, nil, app.Limits(cfg.Room)),
		Lifecycle: service.NewLifecycleService(store, nil, archive),
	}
	return svc, func() {
		for _, c := range lo.Reverse(closers) {
			c()
		}
	}, nil
}
