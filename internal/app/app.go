// Package app собирает общие зависимости из конфига для сервера и roomctl.
package app

import (
	"context"
	"io"
	"log/slog"

	goredis "github.com/redis/go-redis/v9"

	"github.com/cwrk-planet/interview-room-service/config"
	"github.com/cwrk-planet/interview-room-service/internal/redis"
	"github.com/cwrk-planet/interview-room-service/internal/service"
	"github.com/cwrk-planet/interview-room-service/pkg/logger"
)

// InitLogger: при out == nil пишет в stdout.
func InitLogger(cfg config.Logging, out io.Writer) *slog.Logger {
	return logger.Init(logger.Config{
		Output:    out,
		Env:       logger.ParseEnv(cfg.Env),
		Service:   cfg.Service,
		Version:   cfg.Version,
		Backend:   logger.Backend(cfg.Backend),
		AddSource: cfg.AddSource,
		Debug:     cfg.Debug,
	})
}

func RepoOptions(cfg config.Room) redis.Options {
	return redis.Options{
		TTL:          cfg.TTL,
		OpTimeout:    cfg.OpTimeout,
		MaxAttempts:  cfg.MaxCASAttempts,
		Retries:      cfg.StoreRetries,
		RetryBackoff: cfg.RetryBackoff,
	}
}

func Limits(cfg config.Room) service.Limits {
	return service.Limits{
		MaxCapacity:     cfg.MaxCapacity,
		DefaultPageSize: cfg.DefaultPageSize,
		MaxPageSize:     cfg.MaxPageSize,
	}
}

// OpenStore подключается к Redis и возвращает репозиторий комнат поверх клиента.
// Клиент закрывает вызывающий.
func OpenStore(ctx context.Context, cfg *config.Config) (*goredis.Client, *redis.RoomRepository, error) {
	rdb, err := redis.NewClient(ctx, redis.Config{
		Addr:         cfg.Redis.Addr,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		DialTimeout:  cfg.Redis.DialTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		return nil, nil, err
	}
	return rdb, redis.NewRoomRepository(rdb, RepoOptions(cfg.Room)), nil
}
