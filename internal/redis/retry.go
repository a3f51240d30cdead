package redis

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"time"

	"github.com/cwrk-planet/interview-room-service/internal/domain"
)

// withRetry выполняет op с таймаутом на каждую попытку. Сетевые ошибки и таймауты
// повторяются Retries раз с экспоненциальной паузой, затем превращаются в
// ErrStoreUnavailable. Отмена контекста вызывающим не повторяется.
func (r *RoomRepository) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	delay := r.opts.RetryBackoff
	for attempt := 0; ; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, r.opts.OpTimeout)
		err := fn(opCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if !isTransient(err) {
			return err
		}
		if attempt >= r.opts.Retries {
			return fmt.Errorf("redis %s: %w: %v", op, domain.ErrStoreUnavailable, err)
		}

		r.log.Warn("redis transient error, retrying", "op", op, "attempt", attempt+1, "delay", delay, "err", err)
		if err := sleep(ctx, delay); err != nil {
			return err
		}
		delay *= 2
	}
}

func isTransient(err error) bool {
	var netErr net.Error
	switch {
	case errors.As(err, &netErr):
		return true
	case errors.Is(err, context.DeadlineExceeded):
		return true
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return true
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func jitter(attempt int) time.Duration {
	return time.Duration(rand.Int64N(int64(attempt)*int64(time.Millisecond) + 1))
}
