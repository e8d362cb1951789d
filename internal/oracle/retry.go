package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

// DefaultMaxRetries bounds the attempts to DefaultMaxRetries+1 in total.
const DefaultMaxRetries = 5

// Backoff is a bounded exponential retry policy. There is no jitter and no
// circuit breaker; the worst case wait at the default settings is 62s.
type Backoff struct {
	MaxRetries int
	// Delay returns the wait before attempt k, for k >= 1.
	Delay func(attempt int) time.Duration
	// Sleep waits for d or until ctx is done. Nil means a real timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultBackoff waits 2s, 4s, 8s, 16s, 32s between six attempts.
func DefaultBackoff() Backoff {
	return Backoff{
		MaxRetries: DefaultMaxRetries,
		Delay:      ExponentialDelay,
	}
}

// ExponentialDelay is 2^attempt seconds.
func ExponentialDelay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	return time.Duration(1<<attempt) * time.Second
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do runs fn until it succeeds or the attempts are used up. When retries
// are exhausted the last attempt's error is returned unchanged. A done
// context stops the loop between attempts.
func (b Backoff) Do(ctx context.Context, logger *slog.Logger, op string, fn func(ctx context.Context) error) error {
	delay := b.Delay
	if delay == nil {
		delay = ExponentialDelay
	}
	sleep := b.Sleep
	if sleep == nil {
		sleep = sleepContext
	}
	if logger == nil {
		logger = slog.Default()
	}

	var lastErr error
	for attempt := 0; attempt <= b.MaxRetries; attempt++ {
		if attempt > 0 {
			wait := delay(attempt)
			logger.Debug("retrying oracle call", "op", op, "attempt", attempt, "wait", wait)
			if err := sleep(ctx, wait); err != nil {
				return errors.Join(lastErr, err)
			}
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				logger.Info("oracle call recovered", "op", op, "attempts", attempt+1)
			}
			return nil
		}
		lastErr = err

		if ctxErr := ctx.Err(); ctxErr != nil {
			return errors.Join(lastErr, ctxErr)
		}
		logger.Warn("oracle call failed",
			"op", op,
			"attempt", attempt+1,
			"max_attempts", b.MaxRetries+1,
			"error", err,
		)
	}
	return lastErr
}

// Retrying decorates an Oracle so that every call goes through a Backoff.
type Retrying struct {
	next    Oracle
	backoff Backoff
	logger  *slog.Logger
}

var _ Oracle = (*Retrying)(nil)

func WithRetry(next Oracle, backoff Backoff, logger *slog.Logger) *Retrying {
	return &Retrying{next: next, backoff: backoff, logger: logger}
}

// Classify decodes every attempt into a fresh value. out is only written
// once an attempt succeeds, so fields from a rejected answer never leak
// into the result.
func (r *Retrying) Classify(ctx context.Context, prompt string, schema Schema, out any) error {
	target := reflect.ValueOf(out)
	if target.Kind() != reflect.Pointer || target.IsNil() {
		return fmt.Errorf("classify %s: out must be a non-nil pointer, got %T", schema.Name, out)
	}

	var result reflect.Value
	err := r.backoff.Do(ctx, r.logger, "classify:"+schema.Name, func(ctx context.Context) error {
		fresh := reflect.New(target.Type().Elem())
		if err := r.next.Classify(ctx, prompt, schema, fresh.Interface()); err != nil {
			return err
		}
		result = fresh
		return nil
	})
	if err != nil {
		return err
	}

	target.Elem().Set(result.Elem())
	return nil
}

func (r *Retrying) Generate(ctx context.Context, prompt string) (string, error) {
	var text string
	err := r.backoff.Do(ctx, r.logger, "generate", func(ctx context.Context) error {
		var err error
		text, err = r.next.Generate(ctx, prompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return text, nil
}
