package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

// Config - параметры повторных попыток.
//
// Задержка растет экспоненциально и размывается jitter'ом:
//
//	delay = min(InitialDelay * Multiplier^attempt, MaxDelay) ± JitterFactor
//
// Jitter нужен чтобы параллельные клиенты не повторяли запросы
// синхронно после общего сбоя.
type Config struct {
	// Максимальное число попыток, включая первую.
	// 0 или меньше - повторять до отмены контекста.
	MaxRetries int

	// Задержка перед второй попыткой
	InitialDelay time.Duration

	// Потолок задержки
	MaxDelay time.Duration

	// Множитель роста задержки
	Multiplier float64

	// Доля случайного отклонения задержки, 0.0 - 1.0
	JitterFactor float64

	// RetryIf решает, повторять ли после данной ошибки.
	// nil - повторяются все ошибки.
	RetryIf func(error) bool
}

// DefaultConfig - параметры для запросов к API цен:
// 4 попытки, задержки 100ms/200ms/400ms с jitter 10%
func DefaultConfig() Config {
	return Config{
		MaxRetries:   4,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// validate подставляет значения по умолчанию вместо некорректных
func (c *Config) validate() {
	if c.InitialDelay <= 0 {
		c.InitialDelay = 100 * time.Millisecond
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = 30 * time.Second
	}
	if c.Multiplier <= 0 {
		c.Multiplier = 2.0
	}
	if c.JitterFactor < 0 {
		c.JitterFactor = 0
	}
	if c.JitterFactor > 1 {
		c.JitterFactor = 1
	}
}

// calculateDelay возвращает задержку перед попыткой attempt+2
func (c *Config) calculateDelay(attempt int) time.Duration {
	delay := float64(c.InitialDelay) * math.Pow(c.Multiplier, float64(attempt))

	if delay > float64(c.MaxDelay) {
		delay = float64(c.MaxDelay)
	}

	if c.JitterFactor > 0 {
		delay += delay * c.JitterFactor * (rand.Float64()*2 - 1)
	}

	if delay < 0 {
		delay = 0
	}

	return time.Duration(delay)
}

// DoWithResult выполняет операцию с повторными попытками и
// возвращает ее результат.
//
// Успех возвращается сразу. Ошибка, которую RetryIf отверг,
// возвращается без ожидания. После исчерпания попыток или отмены
// контекста возвращается последняя ошибка операции.
//
//	price, err := retry.DoWithResult(ctx, func() (decimal.Decimal, error) {
//	    return client.GetPrice(ctx, token)
//	}, retry.DefaultConfig())
func DoWithResult[T any](ctx context.Context, operation func() (T, error), cfg Config) (T, error) {
	cfg.validate()

	var lastErr error
	var zero T

	for attempt := 0; cfg.MaxRetries <= 0 || attempt < cfg.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			if lastErr != nil {
				return zero, lastErr
			}
			return zero, ctx.Err()
		default:
		}

		result, err := operation()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if cfg.RetryIf != nil && !cfg.RetryIf(err) {
			return zero, err
		}

		if cfg.MaxRetries > 0 && attempt >= cfg.MaxRetries-1 {
			break
		}

		select {
		case <-time.After(cfg.calculateDelay(attempt)):
		case <-ctx.Done():
			return zero, lastErr
		}
	}

	return zero, lastErr
}

// ============================================================
// Классификация ошибок
// ============================================================

// RetryableError - ошибка, которая сама знает, повторять ли ее
type RetryableError interface {
	error
	Retryable() bool
}

// IsRetryable сообщает, имеет ли смысл повторять операцию.
//
// RetryableError в цепочке ошибки решает сам; иначе смотрим на
// Temporary() (сетевые ошибки стандартной библиотеки); все прочие
// ошибки считаются повторяемыми.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var retryable RetryableError
	if errors.As(err, &retryable) {
		return retryable.Retryable()
	}

	type temporary interface {
		Temporary() bool
	}
	var temp temporary
	if errors.As(err, &temp) {
		return temp.Temporary()
	}

	return true
}

// RetryIfNotContext не повторяет отмену и таймаут контекста
func RetryIfNotContext(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// PermanentError помечает ошибку как окончательную: дальнейшие
// попытки заведомо бессмысленны (например, некорректный токен)
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

func (e *PermanentError) Retryable() bool {
	return false
}

// Permanent оборачивает ошибку в PermanentError
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}
