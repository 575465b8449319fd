package ratelimit

import (
	"context"
	"sync"
	"time"
)

// RateLimiter - token bucket для ограничения частоты запросов к API цен.
//
// Ведро пополняется с постоянной скоростью rate токенов в секунду до
// емкости burst; каждый запрос списывает один токен. Burst позволяет
// короткие всплески при параллельном опросе токенов, средняя частота
// при этом не превышает rate.
type RateLimiter struct {
	rate       float64 // токенов в секунду
	burst      float64 // емкость ведра
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter создает limiter со скоростью rate запросов в секунду
// и емкостью burst. Некорректные значения заменяются дефолтами:
// 10 req/sec и burst = 2x rate.
func NewRateLimiter(rate, burst float64) *RateLimiter {
	if rate <= 0 {
		rate = 10
	}
	if burst <= 0 {
		burst = rate * 2
	}
	if burst < rate {
		burst = rate
	}

	return &RateLimiter{
		rate:       rate,
		burst:      burst,
		tokens:     burst, // полное ведро на старте
		lastRefill: time.Now(),
	}
}

// refill начисляет токены за прошедшее время. Вызывается под mu.
func (rl *RateLimiter) refill() {
	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()

	rl.tokens += elapsed * rl.rate
	if rl.tokens > rl.burst {
		rl.tokens = rl.burst
	}

	rl.lastRefill = now
}

// Wait блокирует до получения токена или отмены контекста
func (rl *RateLimiter) Wait(ctx context.Context) error {
	for {
		rl.mu.Lock()
		rl.refill()

		if rl.tokens >= 1 {
			rl.tokens--
			rl.mu.Unlock()
			return nil
		}

		waitTime := time.Duration((1 - rl.tokens) / rl.rate * float64(time.Second))
		rl.mu.Unlock()

		select {
		case <-time.After(waitTime):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Allow списывает токен без блокировки.
// false означает что запрос нужно отложить.
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.refill()

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}

	return false
}

// Tokens возвращает текущий остаток токенов
func (rl *RateLimiter) Tokens() float64 {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	rl.refill()
	return rl.tokens
}
