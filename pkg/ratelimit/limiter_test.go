package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestNewRateLimiterDefaults(t *testing.T) {
	tests := []struct {
		name      string
		rate      float64
		burst     float64
		wantRate  float64
		wantBurst float64
	}{
		{name: "explicit values", rate: 5, burst: 10, wantRate: 5, wantBurst: 10},
		{name: "zero rate", rate: 0, burst: 0, wantRate: 10, wantBurst: 20},
		{name: "burst below rate raised to rate", rate: 10, burst: 3, wantRate: 10, wantBurst: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rl := NewRateLimiter(tt.rate, tt.burst)
			if rl.rate != tt.wantRate {
				t.Errorf("rate = %v, want %v", rl.rate, tt.wantRate)
			}
			if rl.burst != tt.wantBurst {
				t.Errorf("burst = %v, want %v", rl.burst, tt.wantBurst)
			}
		})
	}
}

func TestRateLimiterStartsFull(t *testing.T) {
	// При медленном пополнении burst запросов проходят сразу,
	// следующий - нет
	rl := NewRateLimiter(0.001, 3)

	for i := 0; i < 3; i++ {
		if !rl.Allow() {
			t.Fatalf("request %d must pass from a full bucket", i+1)
		}
	}
	if rl.Allow() {
		t.Error("empty bucket must reject the request")
	}
}

func TestRateLimiterWaitImmediate(t *testing.T) {
	rl := NewRateLimiter(10, 20)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("Wait with available tokens must not block, took %v", elapsed)
	}
}

func TestRateLimiterWaitBlocksUntilRefill(t *testing.T) {
	rl := NewRateLimiter(100, 1)
	rl.Allow() // опустошаем ведро

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Следующий токен появляется через ~10ms при 100 req/sec
	if elapsed := time.Since(start); elapsed < 5*time.Millisecond {
		t.Errorf("Wait must block until refill, returned after %v", elapsed)
	}
}

func TestRateLimiterWaitContextCancel(t *testing.T) {
	rl := NewRateLimiter(0.001, 1)
	rl.Allow() // следующий токен через ~17 минут

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rl.Wait(ctx)
	if err != context.DeadlineExceeded {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestRateLimiterRefillCapped(t *testing.T) {
	rl := NewRateLimiter(1000, 5)

	time.Sleep(20 * time.Millisecond) // начислилось бы ~20 токенов

	if tokens := rl.Tokens(); tokens > 5 {
		t.Errorf("tokens must be capped at burst 5, got %v", tokens)
	}
}

func TestRateLimiterConcurrentAllow(t *testing.T) {
	rl := NewRateLimiter(0.001, 50)

	allowed := make(chan bool, 100)
	for i := 0; i < 100; i++ {
		go func() {
			allowed <- rl.Allow()
		}()
	}

	passed := 0
	for i := 0; i < 100; i++ {
		if <-allowed {
			passed++
		}
	}

	// Ровно burst запросов получают токен
	if passed != 50 {
		t.Errorf("expected exactly 50 requests through, got %d", passed)
	}
}
