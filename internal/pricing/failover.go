package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// cooldownPeriod - время, на которое эндпоинт исключается из ротации
// после ошибки
const cooldownPeriod = 30 * time.Second

// FailoverSource - источник цен с автоматическим переключением
//
// Держит упорядоченный список эндпоинтов: первый - основной,
// остальные - резервные. Запрос идет в первый здоровый эндпоинт;
// при ошибке эндпоинт помечается нездоровым на cooldownPeriod и
// запрос уходит в следующий. Когда все эндпоинты в cooldown,
// пробуются все подряд.
type FailoverSource struct {
	sources []Source
	logger  *zap.Logger

	mu       sync.Mutex
	failedAt map[int]time.Time
}

var _ Source = (*FailoverSource)(nil)

// NewFailoverSource создает источник с переключением.
// Порядок sources задает приоритет.
func NewFailoverSource(logger *zap.Logger, sources ...Source) *FailoverSource {
	return &FailoverSource{
		sources:  sources,
		logger:   logger,
		failedAt: make(map[int]time.Time),
	}
}

// GetPrice запрашивает цену у первого здорового эндпоинта
func (f *FailoverSource) GetPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	if len(f.sources) == 0 {
		return decimal.Zero, ErrUnavailable
	}

	var lastErr error

	for pass := 0; pass < 2; pass++ {
		for i, src := range f.sources {
			// Первый проход пропускает эндпоинты в cooldown,
			// второй пробует все
			if pass == 0 && !f.healthy(i) {
				continue
			}

			price, err := src.GetPrice(ctx, token)
			if err == nil {
				f.markHealthy(i)
				return price, nil
			}

			lastErr = err
			f.markFailed(i)

			if ctx.Err() != nil {
				return decimal.Zero, ctx.Err()
			}

			f.logger.Warn("price endpoint failed, trying next",
				zap.Int("endpoint_index", i),
				zap.String("token", token),
				zap.Error(err))
		}
	}

	return decimal.Zero, lastErr
}

func (f *FailoverSource) healthy(i int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	failedAt, ok := f.failedAt[i]
	if !ok {
		return true
	}
	return time.Since(failedAt) > cooldownPeriod
}

func (f *FailoverSource) markFailed(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failedAt[i] = time.Now()
}

func (f *FailoverSource) markHealthy(i int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failedAt, i)
}
