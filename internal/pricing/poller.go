package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitrader/internal/models"
	"kitrader/internal/repository"
)

// TokenLister возвращает адреса токенов, за которыми нужно следить
type TokenLister interface {
	GetTrackedTokens() ([]string, error)
}

// SampleSink принимает персистентные сэмплы цен
type SampleSink interface {
	InsertSample(sample *models.PriceSample) error
}

// Recorder принимает сэмплы в память (окно волатильности)
type Recorder interface {
	Record(token string, price decimal.Decimal, at time.Time)
}

var (
	_ TokenLister = (*repository.PriceRepository)(nil)
	_ SampleSink  = (*repository.PriceRepository)(nil)
)

// Poller - фоновый опросчик цен отслеживаемых токенов
//
// Раз в interval запрашивает цену каждого отслеживаемого токена,
// пишет сэмпл в память (окно волатильности) и в таблицу
// price_samples (история для графиков позиций). Ошибки отдельных
// токенов логируются и не прерывают цикл.
type Poller struct {
	source   Source
	tokens   TokenLister
	sink     SampleSink
	recorder Recorder
	interval time.Duration
	logger   *zap.Logger

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewPoller создает опросчик
func NewPoller(source Source, tokens TokenLister, sink SampleSink, recorder Recorder, interval time.Duration, logger *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}

	return &Poller{
		source:   source,
		tokens:   tokens,
		sink:     sink,
		recorder: recorder,
		interval: interval,
		logger:   logger,
	}
}

// Start запускает фоновый цикл опроса
func (p *Poller) Start() {
	p.stopChan = make(chan struct{})
	p.wg.Add(1)

	go func() {
		defer p.wg.Done()

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		p.logger.Info("price poller started", zap.Duration("interval", p.interval))

		for {
			select {
			case <-ticker.C:
				p.pollOnce()
			case <-p.stopChan:
				p.logger.Info("price poller stopped")
				return
			}
		}
	}()
}

// Stop останавливает опросчик и дожидается завершения цикла
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		if p.stopChan != nil {
			close(p.stopChan)
		}
	})
	p.wg.Wait()
}

// pollOnce опрашивает все отслеживаемые токены один раз
func (p *Poller) pollOnce() {
	tokens, err := p.tokens.GetTrackedTokens()
	if err != nil {
		p.logger.Error("failed to load tracked tokens", zap.Error(err))
		return
	}

	for _, address := range tokens {
		select {
		case <-p.stopChan:
			return
		default:
		}

		p.sampleToken(address)
	}
}

// sampleToken запрашивает и сохраняет один сэмпл
func (p *Poller) sampleToken(address string) {
	ctx, cancel := context.WithTimeout(context.Background(), p.interval)
	defer cancel()

	price, err := p.source.GetPrice(ctx, address)
	if err != nil {
		p.logger.Warn("failed to sample token price",
			zap.String("token", address),
			zap.Error(err))
		return
	}

	now := time.Now()
	p.recorder.Record(address, price, now)

	sample := &models.PriceSample{
		Token:    address,
		PriceSol: price,
		Time:     now,
	}
	if err := p.sink.InsertSample(sample); err != nil {
		p.logger.Error("failed to persist price sample",
			zap.String("token", address),
			zap.Error(err))
	}
}
