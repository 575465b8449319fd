package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitrader/internal/config"
	"kitrader/internal/models"
	"kitrader/internal/repository"
	"kitrader/pkg/utils"
)

// Количество страйпов пользовательских мьютексов.
// Степень двойки для быстрого остатка.
const userStripes = 64

// WalletStore - доступ движка к кошелькам
type WalletStore interface {
	GetOrCreate(userID int64, defaultBalance decimal.Decimal) (*models.Wallet, error)
}

// PositionStore - доступ движка к позициям (чтение)
type PositionStore interface {
	GetByID(id int64) (*models.Position, error)
	ListByUser(userID int64, status string, limit, offset int) ([]*models.Position, error)
	CountOpenByUser(userID int64) (int, error)
	CountOpenByUserAndType(userID int64, posType string) (int, error)
	SumOpenSizeByUser(userID int64) (decimal.Decimal, error)
	SumOpenSizeByUserAndToken(userID int64, token string) (decimal.Decimal, error)
}

// TradeStore - доступ движка к журналу сделок
type TradeStore interface {
	GetByPositionID(positionID int64) ([]*models.Trade, error)
}

// SampleStore - доступ движка к персистентным сэмплам цен
type SampleStore interface {
	GetSamplesInRange(token string, from, to time.Time) ([]*models.PriceSample, error)
}

// PositionLedger - транзакционное ядро (см. Ledger)
type PositionLedger interface {
	Open(userID int64, token, posType string, size, entryPrice decimal.Decimal) (*models.Position, error)
	Close(pos *models.Position, closePrice decimal.Decimal, closeTime time.Time, pnl decimal.Decimal) error
}

// PriceSource - источник текущей цены токена в SOL
type PriceSource interface {
	GetPrice(ctx context.Context, token string) (decimal.Decimal, error)
}

// Notifier - получатель событий движка (персист + broadcast)
type Notifier interface {
	Notify(notif *models.Notification)
}

// Проверки соответствия интерфейсам
var (
	_ WalletStore    = (*repository.WalletRepository)(nil)
	_ PositionStore  = (*repository.PositionRepository)(nil)
	_ TradeStore     = (*repository.TradeRepository)(nil)
	_ SampleStore    = (*repository.PriceRepository)(nil)
	_ PositionLedger = (*Ledger)(nil)
)

// Engine - оркестратор симулятора торговли
//
// Критическая секция открытия сериализуется per-user страйп-мьютексом:
// проверки лимитов и риска, запрос цены и резервирование идут под
// одним мьютексом пользователя, поэтому две конкурентные заявки одного
// пользователя не могут пройти проверки на одном снимке кошелька.
// Закрытию сериализация не нужна - гонку двойного закрытия решает
// условный UPDATE в Ledger.
type Engine struct {
	wallets   WalletStore
	positions PositionStore
	trades    TradeStore
	samples   SampleStore
	ledger    PositionLedger
	prices    PriceSource
	tracker   *PriceTracker
	risk      *RiskValidator
	notifier  Notifier
	logger    *zap.Logger

	trading config.TradingConfig
	priceTO time.Duration

	userMu [userStripes]sync.Mutex
}

// NewEngine создает движок
func NewEngine(
	wallets WalletStore,
	positions PositionStore,
	trades TradeStore,
	samples SampleStore,
	ledger PositionLedger,
	prices PriceSource,
	tracker *PriceTracker,
	trading config.TradingConfig,
	priceTimeout time.Duration,
	logger *zap.Logger,
) *Engine {
	return &Engine{
		wallets:   wallets,
		positions: positions,
		trades:    trades,
		samples:   samples,
		ledger:    ledger,
		prices:    prices,
		tracker:   tracker,
		risk:      NewRiskValidator(trading),
		logger:    logger,
		trading:   trading,
		priceTO:   priceTimeout,
	}
}

// SetNotifier подключает получателя событий
func (e *Engine) SetNotifier(n Notifier) {
	e.notifier = n
}

func (e *Engine) stripe(userID int64) *sync.Mutex {
	return &e.userMu[uint64(userID)%userStripes]
}

// ============================================================
// Операции движка
// ============================================================

// OpenPosition открывает бумажную позицию.
//
// Порядок: валидация параметров → лимит количества → риск-проверки →
// запрос цены (с таймаутом) → атомарное открытие в Ledger.
// До Ledger.Open в БД ничего не меняется.
func (e *Engine) OpenPosition(ctx context.Context, userID int64, token, posType string, size decimal.Decimal) (*models.Position, error) {
	if err := e.validateOpenParams(token, posType, size); err != nil {
		return nil, err
	}

	mu := e.stripe(userID)
	mu.Lock()
	defer mu.Unlock()

	wallet, err := e.wallets.GetOrCreate(userID, decimal.NewFromFloat(e.trading.DefaultBalance))
	if err != nil {
		return nil, fmt.Errorf("load wallet: %w", err)
	}

	openCount, err := e.positions.CountOpenByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("count open positions: %w", err)
	}
	if openCount >= e.trading.MaxPositionsPerUser {
		return nil, ErrPositionLimit
	}

	if err := e.checkRisk(userID, token, posType, size, wallet); err != nil {
		e.notifyRejected(userID, token, posType, size, err)
		RecordRiskRejection(riskReason(err))
		return nil, err
	}

	price, err := e.fetchPrice(ctx, token)
	if err != nil {
		e.notifyError(userID, fmt.Sprintf("price fetch failed for %s", token), err)
		return nil, err
	}

	pos, err := e.ledger.Open(userID, token, posType, size, price)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientBalance) {
			return nil, err
		}
		e.logger.Error("open transaction failed",
			zap.Int64("user_id", userID),
			zap.String("token", token),
			zap.Error(err))
		return nil, fmt.Errorf("open position: %w", err)
	}

	RecordPositionOpened(posType)
	e.logger.Info("position opened",
		zap.Int64("user_id", userID),
		zap.Int64("position_id", pos.ID),
		zap.String("token", token),
		zap.String("type", posType),
		zap.String("size", size.String()),
		zap.String("entry_price", price.String()))

	e.notifyOpen(pos)
	return pos, nil
}

// ClosePosition закрывает позицию по текущей цене.
//
// Повторное закрытие возвращает repository.ErrPositionClosed:
// условный UPDATE в Ledger - единственный арбитр гонки.
func (e *Engine) ClosePosition(ctx context.Context, positionID int64) (*models.Position, error) {
	pos, err := e.positions.GetByID(positionID)
	if err != nil {
		return nil, err
	}

	if !pos.IsOpen() {
		return nil, repository.ErrPositionClosed
	}

	price, err := e.fetchPrice(ctx, pos.Token)
	if err != nil {
		e.notifyError(pos.UserID, fmt.Sprintf("price fetch failed for %s", pos.Token), err)
		return nil, err
	}

	closeTime := time.Now()
	pnl := pos.CalcPnl(price)

	if err := e.ledger.Close(pos, price, closeTime, pnl); err != nil {
		if errors.Is(err, repository.ErrPositionClosed) {
			return nil, err
		}
		e.logger.Error("close transaction failed",
			zap.Int64("position_id", pos.ID),
			zap.Error(err))
		return nil, fmt.Errorf("close position: %w", err)
	}

	pos.Status = models.PositionStatusClosed
	pos.ClosePrice = &price
	pos.CloseTime = &closeTime
	pos.Pnl = &pnl

	RecordPositionClosed(pos.Type, pnl)
	e.logger.Info("position closed",
		zap.Int64("user_id", pos.UserID),
		zap.Int64("position_id", pos.ID),
		zap.String("token", pos.Token),
		zap.String("close_price", price.String()),
		zap.String("pnl", pnl.String()))

	e.notifyClose(pos)
	return pos, nil
}

// GetWallet возвращает кошелек, создавая его при первом обращении
func (e *Engine) GetWallet(userID int64) (*models.Wallet, error) {
	return e.wallets.GetOrCreate(userID, decimal.NewFromFloat(e.trading.DefaultBalance))
}

// ListPositions возвращает позиции пользователя. Открытым позициям
// прикладывается текущая цена и нереализованный PNL из трекера
// (производные поля, в БД не пишутся).
func (e *Engine) ListPositions(userID int64, status string, limit, offset int) ([]*models.Position, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	positions, err := e.positions.ListByUser(userID, status, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, pos := range positions {
		if !pos.IsOpen() {
			continue
		}
		if price, ok := e.tracker.Latest(pos.Token); ok {
			unrealized := pos.CalcPnl(price)
			pos.CurrentPrice = &price
			pos.UnrealizedPnl = &unrealized
		}
	}

	return positions, nil
}

// PositionHistory - полная история позиции
type PositionHistory struct {
	Position *models.Position      `json:"position"`
	Trades   []*models.Trade       `json:"trades"`
	Samples  []*models.PriceSample `json:"price_samples,omitempty"`
	Duration time.Duration         `json:"duration_ns"`
	ROI      decimal.Decimal       `json:"roi_percent"`
}

// GetPositionHistory возвращает позицию, ее журнал сделок и
// опционально сэмплы цен от открытия до закрытия (или до сейчас)
func (e *Engine) GetPositionHistory(positionID int64, includeSamples bool) (*PositionHistory, error) {
	pos, err := e.positions.GetByID(positionID)
	if err != nil {
		return nil, err
	}

	trades, err := e.trades.GetByPositionID(positionID)
	if err != nil {
		return nil, fmt.Errorf("load trades: %w", err)
	}

	hist := &PositionHistory{
		Position: pos,
		Trades:   trades,
		Duration: pos.Duration(),
		ROI:      pos.ROI(),
	}

	if includeSamples {
		window := utils.TimeRange{Start: pos.OpenTime, End: time.Now()}
		if pos.CloseTime != nil {
			window.End = *pos.CloseTime
		}
		samples, err := e.samples.GetSamplesInRange(pos.Token, window.Start, window.End)
		if err != nil {
			return nil, fmt.Errorf("load price samples: %w", err)
		}
		hist.Samples = samples
	}

	return hist, nil
}

// ValidateRisk выполняет сухую проверку риска без открытия позиции
func (e *Engine) ValidateRisk(userID int64, token, posType string, size decimal.Decimal) (bool, string, error) {
	if err := e.validateOpenParams(token, posType, size); err != nil {
		return false, err.Error(), nil
	}

	wallet, err := e.wallets.GetOrCreate(userID, decimal.NewFromFloat(e.trading.DefaultBalance))
	if err != nil {
		return false, "", err
	}

	if err := e.checkRisk(userID, token, posType, size, wallet); err != nil {
		var re *RiskError
		if errors.As(err, &re) {
			return false, re.Reason, nil
		}
		return false, "", err
	}

	return true, "", nil
}

// ============================================================
// Внутренние шаги
// ============================================================

// validateOpenParams проверяет направление и границы размера
func (e *Engine) validateOpenParams(token, posType string, size decimal.Decimal) error {
	if token == "" {
		return NewValidationError("token", "is required")
	}
	if !models.IsValidPositionType(posType) {
		return NewValidationError("type", fmt.Sprintf("must be %s or %s", models.PositionLong, models.PositionShort))
	}

	min := decimal.NewFromFloat(e.trading.MinTradeSize)
	max := decimal.NewFromFloat(e.trading.MaxTradeSize)
	if size.LessThan(min) || size.GreaterThan(max) {
		return NewValidationError("size", fmt.Sprintf("must be between %s and %s SOL", min, max))
	}

	return nil
}

// checkRisk собирает снимок для валидатора и прогоняет проверки
func (e *Engine) checkRisk(userID int64, token, posType string, size decimal.Decimal, wallet *models.Wallet) error {
	tokenSize, err := e.positions.SumOpenSizeByUserAndToken(userID, token)
	if err != nil {
		return fmt.Errorf("sum token exposure: %w", err)
	}

	totalSize, err := e.positions.SumOpenSizeByUser(userID)
	if err != nil {
		return fmt.Errorf("sum total exposure: %w", err)
	}

	dirCount, err := e.positions.CountOpenByUserAndType(userID, posType)
	if err != nil {
		return fmt.Errorf("count direction: %w", err)
	}

	ok, reason := e.risk.Validate(RiskInput{
		Size:           size,
		Type:           posType,
		WalletTotal:    wallet.Total(),
		TokenOpenSize:  tokenSize,
		TotalOpenSize:  totalSize,
		DirectionCount: dirCount,
		PriceWindow:    e.tracker.Window(token),
	})
	if !ok {
		return &RiskError{Reason: reason}
	}

	return nil
}

// fetchPrice запрашивает цену с жестким таймаутом.
// Любая ошибка или неположительная цена превращаются в
// ErrPriceUnavailable - операция выше не выполнит никаких мутаций.
func (e *Engine) fetchPrice(ctx context.Context, token string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, e.priceTO)
	defer cancel()

	start := time.Now()
	price, err := e.prices.GetPrice(ctx, token)
	RecordPriceFetch(time.Since(start), err == nil)

	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrPriceUnavailable, err)
	}
	if !price.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: non-positive price %s", ErrPriceUnavailable, price)
	}

	e.tracker.Record(token, price, time.Now())
	return price, nil
}

// riskReason достает причину из RiskError для метрик
func riskReason(err error) string {
	var re *RiskError
	if errors.As(err, &re) {
		return re.Reason
	}
	return "unknown"
}

// ============================================================
// Уведомления
// ============================================================

func (e *Engine) notifyOpen(pos *models.Position) {
	if e.notifier == nil {
		return
	}
	userID := pos.UserID
	positionID := pos.ID
	e.notifier.Notify(&models.Notification{
		Timestamp:  time.Now(),
		Type:       models.NotificationTypeOpen,
		Severity:   models.SeverityInfo,
		UserID:     &userID,
		PositionID: &positionID,
		Message: fmt.Sprintf("Opened %s %s SOL on %s at %s",
			pos.Type, pos.Size, pos.Token, pos.EntryPrice),
		Meta: map[string]interface{}{
			"token":       pos.Token,
			"type":        pos.Type,
			"size":        pos.Size.String(),
			"entry_price": pos.EntryPrice.String(),
		},
	})
}

func (e *Engine) notifyClose(pos *models.Position) {
	if e.notifier == nil {
		return
	}
	userID := pos.UserID
	positionID := pos.ID
	e.notifier.Notify(&models.Notification{
		Timestamp:  time.Now(),
		Type:       models.NotificationTypeClose,
		Severity:   models.SeverityInfo,
		UserID:     &userID,
		PositionID: &positionID,
		Message: fmt.Sprintf("Closed %s %s SOL on %s at %s, pnl %s",
			pos.Type, pos.Size, pos.Token, pos.ClosePrice, pos.Pnl),
		Meta: map[string]interface{}{
			"token":       pos.Token,
			"type":        pos.Type,
			"size":        pos.Size.String(),
			"close_price": pos.ClosePrice.String(),
			"pnl":         pos.Pnl.String(),
			"duration":    utils.FormatDuration(pos.Duration()),
		},
	})
}

func (e *Engine) notifyRejected(userID int64, token, posType string, size decimal.Decimal, err error) {
	if e.notifier == nil {
		return
	}
	uid := userID
	e.notifier.Notify(&models.Notification{
		Timestamp: time.Now(),
		Type:      models.NotificationTypeRejected,
		Severity:  models.SeverityWarn,
		UserID:    &uid,
		Message:   fmt.Sprintf("Rejected %s %s SOL on %s: %v", posType, size, token, err),
		Meta: map[string]interface{}{
			"token":  token,
			"type":   posType,
			"size":   size.String(),
			"reason": err.Error(),
		},
	})
}

func (e *Engine) notifyError(userID int64, message string, err error) {
	if e.notifier == nil {
		return
	}
	uid := userID
	e.notifier.Notify(&models.Notification{
		Timestamp: time.Now(),
		Type:      models.NotificationTypeError,
		Severity:  models.SeverityError,
		UserID:    &uid,
		Message:   fmt.Sprintf("%s: %v", message, err),
		Meta: map[string]interface{}{
			"error": err.Error(),
		},
	})
}
