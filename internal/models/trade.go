package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Стороны сделки в журнале
const (
	TradeSideBuy  = "BUY"  // запись при открытии позиции
	TradeSideSell = "SELL" // запись при закрытии позиции
)

// Trade - запись append-only журнала сделок
//
// Журнал никогда не обновляется и не чистится: каждая операция
// открытия/закрытия добавляет ровно одну запись. pnl заполнен
// только у SELL-записей.
type Trade struct {
	ID         int64            `json:"id"`
	PositionID int64            `json:"position_id"`
	UserID     int64            `json:"user_id"`
	Token      string           `json:"token"`
	Side       string           `json:"side"` // BUY | SELL
	Size       decimal.Decimal  `json:"size"`
	Price      decimal.Decimal  `json:"price"`
	Pnl        *decimal.Decimal `json:"pnl,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
}

// Validate проверяет корректность записи журнала
func (t *Trade) Validate() error {
	if t.PositionID <= 0 {
		return fmt.Errorf("trade position_id must be positive, got %d", t.PositionID)
	}
	if t.UserID <= 0 {
		return fmt.Errorf("trade user_id must be positive, got %d", t.UserID)
	}
	if t.Side != TradeSideBuy && t.Side != TradeSideSell {
		return fmt.Errorf("invalid trade side: %s", t.Side)
	}
	if !t.Size.IsPositive() {
		return fmt.Errorf("trade size must be positive, got %s", t.Size)
	}
	if !t.Price.IsPositive() {
		return fmt.Errorf("trade price must be positive, got %s", t.Price)
	}
	return nil
}
