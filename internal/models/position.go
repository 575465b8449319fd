package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Направления позиции
const (
	PositionLong  = "long"
	PositionShort = "short"
)

// Статусы позиции
const (
	PositionStatusOpen   = "open"
	PositionStatusClosed = "closed"
)

// Position представляет бумажную позицию по токену
//
// size хранится в SOL и резервируется в кошельке на всё время жизни позиции.
// close_price, close_time и pnl заполняются только при закрытии.
type Position struct {
	ID         int64            `json:"id"`
	UserID     int64            `json:"user_id"`
	Token      string           `json:"token"` // адрес токена (base58)
	Type       string           `json:"type"`  // long | short
	Size       decimal.Decimal  `json:"size"`  // размер в SOL
	EntryPrice decimal.Decimal  `json:"entry_price"`
	OpenTime   time.Time        `json:"open_time"`
	Status     string           `json:"status"`
	ClosePrice *decimal.Decimal `json:"close_price,omitempty"`
	CloseTime  *time.Time       `json:"close_time,omitempty"`
	Pnl        *decimal.Decimal `json:"pnl,omitempty"`

	// Производные поля для открытых позиций, не персистятся
	CurrentPrice  *decimal.Decimal `json:"current_price,omitempty"`
	UnrealizedPnl *decimal.Decimal `json:"unrealized_pnl,omitempty"`
}

// IsValidPositionType проверяет направление позиции
func IsValidPositionType(t string) bool {
	return t == PositionLong || t == PositionShort
}

// Validate проверяет корректность полей позиции
func (p *Position) Validate() error {
	if p.UserID <= 0 {
		return fmt.Errorf("position user_id must be positive, got %d", p.UserID)
	}
	if p.Token == "" {
		return fmt.Errorf("position token is required")
	}
	if !IsValidPositionType(p.Type) {
		return fmt.Errorf("invalid position type: %s", p.Type)
	}
	if !p.Size.IsPositive() {
		return fmt.Errorf("position size must be positive, got %s", p.Size)
	}
	if !p.EntryPrice.IsPositive() {
		return fmt.Errorf("position entry_price must be positive, got %s", p.EntryPrice)
	}
	return nil
}

// IsOpen сообщает, открыта ли позиция
func (p *Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

// CalcPnl считает PNL позиции при цене закрытия price:
//
//	long:  (price - entry) * size
//	short: (entry - price) * size
func (p *Position) CalcPnl(price decimal.Decimal) decimal.Decimal {
	if p.Type == PositionShort {
		return p.EntryPrice.Sub(price).Mul(p.Size)
	}
	return price.Sub(p.EntryPrice).Mul(p.Size)
}

// ROI возвращает доходность закрытой позиции в процентах:
// pnl / (size * entry_price) * 100. Для открытой позиции - ноль.
func (p *Position) ROI() decimal.Decimal {
	if p.Pnl == nil {
		return decimal.Zero
	}
	cost := p.Size.Mul(p.EntryPrice)
	if cost.IsZero() {
		return decimal.Zero
	}
	return p.Pnl.Div(cost).Mul(decimal.NewFromInt(100))
}

// Duration возвращает время жизни закрытой позиции (0 для открытой)
func (p *Position) Duration() time.Duration {
	if p.CloseTime == nil {
		return 0
	}
	return p.CloseTime.Sub(p.OpenTime)
}
