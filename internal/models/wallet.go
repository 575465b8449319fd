package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet представляет виртуальный SOL-кошелек пользователя
//
// Инвариант: balance >= 0 и locked >= 0 в любой момент.
// Сумма balance + locked меняется только при закрытии позиции (на величину pnl).
type Wallet struct {
	UserID    int64           `json:"user_id"`
	Balance   decimal.Decimal `json:"balance"` // свободные средства, SOL
	Locked    decimal.Decimal `json:"locked"`  // зарезервировано под открытые позиции
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Total возвращает суммарный капитал кошелька (свободный + зарезервированный)
func (w *Wallet) Total() decimal.Decimal {
	return w.Balance.Add(w.Locked)
}

// Validate проверяет инварианты кошелька
func (w *Wallet) Validate() error {
	if w.UserID <= 0 {
		return fmt.Errorf("wallet user_id must be positive, got %d", w.UserID)
	}
	if w.Balance.IsNegative() {
		return fmt.Errorf("wallet balance cannot be negative, got %s", w.Balance)
	}
	if w.Locked.IsNegative() {
		return fmt.Errorf("wallet locked cannot be negative, got %s", w.Locked)
	}
	return nil
}
