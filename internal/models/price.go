package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceSample - сэмпл цены токена в SOL
//
// Пишется фоновым опросчиком в таблицу price_samples и используется
// для истории позиций и расчета волатильности.
type PriceSample struct {
	ID       int64           `json:"id"`
	Token    string          `json:"token"`
	PriceSol decimal.Decimal `json:"price_sol"`
	Time     time.Time       `json:"time"`
}

// Token - отслеживаемый Solana-токен
type Token struct {
	Address string    `json:"address"` // base58, первичный ключ
	Symbol  string    `json:"symbol"`
	Name    string    `json:"name"`
	AddedAt time.Time `json:"added_at"`
	AddedBy int64     `json:"added_by"` // user_id добавившего
	Tracked bool      `json:"tracked"`  // опрашивается ли фоновым поллером
}
