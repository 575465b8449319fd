// Package pricing предоставляет источники цен токенов в SOL.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrUnavailable - источник цен недоступен или вернул некорректные данные
var ErrUnavailable = errors.New("price source unavailable")

// Source - источник текущей цены токена
//
// GetPrice возвращает строго положительную цену в SOL либо ошибку.
// Реализации обязаны уважать отмену контекста.
type Source interface {
	GetPrice(ctx context.Context, token string) (decimal.Decimal, error)
}

// APIError - ошибка конкретного эндпоинта цен
type APIError struct {
	Endpoint string
	Code     int
	Message  string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("price api %s: code=%d msg=%s", e.Endpoint, e.Code, e.Message)
}

// Retryable сообщает retry-хелперу, стоит ли повторять запрос.
// Ошибки 4xx (кроме 429) повторять бессмысленно.
func (e *APIError) Retryable() bool {
	if e.Code == 429 {
		return true
	}
	return e.Code < 400 || e.Code >= 500
}
