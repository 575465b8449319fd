package bot

import (
	"errors"
	"fmt"
)

// Ошибки торгового движка
var (
	// ErrPriceUnavailable - источник цен не ответил вовремя или вернул
	// некорректную цену. Состояние кошелька и позиций не изменено.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrPositionLimit - достигнут лимит открытых позиций пользователя
	ErrPositionLimit = errors.New("position limit reached")
)

// ValidationError - ошибка валидации входных параметров операции
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Reason)
}

// NewValidationError создает ошибку валидации
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// Причины отказа риск-валидатора
const (
	RiskReasonTokenExposure = "per-token exposure cap exceeded"
	RiskReasonTotalExposure = "total exposure cap exceeded"
	RiskReasonVolatility    = "token volatility too high"

	// RiskReasonDirectionLimit - шаблон, направление подставляется
	// через DirectionLimitReason
	RiskReasonDirectionLimit = "maximum %s positions reached"
)

// DirectionLimitReason возвращает причину отказа по концентрации
// направления с подставленным направлением (long/short)
func DirectionLimitReason(positionType string) string {
	return fmt.Sprintf(RiskReasonDirectionLimit, positionType)
}

// RiskError - отказ риск-валидатора с первой непройденной причиной
type RiskError struct {
	Reason string
}

func (e *RiskError) Error() string {
	return fmt.Sprintf("risk check failed: %s", e.Reason)
}

// IsRiskError сообщает, является ли ошибка отказом риск-валидатора
func IsRiskError(err error) bool {
	var re *RiskError
	return errors.As(err, &re)
}
