package models

import "time"

// Notification представляет уведомление о событии торгового движка
type Notification struct {
	ID         int                    `json:"id" db:"id"`
	Timestamp  time.Time              `json:"timestamp" db:"timestamp"`
	Type       string                 `json:"type" db:"type"`         // OPEN, CLOSE, REJECTED, ERROR
	Severity   string                 `json:"severity" db:"severity"` // info, warn, error
	UserID     *int64                 `json:"user_id,omitempty" db:"user_id"`
	PositionID *int64                 `json:"position_id,omitempty" db:"position_id"`
	Message    string                 `json:"message" db:"message"`
	Meta       map[string]interface{} `json:"meta,omitempty" db:"meta"` // дополнительные данные (JSON в БД)
}

// Типы уведомлений
const (
	NotificationTypeOpen     = "OPEN"     // позиция открыта
	NotificationTypeClose    = "CLOSE"    // позиция закрыта
	NotificationTypeRejected = "REJECTED" // открытие отклонено риск-валидатором
	NotificationTypeError    = "ERROR"    // ошибка цены или хранилища
)

// Уровни важности
const (
	SeverityInfo  = "info"
	SeverityWarn  = "warn"
	SeverityError = "error"
)
