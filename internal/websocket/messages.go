package websocket

import (
	"time"

	"github.com/shopspring/decimal"

	"kitrader/internal/models"
)

// MessageType определяет тип WebSocket сообщения
type MessageType string

// Типы WebSocket сообщений
const (
	// MessageTypeNotification - новое событие движка
	// Отправляется при открытии/закрытии позиций, отказах риска и ошибках
	MessageTypeNotification MessageType = "notification"

	// MessageTypePriceUpdate - свежий сэмпл цены токена
	// Отправляется фоновым опросчиком после каждого успешного запроса
	MessageTypePriceUpdate MessageType = "priceUpdate"

	// MessageTypeWalletUpdate - изменение кошелька пользователя
	// Отправляется после открытия или закрытия позиции
	MessageTypeWalletUpdate MessageType = "walletUpdate"

	// MessageTypePositionUpdate - изменение позиции
	MessageTypePositionUpdate MessageType = "positionUpdate"
)

// BaseMessage - базовая структура для всех WebSocket сообщений
type BaseMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
}

// NotificationMessage - сообщение о новом событии движка
type NotificationMessage struct {
	BaseMessage
	Data *NotificationData `json:"data"`
}

// NotificationData - данные события
type NotificationData struct {
	// ID уведомления в БД
	ID int `json:"id"`

	// Тип события (OPEN, CLOSE, REJECTED, ERROR)
	Type string `json:"type"`

	// Уровень важности (info, warn, error)
	Severity string `json:"severity"`

	// ID пользователя (если применимо)
	UserID *int64 `json:"user_id,omitempty"`

	// ID связанной позиции (если применимо)
	PositionID *int64 `json:"position_id,omitempty"`

	// Текст сообщения
	Message string `json:"message"`

	// Дополнительные метаданные (токен, цены, PNL и т.д.)
	Meta map[string]interface{} `json:"meta,omitempty"`

	// Время создания уведомления
	Timestamp time.Time `json:"timestamp"`
}

// PriceUpdateMessage - сообщение со свежей ценой токена
type PriceUpdateMessage struct {
	BaseMessage
	Token    string          `json:"token"`
	PriceSol decimal.Decimal `json:"price_sol"`
}

// WalletUpdateMessage - сообщение об изменении кошелька
type WalletUpdateMessage struct {
	BaseMessage
	UserID  int64           `json:"user_id"`
	Balance decimal.Decimal `json:"balance"`
	Locked  decimal.Decimal `json:"locked"`
	Total   decimal.Decimal `json:"total"`
}

// PositionUpdateMessage - сообщение об изменении позиции
type PositionUpdateMessage struct {
	BaseMessage
	Data *models.Position `json:"data"`
}

// ============ Фабричные функции для создания сообщений ============

// NewNotificationMessage создает сообщение события
func NewNotificationMessage(notif *models.Notification) *NotificationMessage {
	return &NotificationMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeNotification,
			Timestamp: time.Now(),
		},
		Data: &NotificationData{
			ID:         notif.ID,
			Type:       notif.Type,
			Severity:   notif.Severity,
			UserID:     notif.UserID,
			PositionID: notif.PositionID,
			Message:    notif.Message,
			Meta:       notif.Meta,
			Timestamp:  notif.Timestamp,
		},
	}
}

// NewPriceUpdateMessage создает сообщение о цене токена
func NewPriceUpdateMessage(token string, priceSol decimal.Decimal) *PriceUpdateMessage {
	return &PriceUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePriceUpdate,
			Timestamp: time.Now(),
		},
		Token:    token,
		PriceSol: priceSol,
	}
}

// NewWalletUpdateMessage создает сообщение об изменении кошелька
func NewWalletUpdateMessage(wallet *models.Wallet) *WalletUpdateMessage {
	return &WalletUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypeWalletUpdate,
			Timestamp: time.Now(),
		},
		UserID:  wallet.UserID,
		Balance: wallet.Balance,
		Locked:  wallet.Locked,
		Total:   wallet.Total(),
	}
}

// NewPositionUpdateMessage создает сообщение об изменении позиции
func NewPositionUpdateMessage(pos *models.Position) *PositionUpdateMessage {
	return &PositionUpdateMessage{
		BaseMessage: BaseMessage{
			Type:      MessageTypePositionUpdate,
			Timestamp: time.Now(),
		},
		Data: pos,
	}
}
