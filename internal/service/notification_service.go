package service

import (
	"time"

	"go.uber.org/zap"

	"kitrader/internal/bot"
	"kitrader/internal/models"
)

// WebSocketBroadcaster - интерфейс для отправки WebSocket сообщений
//
// Позволяет избежать циклических зависимостей между пакетами
// и упрощает тестирование (можно подставить mock)
type WebSocketBroadcaster interface {
	BroadcastNotification(notif *models.Notification)
}

// NotificationService предоставляет бизнес-логику журнала событий.
//
// Отвечает за:
// - Персист событий движка (OPEN, CLOSE, REJECTED, ERROR)
// - Выдачу журнала с фильтрацией по пользователю
// - Автоочистку старых записей
// - Broadcast событий через WebSocket
type NotificationService struct {
	notificationRepo NotificationRepositoryInterface
	wsHub            WebSocketBroadcaster
	logger           *zap.Logger
}

// NotificationService подключается к движку как bot.Notifier
var _ bot.Notifier = (*NotificationService)(nil)

// NewNotificationService создает новый экземпляр NotificationService
func NewNotificationService(notificationRepo NotificationRepositoryInterface, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		logger:           logger,
	}
}

// SetWebSocketHub устанавливает WebSocket hub для broadcast уведомлений.
//
// Вызывается после инициализации Hub в main.go:
//
//	notifService := service.NewNotificationService(notifRepo, logger)
//	notifService.SetWebSocketHub(wsHub)
func (s *NotificationService) SetWebSocketHub(hub WebSocketBroadcaster) {
	s.wsHub = hub
}

// CreateNotification сохраняет уведомление и рассылает его по WebSocket
func (s *NotificationService) CreateNotification(notif *models.Notification) error {
	if notif.Timestamp.IsZero() {
		notif.Timestamp = time.Now()
	}

	if err := s.notificationRepo.Create(notif); err != nil {
		return err
	}

	bot.RecordNotificationSent(notif.Type)

	if s.wsHub != nil {
		s.wsHub.BroadcastNotification(notif)
	}

	return nil
}

// Notify принимает событие от движка.
//
// Движок не должен падать из-за проблем журнала: ошибка персиста
// логируется и проглатывается.
func (s *NotificationService) Notify(notif *models.Notification) {
	if err := s.CreateNotification(notif); err != nil {
		s.logger.Error("failed to persist notification",
			zap.String("type", notif.Type),
			zap.Error(err))
	}
}

// GetNotifications возвращает последние уведомления, новые сверху
func (s *NotificationService) GetNotifications(limit int) ([]*models.Notification, error) {
	return s.notificationRepo.GetRecent(clampNotifLimit(limit))
}

// GetUserNotifications возвращает последние уведомления пользователя
func (s *NotificationService) GetUserNotifications(userID int64, limit int) ([]*models.Notification, error) {
	return s.notificationRepo.GetRecentByUser(userID, clampNotifLimit(limit))
}

// CleanupOld удаляет уведомления старше olderThan
func (s *NotificationService) CleanupOld(olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = 30 * 24 * time.Hour
	}

	deleted, err := s.notificationRepo.DeleteOlderThan(time.Now().Add(-olderThan))
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.logger.Info("old notifications cleaned up", zap.Int64("deleted", deleted))
	}

	return deleted, nil
}

func clampNotifLimit(limit int) int {
	if limit <= 0 {
		return 100
	}
	if limit > 500 {
		return 500
	}
	return limit
}
