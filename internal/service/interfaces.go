package service

import (
	"time"

	"kitrader/internal/models"
	"kitrader/internal/repository"
)

// UserRepositoryInterface определяет интерфейс репозитория пользователей
type UserRepositoryInterface interface {
	GetByID(id int64) (*models.User, error)
	Upsert(user *models.User) error
	UpdateRole(id int64, role string) error
	Deactivate(id int64) error
	List(limit, offset int) ([]*models.User, error)
	CountActive() (int, error)
}

// NotificationRepositoryInterface определяет интерфейс репозитория уведомлений
type NotificationRepositoryInterface interface {
	Create(notif *models.Notification) error
	GetRecent(limit int) ([]*models.Notification, error)
	GetRecentByUser(userID int64, limit int) ([]*models.Notification, error)
	DeleteOlderThan(timestamp time.Time) (int64, error)
}

// TokenRepositoryInterface определяет интерфейс репозитория токенов и цен
type TokenRepositoryInterface interface {
	UpsertToken(token *models.Token) error
	GetToken(address string) (*models.Token, error)
	GetTrackedTokens() ([]string, error)
	GetRecentSamples(token string, limit int) ([]*models.PriceSample, error)
	DeleteSamplesOlderThan(timestamp time.Time) (int64, error)
}

// Проверяем, что реальные репозитории реализуют интерфейсы
var _ UserRepositoryInterface = (*repository.UserRepository)(nil)
var _ NotificationRepositoryInterface = (*repository.NotificationRepository)(nil)
var _ TokenRepositoryInterface = (*repository.PriceRepository)(nil)

// ============ Интерфейсы сервисов для Dependency Injection ============

// UserServiceInterface определяет интерфейс сервиса пользователей
type UserServiceInterface interface {
	RegisterOrTouch(id int64, username string) (*models.User, error)
	GetUser(id int64) (*models.User, error)
	RequireActive(id int64) (*models.User, error)
	UpdateRole(actorID, targetID int64, role string) error
	Deactivate(actorID, targetID int64) error
	ListUsers(limit, offset int) ([]*models.User, error)
	CountActive() (int, error)
}

// NotificationServiceInterface определяет интерфейс сервиса уведомлений
type NotificationServiceInterface interface {
	CreateNotification(notif *models.Notification) error
	GetNotifications(limit int) ([]*models.Notification, error)
	GetUserNotifications(userID int64, limit int) ([]*models.Notification, error)
	CleanupOld(olderThan time.Duration) (int64, error)
}

// TokenServiceInterface определяет интерфейс сервиса токенов
type TokenServiceInterface interface {
	TrackToken(actorID int64, address, symbol, name string) (*models.Token, error)
	GetToken(address string) (*models.Token, error)
	GetPriceHistory(address string, limit int) ([]*models.PriceSample, error)
}

// Проверяем, что реальные сервисы реализуют интерфейсы
var _ UserServiceInterface = (*UserService)(nil)
var _ NotificationServiceInterface = (*NotificationService)(nil)
var _ TokenServiceInterface = (*TokenService)(nil)
