package service

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kitrader/internal/models"
)

// Ошибки сервиса пользователей
var (
	// ErrForbidden - у инициатора недостаточно прав
	ErrForbidden = errors.New("forbidden")

	// ErrUserInactive - пользователь деактивирован
	ErrUserInactive = errors.New("user is deactivated")
)

// UserService предоставляет бизнес-логику управления пользователями.
//
// Пользователи регистрируются лениво: первый контакт создает запись
// с ролью basic. Права сравниваются по числовому рангу роли
// (admin > premium > basic), не по строкам.
type UserService struct {
	userRepo UserRepositoryInterface
	logger   *zap.Logger
}

// NewUserService создает новый экземпляр UserService
func NewUserService(userRepo UserRepositoryInterface, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		logger:   logger,
	}
}

// RegisterOrTouch регистрирует пользователя при первом контакте.
// Повторный вызов обновляет username, сохраняя существующие роль
// и статус активности.
func (s *UserService) RegisterOrTouch(id int64, username string) (*models.User, error) {
	user := &models.User{
		ID:       id,
		Username: username,
		Role:     models.RoleBasic,
	}

	if err := s.userRepo.Upsert(user); err != nil {
		return nil, fmt.Errorf("upsert user: %w", err)
	}

	return user, nil
}

// GetUser возвращает пользователя по ID
func (s *UserService) GetUser(id int64) (*models.User, error) {
	return s.userRepo.GetByID(id)
}

// RequireActive возвращает пользователя, если он существует и активен
func (s *UserService) RequireActive(id int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if !user.Active {
		return nil, ErrUserInactive
	}

	return user, nil
}

// UpdateRole меняет роль пользователя. Доступно только администраторам.
func (s *UserService) UpdateRole(actorID, targetID int64, role string) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("invalid role %q", role)
	}

	if err := s.requireAdmin(actorID); err != nil {
		return err
	}

	if err := s.userRepo.UpdateRole(targetID, role); err != nil {
		return err
	}

	s.logger.Info("user role updated",
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID),
		zap.String("role", role))

	return nil
}

// Deactivate мягко отключает пользователя. Доступно только
// администраторам; кошелек и история позиций сохраняются.
func (s *UserService) Deactivate(actorID, targetID int64) error {
	if err := s.requireAdmin(actorID); err != nil {
		return err
	}

	if err := s.userRepo.Deactivate(targetID); err != nil {
		return err
	}

	s.logger.Info("user deactivated",
		zap.Int64("actor_id", actorID),
		zap.Int64("target_id", targetID))

	return nil
}

// ListUsers возвращает пользователей, новые первыми
func (s *UserService) ListUsers(limit, offset int) ([]*models.User, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	return s.userRepo.List(limit, offset)
}

// CountActive возвращает количество активных пользователей
func (s *UserService) CountActive() (int, error) {
	return s.userRepo.CountActive()
}

// requireAdmin проверяет, что инициатор - активный администратор
func (s *UserService) requireAdmin(actorID int64) error {
	actor, err := s.userRepo.GetByID(actorID)
	if err != nil {
		return err
	}

	if !actor.Active {
		return ErrUserInactive
	}

	if !actor.IsAdmin() {
		return ErrForbidden
	}

	return nil
}
