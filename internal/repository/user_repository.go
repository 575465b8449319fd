package repository

import (
	"database/sql"
	"errors"

	"kitrader/internal/models"
)

// Ошибки репозитория пользователей
var (
	ErrUserNotFound = errors.New("user not found")
)

// UserRepository - работа с таблицей users
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository создает новый экземпляр репозитория
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetByID возвращает пользователя по Telegram ID
func (r *UserRepository) GetByID(id int64) (*models.User, error) {
	query := `
		SELECT id, username, role, active, created_at, updated_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := r.db.QueryRow(query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// Upsert регистрирует пользователя при первом контакте.
// Повторный вызов обновляет только username: роль и статус активности
// не трогаются, деактивация снимается отдельной административной операцией.
func (r *UserRepository) Upsert(user *models.User) error {
	query := `
		INSERT INTO users (id, username, role, active, created_at, updated_at)
		VALUES ($1, $2, $3, true, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username, updated_at = NOW()
		RETURNING role, active, created_at, updated_at`

	return r.db.QueryRow(query, user.ID, user.Username, user.Role).Scan(
		&user.Role,
		&user.Active,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

// UpdateRole меняет роль пользователя
func (r *UserRepository) UpdateRole(id int64, role string) error {
	query := `
		UPDATE users
		SET role = $2, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.Exec(query, id, role)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// Deactivate выполняет мягкое отключение пользователя.
// Данные (кошелек, позиции, журнал) при этом сохраняются.
func (r *UserRepository) Deactivate(id int64) error {
	query := `
		UPDATE users
		SET active = false, updated_at = NOW()
		WHERE id = $1 AND active = true`

	result, err := r.db.Exec(query, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrUserNotFound
	}

	return nil
}

// List возвращает пользователей, новые первыми
func (r *UserRepository) List(limit, offset int) ([]*models.User, error) {
	query := `
		SELECT id, username, role, active, created_at, updated_at
		FROM users
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	rows, err := r.db.Query(query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Role,
			&user.Active,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// CountActive возвращает количество активных пользователей
func (r *UserRepository) CountActive() (int, error) {
	query := `SELECT COUNT(*) FROM users WHERE active = true`

	var count int
	err := r.db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
