package models

import (
	"fmt"
	"time"
)

// Роли пользователей
const (
	RoleAdmin   = "admin"
	RolePremium = "premium"
	RoleBasic   = "basic"
)

// roleRank - числовой ранг роли для сравнения привилегий.
// Сравнение строк здесь не работает ("premium" > "admin" лексикографически).
var roleRank = map[string]int{
	RoleAdmin:   3,
	RolePremium: 2,
	RoleBasic:   1,
}

// User представляет пользователя торгового бота
type User struct {
	ID        int64     `json:"id"` // Telegram user ID
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate проверяет корректность данных пользователя
func (u *User) Validate() error {
	if u.ID <= 0 {
		return fmt.Errorf("user id must be positive, got %d", u.ID)
	}
	if !IsValidRole(u.Role) {
		return fmt.Errorf("invalid role: %s", u.Role)
	}
	return nil
}

// IsValidRole проверяет, что роль известна
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// RoleRank возвращает числовой ранг роли (0 для неизвестной)
func RoleRank(role string) int {
	return roleRank[role]
}

// HasRole сообщает, не ниже ли роль пользователя требуемой
func (u *User) HasRole(required string) bool {
	return roleRank[u.Role] >= roleRank[required]
}

// IsAdmin сообщает, является ли пользователь администратором
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
