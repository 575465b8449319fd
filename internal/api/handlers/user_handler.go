package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"kitrader/internal/bot"
	"kitrader/internal/service"
)

// UserHandler отвечает за управление пользователями
//
// Endpoints:
// - POST   /api/v1/users - регистрация/обновление при контакте
// - GET    /api/v1/users/{id} - информация о пользователе
// - GET    /api/v1/users - список пользователей (admin)
// - PATCH  /api/v1/users/{id}/role - смена роли (admin)
// - DELETE /api/v1/users/{id} - мягкая деактивация (admin)
type UserHandler struct {
	users service.UserServiceInterface
}

// NewUserHandler создает новый UserHandler
func NewUserHandler(users service.UserServiceInterface) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterUserRequest - тело запроса регистрации
type RegisterUserRequest struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// RegisterUser регистрирует пользователя при первом контакте.
// Повторный вызов обновляет username.
//
// POST /api/v1/users
func (h *UserHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, bot.NewValidationError("body", "invalid JSON"))
		return
	}

	if req.ID <= 0 {
		respondWithError(w, bot.NewValidationError("id", "must be positive"))
		return
	}

	user, err := h.users.RegisterOrTouch(req.ID, req.Username)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// GetUser возвращает пользователя по ID
//
// GET /api/v1/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("id", "must be an integer"))
		return
	}

	user, err := h.users.GetUser(id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, user)
}

// ListUsers возвращает пользователей, новые первыми
//
// GET /api/v1/users?limit=50&offset=0
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	users, err := h.users.ListUsers(limit, offset)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, users)
}

// UpdateRoleRequest - тело запроса смены роли
type UpdateRoleRequest struct {
	ActorID int64  `json:"actor_id"`
	Role    string `json:"role"`
}

// UpdateRole меняет роль пользователя. Инициатор должен быть
// активным администратором.
//
// PATCH /api/v1/users/{id}/role
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("id", "must be an integer"))
		return
	}

	var req UpdateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, bot.NewValidationError("body", "invalid JSON"))
		return
	}

	if err := h.users.UpdateRole(req.ActorID, id, req.Role); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "Role updated"})
}

// DeactivateUser мягко отключает пользователя, сохраняя его данные
//
// DELETE /api/v1/users/{id}?actor_id=1
func (h *UserHandler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("id", "must be an integer"))
		return
	}

	actorID, err := strconv.ParseInt(r.URL.Query().Get("actor_id"), 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("actor_id", "is required"))
		return
	}

	if err := h.users.Deactivate(actorID, id); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, SuccessResponse{Message: "User deactivated"})
}
