package handlers

import (
	"net/http"
	"strconv"

	"kitrader/internal/service"
)

// NotificationHandler отвечает за журнал событий движка
//
// Endpoints:
// - GET /api/v1/notifications?limit=100 - последние события
// - GET /api/v1/notifications?user_id=100 - события пользователя
type NotificationHandler struct {
	notifications service.NotificationServiceInterface
}

// NewNotificationHandler создает новый NotificationHandler
func NewNotificationHandler(notifications service.NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

// GetNotifications возвращает журнал событий, новые сверху
//
// GET /api/v1/notifications
//
// Query параметры:
// - user_id (int): только события пользователя
// - limit (int): количество записей (по умолчанию 100, максимум 500)
func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))

	if userIDParam := query.Get("user_id"); userIDParam != "" {
		userID, err := strconv.ParseInt(userIDParam, 10, 64)
		if err != nil {
			respondWithJSON(w, http.StatusBadRequest, ErrorResponse{Error: "user_id must be an integer"})
			return
		}

		notifications, err := h.notifications.GetUserNotifications(userID, limit)
		if err != nil {
			respondWithError(w, err)
			return
		}

		respondWithJSON(w, http.StatusOK, notifications)
		return
	}

	notifications, err := h.notifications.GetNotifications(limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}
