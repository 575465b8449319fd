package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"kitrader/internal/bot"
	"kitrader/internal/repository"
	"kitrader/internal/service"
)

// ErrorResponse стандартный формат ответа об ошибке для всех API endpoints
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse стандартный формат успешного ответа
type SuccessResponse struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// respondWithJSON отправляет JSON ответ
func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

// respondWithError отправляет JSON ошибку со статусом по типу ошибки
func respondWithError(w http.ResponseWriter, err error) {
	respondWithJSON(w, statusForError(err), ErrorResponse{
		Error: err.Error(),
		Code:  codeForError(err),
	})
}

// statusForError сопоставляет типизированные ошибки доменного слоя
// с HTTP статусами
func statusForError(err error) int {
	var validationErr *bot.ValidationError
	var riskErr *bot.RiskError

	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.As(err, &riskErr),
		errors.Is(err, bot.ErrPositionLimit),
		errors.Is(err, repository.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, repository.ErrPositionClosed),
		errors.Is(err, repository.ErrReleaseConflict):
		return http.StatusConflict
	case errors.Is(err, repository.ErrPositionNotFound),
		errors.Is(err, repository.ErrWalletNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTokenNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrUserInactive):
		return http.StatusForbidden
	case errors.Is(err, bot.ErrPriceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// codeForError возвращает машиночитаемый код ошибки
func codeForError(err error) string {
	var validationErr *bot.ValidationError
	var riskErr *bot.RiskError

	switch {
	case errors.As(err, &validationErr):
		return "VALIDATION_FAILED"
	case errors.As(err, &riskErr):
		return "RISK_REJECTED"
	case errors.Is(err, bot.ErrPositionLimit):
		return "POSITION_LIMIT"
	case errors.Is(err, repository.ErrInsufficientBalance):
		return "INSUFFICIENT_BALANCE"
	case errors.Is(err, repository.ErrPositionClosed):
		return "POSITION_CLOSED"
	case errors.Is(err, repository.ErrReleaseConflict):
		return "RELEASE_CONFLICT"
	case errors.Is(err, bot.ErrPriceUnavailable):
		return "PRICE_UNAVAILABLE"
	case errors.Is(err, service.ErrForbidden):
		return "FORBIDDEN"
	case errors.Is(err, service.ErrUserInactive):
		return "USER_INACTIVE"
	default:
		return ""
	}
}
