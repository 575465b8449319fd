package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"kitrader/internal/bot"
	"kitrader/internal/models"
	"kitrader/internal/service"
)

// TradingEngine - интерфейс торгового движка для handlers
type TradingEngine interface {
	OpenPosition(ctx context.Context, userID int64, token, posType string, size decimal.Decimal) (*models.Position, error)
	ClosePosition(ctx context.Context, positionID int64) (*models.Position, error)
	ListPositions(userID int64, status string, limit, offset int) ([]*models.Position, error)
	GetPositionHistory(positionID int64, includeSamples bool) (*bot.PositionHistory, error)
	ValidateRisk(userID int64, token, posType string, size decimal.Decimal) (bool, string, error)
}

var _ TradingEngine = (*bot.Engine)(nil)

// TradingHandler отвечает за операции с позициями
//
// Endpoints:
// - POST /api/v1/positions - открыть позицию
// - POST /api/v1/positions/{id}/close - закрыть позицию
// - GET  /api/v1/positions?user_id=&status=&limit=&offset= - список позиций
// - GET  /api/v1/positions/{id}/history?samples=true - история позиции
// - POST /api/v1/risk/check - сухая проверка риска
type TradingHandler struct {
	engine TradingEngine
	users  service.UserServiceInterface
}

// NewTradingHandler создает новый TradingHandler
func NewTradingHandler(engine TradingEngine, users service.UserServiceInterface) *TradingHandler {
	return &TradingHandler{
		engine: engine,
		users:  users,
	}
}

// OpenPositionRequest - тело запроса открытия позиции
type OpenPositionRequest struct {
	UserID   int64           `json:"user_id"`
	Username string          `json:"username,omitempty"`
	Token    string          `json:"token"`
	Type     string          `json:"type"`
	Size     decimal.Decimal `json:"size"`
}

// OpenPosition открывает бумажную позицию
//
// POST /api/v1/positions
//
// HTTP коды:
// - 201 Created: позиция открыта
// - 400 Bad Request: некорректные параметры
// - 403 Forbidden: пользователь деактивирован
// - 422 Unprocessable Entity: отказ риска или недостаток средств
// - 503 Service Unavailable: цена недоступна
func (h *TradingHandler) OpenPosition(w http.ResponseWriter, r *http.Request) {
	var req OpenPositionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, bot.NewValidationError("body", "invalid JSON"))
		return
	}

	// Ленивая регистрация: первый контакт создает пользователя
	user, err := h.users.RegisterOrTouch(req.UserID, req.Username)
	if err != nil {
		respondWithError(w, err)
		return
	}
	if !user.Active {
		respondWithError(w, service.ErrUserInactive)
		return
	}

	pos, err := h.engine.OpenPosition(r.Context(), req.UserID, req.Token, req.Type, req.Size)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, pos)
}

// ClosePosition закрывает позицию по текущей цене
//
// POST /api/v1/positions/{id}/close
//
// HTTP коды:
// - 200 OK: позиция закрыта, в ответе реализованный PNL
// - 404 Not Found: позиция не существует
// - 409 Conflict: позиция уже закрыта
// - 503 Service Unavailable: цена недоступна
func (h *TradingHandler) ClosePosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("id", "must be an integer"))
		return
	}

	pos, err := h.engine.ClosePosition(r.Context(), id)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, pos)
}

// ListPositionsResponse - ответ списка позиций
type ListPositionsResponse struct {
	Positions []*models.Position `json:"positions"`
	Total     int                `json:"total"`
}

// GetPositions возвращает позиции пользователя
//
// GET /api/v1/positions?user_id=100&status=open&limit=50&offset=0
//
// Открытые позиции содержат текущую цену и нереализованный PNL,
// если по токену есть свежие сэмплы.
func (h *TradingHandler) GetPositions(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	userID, err := strconv.ParseInt(query.Get("user_id"), 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("user_id", "is required"))
		return
	}

	status := query.Get("status")
	if status != "" && status != models.PositionStatusOpen && status != models.PositionStatusClosed {
		respondWithError(w, bot.NewValidationError("status", "must be open or closed"))
		return
	}

	limit, _ := strconv.Atoi(query.Get("limit"))
	offset, _ := strconv.Atoi(query.Get("offset"))

	positions, err := h.engine.ListPositions(userID, status, limit, offset)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, ListPositionsResponse{
		Positions: positions,
		Total:     len(positions),
	})
}

// GetPositionHistory возвращает позицию с журналом сделок
//
// GET /api/v1/positions/{id}/history?samples=true
//
// samples=true добавляет сэмплы цены от открытия до закрытия.
func (h *TradingHandler) GetPositionHistory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("id", "must be an integer"))
		return
	}

	includeSamples := r.URL.Query().Get("samples") == "true"

	hist, err := h.engine.GetPositionHistory(id, includeSamples)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, hist)
}

// RiskCheckRequest - тело запроса проверки риска
type RiskCheckRequest struct {
	UserID int64           `json:"user_id"`
	Token  string          `json:"token"`
	Type   string          `json:"type"`
	Size   decimal.Decimal `json:"size"`
}

// RiskCheckResponse - результат проверки риска
type RiskCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CheckRisk выполняет проверку риска без открытия позиции
//
// POST /api/v1/risk/check
func (h *TradingHandler) CheckRisk(w http.ResponseWriter, r *http.Request) {
	var req RiskCheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, bot.NewValidationError("body", "invalid JSON"))
		return
	}

	allowed, reason, err := h.engine.ValidateRisk(req.UserID, req.Token, req.Type, req.Size)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, RiskCheckResponse{
		Allowed: allowed,
		Reason:  reason,
	})
}
