package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"kitrader/internal/bot"
	"kitrader/internal/service"
)

// TokenHandler отвечает за отслеживаемые токены и историю цен
//
// Endpoints:
// - POST /api/v1/tokens - добавить токен в отслеживаемые
// - GET  /api/v1/tokens/{address} - информация о токене
// - GET  /api/v1/tokens/{address}/prices?limit=100 - история цен
type TokenHandler struct {
	tokens service.TokenServiceInterface
}

// NewTokenHandler создает новый TokenHandler
func NewTokenHandler(tokens service.TokenServiceInterface) *TokenHandler {
	return &TokenHandler{tokens: tokens}
}

// TrackTokenRequest - тело запроса добавления токена
type TrackTokenRequest struct {
	ActorID int64  `json:"actor_id"`
	Address string `json:"address"`
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
}

// TrackToken добавляет токен в список отслеживаемых.
// Фоновый опросчик начнет собирать его цену со следующего цикла.
//
// POST /api/v1/tokens
func (h *TokenHandler) TrackToken(w http.ResponseWriter, r *http.Request) {
	var req TrackTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, bot.NewValidationError("body", "invalid JSON"))
		return
	}

	token, err := h.tokens.TrackToken(req.ActorID, req.Address, req.Symbol, req.Name)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, token)
}

// GetToken возвращает токен по адресу
//
// GET /api/v1/tokens/{address}
func (h *TokenHandler) GetToken(w http.ResponseWriter, r *http.Request) {
	token, err := h.tokens.GetToken(mux.Vars(r)["address"])
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, token)
}

// GetPriceHistory возвращает последние сэмплы цены токена
//
// GET /api/v1/tokens/{address}/prices?limit=100
func (h *TokenHandler) GetPriceHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	samples, err := h.tokens.GetPriceHistory(mux.Vars(r)["address"], limit)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, samples)
}
