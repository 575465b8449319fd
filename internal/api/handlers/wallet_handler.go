package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"kitrader/internal/bot"
	"kitrader/internal/models"
)

// WalletProvider - доступ handlers к кошелькам
type WalletProvider interface {
	GetWallet(userID int64) (*models.Wallet, error)
}

var _ WalletProvider = (*bot.Engine)(nil)

// WalletHandler отвечает за просмотр кошельков
//
// Endpoints:
// - GET /api/v1/wallets/{user_id} - баланс и резерв пользователя
type WalletHandler struct {
	wallets WalletProvider
}

// NewWalletHandler создает новый WalletHandler
func NewWalletHandler(wallets WalletProvider) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// WalletResponse - кошелек с производным капиталом
type WalletResponse struct {
	*models.Wallet
	Total string `json:"total"`
}

// GetWallet возвращает кошелек пользователя.
// Первое обращение создает кошелек с дефолтным балансом.
//
// GET /api/v1/wallets/{user_id}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["user_id"], 10, 64)
	if err != nil {
		respondWithError(w, bot.NewValidationError("user_id", "must be an integer"))
		return
	}

	wallet, err := h.wallets.GetWallet(userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, WalletResponse{
		Wallet: wallet,
		Total:  wallet.Total().String(),
	})
}
