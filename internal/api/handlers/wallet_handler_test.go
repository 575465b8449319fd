package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

func TestWalletHandler_GetWallet(t *testing.T) {
	engine := NewMockEngine()
	handler := NewWalletHandler(engine)

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/wallets/{user_id}", handler.GetWallet).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/100", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp WalletResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != 100 {
		t.Errorf("expected user_id 100, got %d", resp.UserID)
	}
	if !resp.Balance.Equal(decimal.NewFromInt(1000)) {
		t.Errorf("expected balance 1000, got %s", resp.Balance)
	}
	if resp.Total != "1000" {
		t.Errorf("expected total 1000, got %q", resp.Total)
	}
}

func TestWalletHandler_GetWalletBadUserID(t *testing.T) {
	handler := NewWalletHandler(NewMockEngine())

	router := mux.NewRouter()
	router.HandleFunc("/api/v1/wallets/{user_id}", handler.GetWallet).Methods("GET")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/wallets/abc", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
}
