package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"kitrader/internal/api/handlers"
	"kitrader/internal/api/middleware"
	"kitrader/internal/bot"
	"kitrader/internal/service"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	Engine              *bot.Engine
	UserService         service.UserServiceInterface
	TokenService        service.TokenServiceInterface
	NotificationService service.NotificationServiceInterface

	// WSHandler обслуживает /ws/stream (websocket.Hub)
	WSHandler http.Handler

	// AdminTokenHash - bcrypt-хеш токена административных маршрутов
	AdminTokenHash string

	Logger *zap.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /positions
//	│   ├── POST / - открыть позицию
//	│   ├── GET  / - список позиций пользователя
//	│   ├── POST /{id}/close - закрыть позицию
//	│   └── GET  /{id}/history - позиция + журнал сделок
//	├── /risk/check - POST, сухая проверка риска
//	├── /wallets/{user_id} - GET, кошелек
//	├── /tokens
//	│   ├── POST / - добавить отслеживаемый токен
//	│   ├── GET  /{address} - информация о токене
//	│   └── GET  /{address}/prices - история цен
//	├── /notifications - GET, журнал событий
//	└── /admin/ (Bearer-токен, bcrypt)
//	    ├── GET    /users - список пользователей
//	    ├── PATCH  /users/{id}/role - смена роли
//	    └── DELETE /users/{id} - деактивация
//
// /users - POST регистрация, GET /{id}
// /ws/stream - WebSocket real-time обновлений
// /metrics - Prometheus
// /health - проверка живости
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.CORS)

	tradingHandler := handlers.NewTradingHandler(deps.Engine, deps.UserService)
	walletHandler := handlers.NewWalletHandler(deps.Engine)
	userHandler := handlers.NewUserHandler(deps.UserService)
	tokenHandler := handlers.NewTokenHandler(deps.TokenService)
	notificationHandler := handlers.NewNotificationHandler(deps.NotificationService)

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Trading routes
	api.HandleFunc("/positions", tradingHandler.OpenPosition).Methods("POST")
	api.HandleFunc("/positions", tradingHandler.GetPositions).Methods("GET")
	api.HandleFunc("/positions/{id}/close", tradingHandler.ClosePosition).Methods("POST")
	api.HandleFunc("/positions/{id}/history", tradingHandler.GetPositionHistory).Methods("GET")
	api.HandleFunc("/risk/check", tradingHandler.CheckRisk).Methods("POST")

	// Wallet routes
	api.HandleFunc("/wallets/{user_id}", walletHandler.GetWallet).Methods("GET")

	// Token routes
	api.HandleFunc("/tokens", tokenHandler.TrackToken).Methods("POST")
	api.HandleFunc("/tokens/{address}", tokenHandler.GetToken).Methods("GET")
	api.HandleFunc("/tokens/{address}/prices", tokenHandler.GetPriceHistory).Methods("GET")

	// Notification routes
	api.HandleFunc("/notifications", notificationHandler.GetNotifications).Methods("GET")

	// User routes (регистрация и просмотр открыты для бот-бэкенда)
	api.HandleFunc("/users", userHandler.RegisterUser).Methods("POST")
	api.HandleFunc("/users/{id:[0-9]+}", userHandler.GetUser).Methods("GET")

	// Admin routes за Bearer-токеном
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.AdminAuth(deps.AdminTokenHash))
	admin.HandleFunc("/users", userHandler.ListUsers).Methods("GET")
	admin.HandleFunc("/users/{id:[0-9]+}/role", userHandler.UpdateRole).Methods("PATCH")
	admin.HandleFunc("/users/{id:[0-9]+}", userHandler.DeactivateUser).Methods("DELETE")

	// WebSocket route
	if deps.WSHandler != nil {
		router.Handle("/ws/stream", deps.WSHandler)
	}

	// Prometheus metrics
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	return router
}
