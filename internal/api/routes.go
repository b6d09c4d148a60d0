package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matyusmilan/xm-forex/internal/api/handlers"
	"github.com/matyusmilan/xm-forex/internal/api/middleware"
	"github.com/matyusmilan/xm-forex/internal/service"
	"github.com/matyusmilan/xm-forex/pkg/crypto"
	"github.com/matyusmilan/xm-forex/pkg/ratelimit"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	OrderService service.OrderServiceInterface

	// WebSocket handler канала ордеров (nil - маршруты /ws не регистрируются)
	WebSocket http.Handler

	// Учетные данные для /metrics (пустые - без авторизации)
	MetricsAuth crypto.Credentials

	// Лимит размещения ордеров по адресу клиента (nil - без лимита)
	OrderRateLimiter *ratelimit.KeyedLimiter

	AllowedOrigins []string
	Logger         *utils.Logger
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Структура маршрутов:
//
//	├── /orders
//	│   ├── POST / - разместить ордер (лимит по адресу клиента)
//	│   ├── GET / - список ордеров (?offset=&limit=)
//	│   ├── GET /{id} - получить ордер
//	│   └── DELETE /{id} - отменить ордер
//	├── /health-check/ - проверка живости
//	├── /metrics - Prometheus метрики
//	└── /ws, /ws/{client_id} - WebSocket канал ордеров
//
// Middleware применяется в следующем порядке:
// 1. Recovery
// 2. Logging
// 3. Metrics
// 4. CORS
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = utils.L()
	}

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Metrics)
	router.Use(middleware.CORS(deps.AllowedOrigins))

	router.NotFoundHandler = http.HandlerFunc(handlers.NotFound)
	router.MethodNotAllowedHandler = http.HandlerFunc(handlers.MethodNotAllowed)

	// Order routes
	if deps.OrderService != nil {
		orderHandler := handlers.NewOrderHandler(deps.OrderService, logger)
		placeOrder := middleware.RateLimit(deps.OrderRateLimiter)(http.HandlerFunc(orderHandler.PlaceOrder))

		for _, path := range []string{"/orders", "/orders/"} {
			router.Handle(path, placeOrder).Methods(http.MethodPost, http.MethodOptions)
			router.HandleFunc(path, orderHandler.ListOrders).Methods(http.MethodGet)
		}
		router.HandleFunc("/orders/{id}", orderHandler.GetOrder).Methods(http.MethodGet, http.MethodOptions)
		router.HandleFunc("/orders/{id}", orderHandler.CancelOrder).Methods(http.MethodDelete)
	}

	// WebSocket routes
	if deps.WebSocket != nil {
		router.Handle("/ws", deps.WebSocket).Methods(http.MethodGet)
		router.Handle("/ws/{client_id}", deps.WebSocket).Methods(http.MethodGet)
	}

	// Health check endpoint
	router.HandleFunc("/health-check/", handlers.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/health-check", handlers.HealthCheck).Methods(http.MethodGet)

	// Prometheus metrics
	metrics := middleware.BasicAuth(deps.MetricsAuth, "metrics")(promhttp.Handler())
	router.Handle("/metrics", metrics).Methods(http.MethodGet)

	return router
}
