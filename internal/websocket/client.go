package websocket

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/matyusmilan/xm-forex/internal/models"
	"github.com/matyusmilan/xm-forex/pkg/ratelimit"
	"github.com/matyusmilan/xm-forex/pkg/utils"
)

const (
	// Время ожидания записи сообщения
	writeWait = 10 * time.Second

	// Время ожидания между pong сообщениями
	pongWait = 60 * time.Second

	// Интервал отправки ping сообщений (должен быть меньше pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Максимальный размер входящего сообщения
	maxMessageSize = 4096

	// Размер буфера отправки клиента
	clientSendBufferSize = 256
)

// OrderPlacer размещает ордер (реализуется service.OrderService)
type OrderPlacer interface {
	PlaceOrder(ctx context.Context, input models.OrderInput) (*models.Order, error)
}

// OriginChecker проверяет Origin с O(1) lookup через map
// Потокобезопасен для чтения после инициализации
type OriginChecker struct {
	allowedOrigins map[string]struct{}
	allowAll       bool
}

// NewOriginChecker создает проверку по списку разрешенных origin
//
// Пустой список или "*" разрешают все.
func NewOriginChecker(origins []string) *OriginChecker {
	checker := &OriginChecker{
		allowedOrigins: make(map[string]struct{}),
	}

	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		if origin == "*" {
			checker.allowAll = true
		}
		if origin != "" {
			checker.allowedOrigins[origin] = struct{}{}
		}
	}
	if len(checker.allowedOrigins) == 0 {
		checker.allowAll = true
	}

	return checker
}

// Check проверяет origin за O(1)
func (oc *OriginChecker) Check(origin string) bool {
	if origin == "" {
		return true // Non-browser clients (curl, API tools)
	}
	if oc.allowAll {
		return true
	}
	_, ok := oc.allowedOrigins[origin]
	return ok
}

// HandlerConfig - настройки WebSocket endpoint'а
type HandlerConfig struct {
	Greeting              string
	BroadcastOnDisconnect bool
	AllowedOrigins        []string

	// Лимит размещений на соединение в секунду (0 - без лимита).
	// Лишние сообщения не отбрасываются, а ждут токен.
	MessagesPerSecond float64

	Logger *utils.Logger
}

// Handler - HTTP handler канала ордеров
//
// Использование в routes:
// router.Handle("/ws/{client_id}", websocket.NewHandler(hub, orderService, cfg))
type Handler struct {
	hub                   *Hub
	orders                OrderPlacer
	greeting              string
	broadcastOnDisconnect bool
	messagesPerSecond     float64
	upgrader              websocket.Upgrader
	logger                *utils.Logger
}

// NewHandler создает WebSocket handler
func NewHandler(hub *Hub, orders OrderPlacer, cfg HandlerConfig) *Handler {
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if cfg.Logger == nil {
		cfg.Logger = utils.L()
	}

	checker := NewOriginChecker(cfg.AllowedOrigins)

	return &Handler{
		hub:                   hub,
		orders:                orders,
		greeting:              cfg.Greeting,
		broadcastOnDisconnect: cfg.BroadcastOnDisconnect,
		messagesPerSecond:     cfg.MessagesPerSecond,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return checker.Check(r.Header.Get("Origin"))
			},
		},
		logger: cfg.Logger.WithComponent("ws"),
	}
}

// Client представляет одно WebSocket соединение
//
// Каждый клиент имеет две горутины:
// 1. readPump - читает сообщения и размещает ордера, по одному за раз
// 2. writePump - пишет сообщения клиенту
type Client struct {
	// Идентификатор из пути или адрес клиента
	id string

	// WebSocket соединение
	conn *websocket.Conn

	// Буферизованный канал исходящих сообщений
	send chan []byte
}

// NewClient создает клиента с буфером отправки
func NewClient(id string, conn *websocket.Conn) *Client {
	return &Client{
		id:   id,
		conn: conn,
		send: make(chan []byte, clientSendBufferSize),
	}
}

// ID возвращает идентификатор клиента
func (c *Client) ID() string {
	return c.id
}

// ServeHTTP апгрейдит соединение и запускает горутины клиента
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", utils.RemoteAddr(r.RemoteAddr), utils.Err(err))
		return
	}

	clientID := mux.Vars(r)["client_id"]
	if clientID == "" {
		clientID = r.RemoteAddr
	}

	client := NewClient(clientID, conn)

	if !h.hub.Register(client, h.greeting) {
		h.logger.Warn("hub stopped, closing connection", utils.ClientID(clientID))
		conn.Close()
		return
	}

	go h.writePump(client)
	go h.readPump(client)
}

// readPump читает сообщения от клиента
//
// Каждое сообщение - JSON {"stoks": ..., "quantity": ...}. Ордера
// размещаются последовательно. Невалидное сообщение завершает соединение.
func (h *Handler) readPump(c *Client) {
	log := h.logger.WithClientID(c.id)

	defer func() {
		h.hub.Unregister(c)
		c.conn.Close()
		if h.broadcastOnDisconnect {
			h.hub.Broadcast(ClientLeftMessage(c.id))
		}
	}()

	var limiter *ratelimit.RateLimiter
	if h.messagesPerSecond > 0 {
		limiter = ratelimit.NewRateLimiter(h.messagesPerSecond, h.messagesPerSecond)
	}

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket read error", utils.Err(err))
			}
			return
		}

		input, err := models.ParseOrderInput(message)
		if err != nil {
			receivedMessages.WithLabelValues("invalid").Inc()
			log.Warn("invalid order message", utils.Err(err))
			return
		}

		if limiter != nil {
			limiter.Wait(context.Background())
		}

		// Размещение не зависит от жизни соединения
		order, err := h.orders.PlaceOrder(context.Background(), input)
		if err != nil {
			receivedMessages.WithLabelValues("failed").Inc()
			log.Error("order placement failed", utils.Err(err))
			return
		}
		receivedMessages.WithLabelValues("placed").Inc()

		h.hub.SendTo(c, OrderStatusMessage(order))
		h.hub.Broadcast(ClientSaysMessage(c.id, message))
	}
}

// writePump отправляет сообщения клиенту
//
// Читает из канала send и отправляет каждое сообщение отдельным фреймом.
// Завершается когда Hub закрывает канал.
func (h *Handler) writePump(c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub закрыл канал
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
