package websocket

import (
	"sync"
	"sync/atomic"

	"github.com/matyusmilan/xm-forex/pkg/utils"
)

// directMessage - сообщение одному клиенту
type directMessage struct {
	client  *Client
	payload []byte
}

// registration - новый клиент и его приветствие
type registration struct {
	client   *Client
	greeting []byte
}

// Hub управляет всеми активными WebSocket соединениями
//
// Назначение:
// Реестр подключенных клиентов ордерного канала. Через него клиенту
// отправляется ответ о статусе ордера, а всем клиентам - broadcast.
//
// Состоянием владеет одна горутина (Run). Остальные горутины
// общаются с ней только через каналы, поэтому mutex на clients не нужен.
//
// Гарантии:
// - Broadcast обходит клиентов в порядке регистрации
// - Приветствие - первое сообщение клиента
// - Сообщения от одного отправителя доставляются в порядке отправки
// - Клиент с переполненным буфером отключается, рассылка продолжается
// - Unregister идемпотентен
//
// Использование:
// 1. Создать hub: hub := NewHub(logger)
// 2. Запустить в горутине: go hub.Run()
// 3. Остановить: hub.Stop()
type Hub struct {
	// Зарегистрированные клиенты в порядке регистрации (только горутина Run)
	clients []*Client

	// Broadcast канал для отправки сообщений всем клиентам.
	// Без буфера: Broadcast возвращается, когда рассылка уже разложена по клиентам
	broadcast chan []byte

	// Сообщение одному клиенту
	direct chan directMessage

	// Регистрация нового клиента
	register chan registration

	// Отмена регистрации клиента
	unregister chan *Client

	done     chan struct{}
	stopOnce sync.Once

	clientCount    atomic.Int64
	droppedClients atomic.Int64

	logger *utils.Logger
}

// NewHub создает новый Hub
func NewHub(logger *utils.Logger) *Hub {
	if logger == nil {
		logger = utils.L()
	}
	return &Hub{
		clients:    make([]*Client, 0),
		broadcast:  make(chan []byte),
		direct:     make(chan directMessage),
		register:   make(chan registration),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		logger:     logger.WithComponent("ws_hub"),
	}
}

// Run запускает главный цикл Hub
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Возвращает управление после Stop, закрыв каналы всех клиентов.
func (h *Hub) Run() {
	for {
		select {
		case reg := <-h.register:
			client := reg.client
			h.clients = append(h.clients, client)
			if reg.greeting != nil {
				// Буфер нового клиента пуст
				h.deliver(client, reg.greeting)
			}
			h.setCount()
			h.logger.Info("client connected", utils.ClientID(client.id), utils.Clients(len(h.clients)))

		case client := <-h.unregister:
			if h.remove(client) {
				h.logger.Info("client disconnected", utils.ClientID(client.id), utils.Clients(len(h.clients)))
			}

		case msg := <-h.direct:
			if h.indexOf(msg.client) < 0 {
				continue
			}
			if !h.deliver(msg.client, msg.payload) {
				h.drop(msg.client)
			}

		case message := <-h.broadcast:
			var slow []*Client
			for _, client := range h.clients {
				if !h.deliver(client, message) {
					slow = append(slow, client)
				}
			}
			for _, client := range slow {
				h.drop(client)
			}

		case <-h.done:
			for _, client := range h.clients {
				close(client.send)
			}
			h.clients = nil
			h.setCount()
			return
		}
	}
}

// Stop останавливает цикл Hub. Повторный вызов безопасен.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

// Register добавляет клиента в конец реестра
//
// Непустое приветствие кладется в буфер клиента до любой рассылки.
// Возвращает false, если hub остановлен: клиент не зарегистрирован.
func (h *Hub) Register(c *Client, greeting string) bool {
	reg := registration{client: c}
	if greeting != "" {
		reg.greeting = []byte(greeting)
	}
	select {
	case h.register <- reg:
		return true
	case <-h.done:
		return false
	}
}

// Unregister удаляет клиента и закрывает его канал отправки
//
// Для уже удаленного клиента ничего не делает.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendTo отправляет текст одному клиенту
func (h *Hub) SendTo(c *Client, text string) {
	select {
	case h.direct <- directMessage{client: c, payload: []byte(text)}:
	case <-h.done:
	}
}

// Broadcast отправляет текст всем подключенным клиентам
func (h *Hub) Broadcast(text string) {
	select {
	case h.broadcast <- []byte(text):
	case <-h.done:
	}
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	return int(h.clientCount.Load())
}

// DroppedClients возвращает количество клиентов, отключенных из-за переполнения буфера
func (h *Hub) DroppedClients() int64 {
	return h.droppedClients.Load()
}

// deliver кладет сообщение в буфер клиента без блокировки
func (h *Hub) deliver(c *Client, payload []byte) bool {
	select {
	case c.send <- payload:
		return true
	default:
		return false
	}
}

// drop отключает клиента, который не успевает читать сообщения
func (h *Hub) drop(c *Client) {
	if !h.remove(c) {
		return
	}
	h.droppedClients.Add(1)
	droppedClients.Inc()
	h.logger.Warn("slow client dropped", utils.ClientID(c.id), utils.Clients(len(h.clients)))
}

func (h *Hub) remove(c *Client) bool {
	i := h.indexOf(c)
	if i < 0 {
		return false
	}
	h.clients = append(h.clients[:i], h.clients[i+1:]...)
	close(c.send)
	h.setCount()
	return true
}

func (h *Hub) indexOf(c *Client) int {
	for i, client := range h.clients {
		if client == c {
			return i
		}
	}
	return -1
}

func (h *Hub) setCount() {
	h.clientCount.Store(int64(len(h.clients)))
	connectedClients.Set(float64(len(h.clients)))
}
