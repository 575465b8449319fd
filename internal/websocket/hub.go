package websocket

import (
	"bytes"
	"net/http"
	"sync"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"kitrader/internal/models"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Пул JSON буферов для сериализации broadcast сообщений
var jsonBufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 512))
	},
}

// Hub управляет всеми активными WebSocket соединениями.
//
// Центральный менеджер для broadcast сообщений подключенным клиентам:
// события движка, сэмплы цен, изменения кошельков и позиций уходят
// на frontend без polling.
//
// Типы сообщений:
// - notification: событие движка (OPEN, CLOSE, REJECTED, ERROR)
// - priceUpdate: свежий сэмпл цены токена
// - walletUpdate: изменение кошелька после сделки
// - positionUpdate: изменение позиции
//
// Использование:
//  1. hub := websocket.NewHub(logger)
//  2. go hub.Run()
//  3. hub.BroadcastNotification(notif)
type Hub struct {
	// Зарегистрированные клиенты
	clients map[*Client]bool

	// Broadcast канал для отправки сообщений всем клиентам
	broadcast chan []byte

	// Регистрация нового клиента
	register chan *Client

	// Отмена регистрации клиента
	unregister chan *Client

	// Сигнал остановки главного цикла
	stop     chan struct{}
	stopOnce sync.Once

	// Счетчик сообщений, отброшенных при переполнении broadcast канала
	dropped atomic.Int64

	mu     sync.RWMutex
	logger *zap.Logger
}

// NewHub создает новый Hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
		logger:     logger,
	}
}

// Run запускает главный цикл Hub.
//
// Должен запускаться в отдельной горутине: go hub.Run()
// Завершается после вызова Stop().
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client connected", zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("websocket client disconnected", zap.Int("total", total))

		case message := <-h.broadcast:
			// Копируем список клиентов под коротким RLock, отправляем без
			// блокировки, медленных удаляем отдельно под Write Lock
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			var toRemove []*Client
			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					toRemove = append(toRemove, client)
				}
			}

			if len(toRemove) > 0 {
				h.mu.Lock()
				for _, client := range toRemove {
					if _, ok := h.clients[client]; ok {
						delete(h.clients, client)
						close(client.send)
					}
				}
				total := len(h.clients)
				h.mu.Unlock()
				h.logger.Warn("removed slow websocket clients",
					zap.Int("removed", len(toRemove)),
					zap.Int("total", total))
			}

		case <-h.stop:
			return
		}
	}
}

// Stop останавливает главный цикл Hub
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stop)
	})
}

// Broadcast сериализует сообщение и отправляет его всем клиентам
func (h *Hub) Broadcast(message interface{}) {
	buf := jsonBufferPool.Get().(*bytes.Buffer)
	buf.Reset()

	if err := json.NewEncoder(buf).Encode(message); err != nil {
		h.logger.Error("failed to marshal broadcast message", zap.Error(err))
		jsonBufferPool.Put(buf)
		return
	}

	// Encode добавляет trailing newline
	data := buf.Bytes()
	if len(data) > 0 && data[len(data)-1] == '\n' {
		data = data[:len(data)-1]
	}

	// Буфер вернется в пул, данные нужно скопировать
	msgCopy := make([]byte, len(data))
	copy(msgCopy, data)
	jsonBufferPool.Put(buf)

	h.BroadcastRaw(msgCopy)
}

// BroadcastRaw отправляет уже сериализованное сообщение.
// Не блокирует вызывающего: при переполнении канала сообщение
// отбрасывается.
func (h *Hub) BroadcastRaw(data []byte) {
	select {
	case h.broadcast <- data:
	default:
		h.dropped.Add(1)
	}
}

// BroadcastNotification отправляет событие движка
func (h *Hub) BroadcastNotification(notif *models.Notification) {
	h.Broadcast(NewNotificationMessage(notif))
}

// BroadcastPriceUpdate отправляет свежий сэмпл цены токена
func (h *Hub) BroadcastPriceUpdate(token string, priceSol decimal.Decimal) {
	h.Broadcast(NewPriceUpdateMessage(token, priceSol))
}

// BroadcastWalletUpdate отправляет изменение кошелька
func (h *Hub) BroadcastWalletUpdate(wallet *models.Wallet) {
	h.Broadcast(NewWalletUpdateMessage(wallet))
}

// BroadcastPositionUpdate отправляет изменение позиции
func (h *Hub) BroadcastPositionUpdate(pos *models.Position) {
	h.Broadcast(NewPositionUpdateMessage(pos))
}

// ClientCount возвращает количество подключенных клиентов
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// DroppedMessages возвращает количество отброшенных сообщений
func (h *Hub) DroppedMessages() int64 {
	return h.dropped.Load()
}

// ServeHTTP апгрейдит HTTP соединение до WebSocket.
// Позволяет монтировать Hub напрямую в router:
//
//	router.Handle("/ws/stream", hub)
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ServeWS(h, w, r)
}
