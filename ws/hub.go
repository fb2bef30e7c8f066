package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

// Hub phát trạng thái lưu notebook cho editor đang mở (theo notebookID)
// và tín hiệu "danh sách trang công khai thay đổi" cho kênh global.
type Hub struct {
	Clients       map[string]map[*websocket.Conn]*Client // Theo từng notebookID
	GlobalClients map[*websocket.Conn]*Client            // Dành cho broadcast chung
	Mutex         sync.RWMutex
	logger        *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		Clients:       make(map[string]map[*websocket.Conn]*Client),
		GlobalClients: make(map[*websocket.Conn]*Client),
		logger:        logger,
	}
}

// Trạng thái lưu của một notebook gửi cho editor
type NotebookStatusUpdate struct {
	NotebookID string `json:"notebook_id"`
	Status     string `json:"status"`
	Slug       string `json:"slug,omitempty"`
	Error      string `json:"error,omitempty"`
}

// Register theo notebookID riêng
func (h *Hub) Register(notebookID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if _, ok := h.Clients[notebookID]; !ok {
		h.Clients[notebookID] = make(map[*websocket.Conn]*Client)
	}

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.Clients[notebookID][conn] = client

	go h.writePump(client)
}

// Register global cho trang danh sách
func (h *Hub) RegisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	h.GlobalClients[conn] = client

	go h.writePump(client)
}

// Broadcast theo notebookID
func (h *Hub) Broadcast(notebookID string, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	if clients, ok := h.Clients[notebookID]; ok {
		for _, client := range clients {
			select {
			case client.Send <- data:
			default:
			}
		}
	}
}

// Broadcast toàn bộ global clients
func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendSaveStatus gửi trạng thái lưu cho các editor đang mở notebook này.
func (h *Hub) SendSaveStatus(notebookID, status, slug, errorMsg string) {
	update := NotebookStatusUpdate{
		NotebookID: notebookID,
		Status:     status,
		Slug:       slug,
		Error:      errorMsg,
	}
	data, err := json.Marshal(update)
	if err != nil {
		h.logger.Error("marshal status update failed", slog.String("error", err.Error()))
		return
	}
	h.Broadcast(notebookID, data)
}

// BroadcastPublishedListChanged báo trang danh sách công khai cần refresh.
func (h *Hub) BroadcastPublishedListChanged() {
	h.BroadcastGlobal([]byte(`{"type": "published_list_changed"}`))
}

// Unregister client theo notebookID
func (h *Hub) Unregister(notebookID string, conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if clients, ok := h.Clients[notebookID]; ok {
		if client, ok := clients[conn]; ok {
			close(client.Send)
			delete(clients, conn)
		}
		if len(clients) == 0 {
			delete(h.Clients, notebookID)
		}
	}
}

// Unregister global client
func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

// GetStats trả số liệu kết nối cho health check.
func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	perNotebook := 0
	for _, clients := range h.Clients {
		perNotebook += len(clients)
	}
	return map[string]int{
		"notebook_clients": perNotebook,
		"global_clients":   len(h.GlobalClients),
	}
}

func (h *Hub) writePump(client *Client) {
	defer func() {
		client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
		client.Conn.Close()
	}()
	for msg := range client.Send {
		if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
