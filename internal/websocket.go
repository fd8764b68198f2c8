package internal

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// 系統設計問題：
//   如何把「事件通道」抽象提供給遊戲核心：每條連線可定址、
//   房間群組可廣播、斷線要通知？
//
// 核心挑戰：
//   1. 連線身份：每條連線一個傳輸層指派的唯一 ID
//   2. 群組管理：連線可加入多個廣播群組，斷線時全部退出
//   3. 心跳機制：Ping/Pong 檢測死連接（54s/60s），死連接走同一條斷線清理路徑
//   4. 廣播順序：同一個事件處理內的多次廣播必須依發送順序送達
//
// 設計方案：
//   ✅ Hub 模式 - 集中管理連線與群組（讀寫鎖保護）
//   ✅ 緩衝 channel - 每條連線一個發送隊列，fire-and-forget
//   ✅ 發送前序列化 - 負載在處理器執行內編碼完成，順序自然保住

// EventHandler 傳輸層對核心的回呼：入站事件與斷線通知
type EventHandler interface {
	Dispatch(connID string, message []byte)
	Disconnect(connID string)
}

// Hub WebSocket 連線中心，實作 Sender
type Hub struct {
	handler  EventHandler
	logger   *slog.Logger
	upgrader websocket.Upgrader

	mu     sync.RWMutex
	conns  map[string]*Connection            // connID -> Connection
	groups map[string]map[string]*Connection // group -> connID -> Connection
}

// Connection 單一 WebSocket 連線
type Connection struct {
	ID        string
	Conn      *websocket.Conn
	Send      chan []byte
	hub       *Hub
	groups    map[string]struct{}
	closeOnce sync.Once // 確保 channel 只關閉一次
}

// NewHub 建立 Hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// 在生產環境應該檢查來源
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		conns:  make(map[string]*Connection),
		groups: make(map[string]map[string]*Connection),
	}
}

// Bind 繫結事件處理器（Hub 與 Router 互相依賴，建構後繫結）
func (h *Hub) Bind(handler EventHandler) {
	h.handler = handler
}

// ServeWS 處理 WebSocket 連接，連線 ID 由傳輸層在升級時指派
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("升級 WebSocket 失敗", "error", err)
		return
	}

	connection := &Connection{
		ID:     uuid.New().String(),
		Conn:   conn,
		Send:   make(chan []byte, 256),
		hub:    h,
		groups: make(map[string]struct{}),
	}

	h.register(connection)

	go connection.writePump()
	go connection.readPump()

	h.logger.Info("WebSocket 連接建立", "conn_id", connection.ID)
}

// To 單播給特定連線
func (h *Hub) To(connID, event string, payload any) {
	data := h.encode(event, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	conn := h.conns[connID]
	h.mu.RUnlock()

	if conn != nil {
		conn.enqueue(data)
	}
}

// Broadcast 廣播給群組內所有連線
//
// fire-and-forget：負載在這裡編碼完成後進入各連線的發送隊列，
// 不等待送達確認；隊列保證同一來源的訊息依發送順序送出。
func (h *Hub) Broadcast(group, event string, payload any) {
	data := h.encode(event, payload)
	if data == nil {
		return
	}

	h.mu.RLock()
	members := make([]*Connection, 0, len(h.groups[group]))
	for _, conn := range h.groups[group] {
		members = append(members, conn)
	}
	h.mu.RUnlock()

	for _, conn := range members {
		conn.enqueue(data)
	}
}

// Join 把連線加入廣播群組
func (h *Hub) Join(group, connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.conns[connID]
	if !ok {
		return
	}

	if h.groups[group] == nil {
		h.groups[group] = make(map[string]*Connection)
	}
	h.groups[group][connID] = conn
	conn.groups[group] = struct{}{}
}

// ConnectionCount 目前連線數（統計用）
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Stop 關閉所有連線
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.conns {
		conn.closeOnce.Do(func() {
			close(conn.Send)
		})
		conn.Conn.Close()
	}
	h.conns = make(map[string]*Connection)
	h.groups = make(map[string]map[string]*Connection)

	h.logger.Info("WebSocket Hub 已停止")
}

// register 註冊連線
func (h *Hub) register(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// 關閉舊連接（UUID 理論上不會重複，保險處理）
	if oldConn, exists := h.conns[conn.ID]; exists {
		oldConn.closeOnce.Do(func() {
			close(oldConn.Send)
		})
		oldConn.Conn.Close()
	}

	h.conns[conn.ID] = conn
}

// unregister 取消註冊：移出所有群組並關閉發送隊列
func (h *Hub) unregister(conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if actual, exists := h.conns[conn.ID]; !exists || actual != conn {
		return
	}
	delete(h.conns, conn.ID)

	for group := range conn.groups {
		if members, ok := h.groups[group]; ok {
			delete(members, conn.ID)
			if len(members) == 0 {
				delete(h.groups, group)
			}
		}
	}

	conn.closeOnce.Do(func() {
		close(conn.Send)
	})
}

// encode 編碼出站信封
func (h *Hub) encode(event string, payload any) []byte {
	data, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data"`
	}{Event: event, Data: payload})
	if err != nil {
		h.logger.Error("序列化事件失敗", "event", event, "error", err)
		return nil
	}
	return data
}

// enqueue 進入發送隊列，隊列滿了就丟棄（避免慢客戶端拖累整個房間）
func (c *Connection) enqueue(data []byte) {
	select {
	case c.Send <- data:
	default:
		c.hub.logger.Warn("連線緩衝區已滿，訊息丟棄", "conn_id", c.ID)
	}
}

// readPump 讀取客戶端消息
//
// 心跳機制（讀取端）：60 秒內沒有任何消息（包括 Pong）就關閉連接，
// 配合 writePump 的 54 秒 Ping 留 6 秒余量。
// 連線結束時先取消註冊（之後的廣播不再包含本連線），再通知核心做斷線清理。
func (c *Connection) readPump() {
	defer func() {
		c.hub.unregister(c)
		if c.hub.handler != nil {
			c.hub.handler.Disconnect(c.ID)
		}
		c.Conn.Close()
		c.hub.logger.Info("WebSocket 連接關閉", "conn_id", c.ID)
	}()

	if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.hub.logger.Error("設置讀取期限失敗", "error", err)
	}

	c.Conn.SetPongHandler(func(string) error {
		if err := c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
			c.hub.logger.Error("設置讀取期限失敗", "error", err)
		}
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Error("WebSocket 讀取錯誤", "error", err, "conn_id", c.ID)
			}
			break
		}

		if messageType == websocket.TextMessage && c.hub.handler != nil {
			c.hub.handler.Dispatch(c.ID, message)
		}
	}
}

// writePump 寫入消息到客戶端
//
// 心跳機制（發送端）：54 秒 Ping 避開常見的 60 秒代理超時。
// 發送隊列有積壓時批量送出。
func (c *Connection) writePump() {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if !ok {
				// Hub 關閉了通道，優雅關閉連接
				deadline := time.Now().Add(time.Second)
				if err := c.Conn.SetWriteDeadline(deadline); err == nil {
					_ = c.Conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				}
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

			// 批量發送隊列中的消息
			n := len(c.Send)
			for i := 0; i < n; i++ {
				if err := c.Conn.WriteMessage(websocket.TextMessage, <-c.Send); err != nil {
					c.hub.logger.Error("發送消息失敗", "error", err)
					return
				}
			}

		case <-ticker.C:
			if err := c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.hub.logger.Error("設置寫入期限失敗", "error", err)
			}
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
