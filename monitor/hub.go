package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"geoflow/validate"
)

// CheckEvent 推送给客户端的检查事件
type CheckEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// Client WebSocket客户端
type Client struct {
	conn *websocket.Conn
	send chan []byte
	id   string
}

// Hub WebSocket中心: 向所有连接的客户端广播检查事件
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	mu         sync.Mutex
	upgrader   websocket.Upgrader
	ctx        context.Context
	cancel     context.CancelFunc
	nextID     atomic.Int64
}

// NewHub 创建WebSocket中心
func NewHub() *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		upgrader: websocket.Upgrader{
			CheckOrigin:     func(r *http.Request) bool { return true },
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start 启动广播循环
func (h *Hub) Start() {
	defer log.Printf("monitor hub stopped")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("monitor client connected: %s (total: %d)", client.id, len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop 停止广播循环并断开所有客户端
func (h *Hub) Stop() {
	h.cancel()
}

// Publish implements validate.Publisher, broadcasting each result.
func (h *Hub) Publish(result validate.Result) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	event, err := json.Marshal(CheckEvent{
		Type:      "check_result",
		Timestamp: time.Now(),
		Data:      data,
	})
	if err != nil {
		return
	}
	select {
	case h.broadcast <- event:
	default:
		log.Printf("monitor broadcast queue is full, dropping event")
	}
}

// HandleWebSocket 处理WebSocket连接
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		conn: conn,
		send: make(chan []byte, 256),
		id:   fmt.Sprintf("client-%d", h.nextID.Add(1)),
	}
	select {
	case h.register <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump(h)
}

// writePump WebSocket写入泵
func (c *Client) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(30 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump WebSocket读取泵: 仅消费控制帧和丢弃客户端消息
func (c *Client) readPump(h *Hub) {
	defer func() {
		// After Stop nobody drains unregister.
		select {
		case h.unregister <- c:
		case <-h.ctx.Done():
		}
		c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket error: %v", err)
			}
			return
		}
	}
}

// Server 监控HTTP服务
type Server struct {
	hub  *Hub
	http *http.Server
}

// NewServer wires the hub into an HTTP server on addr.
func NewServer(addr string, hub *Hub) *Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.HandleWebSocket)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	return &Server{
		hub:  hub,
		http: &http.Server{Addr: addr, Handler: mux},
	}
}

// Start 启动监控服务(阻塞)
func (s *Server) Start() error {
	go s.hub.Start()
	return s.http.ListenAndServe()
}

// Stop 停止监控服务
func (s *Server) Stop() error {
	s.hub.Stop()
	return s.http.Close()
}
