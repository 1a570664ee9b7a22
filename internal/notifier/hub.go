package notifier

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/huoyun-next/internal/constants"
	"github.com/huoyun-next/internal/logger"

	"github.com/gorilla/websocket"
)

// Hub 管理全部 WebSocket 连接，按 role:id 归组，同一身份允许多条连接。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

// NewHub 创建连接管理器
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func clientKey(role string, id uint) string {
	return fmt.Sprintf("%s:%d", role, id)
}

// Run 阻塞直到 ctx 结束，然后关闭全部连接。
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.mu.Lock()
	for _, group := range h.clients {
		for client := range group {
			client.shutdown()
		}
	}
	h.clients = make(map[string]map[*Client]struct{})
	h.mu.Unlock()
}

// Register 接入一条升级完成的连接并启动读写泵
func (h *Hub) Register(role string, id uint, conn *websocket.Conn) *Client {
	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan Event, sendBufferSize),
		done: make(chan struct{}),
		role: role,
		id:   id,
		key:  clientKey(role, id),
	}

	h.mu.Lock()
	if _, ok := h.clients[client.key]; !ok {
		h.clients[client.key] = make(map[*Client]struct{})
	}
	h.clients[client.key][client] = struct{}{}
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	logger.Debugw("notifier_client_connected", "key", client.key)
	return client
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if group, ok := h.clients[client.key]; ok {
		if _, exists := group[client]; exists {
			delete(group, client)
			if len(group) == 0 {
				delete(h.clients, client.key)
			}
			logger.Debugw("notifier_client_disconnected", "key", client.key)
		}
	}
	h.mu.Unlock()
	client.shutdown()
}

func (h *Hub) sendToKey(key string, event Event) {
	h.mu.RLock()
	group := h.clients[key]
	targets := make([]*Client, 0, len(group))
	for client := range group {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.offer(event)
	}
}

// SendToUser 发送消息给货主的全部连接
func (h *Hub) SendToUser(userID uint, event Event) {
	h.sendToKey(clientKey(constants.RoleUser, userID), event)
}

// SendToTransporter 发送消息给承运人的全部连接
func (h *Hub) SendToTransporter(transporterID uint, event Event) {
	h.sendToKey(clientKey(constants.RoleTransporter, transporterID), event)
}

// BroadcastTransporters 广播消息给全部在线承运人连接
func (h *Hub) BroadcastTransporters(event Event) {
	prefix := constants.RoleTransporter + ":"

	h.mu.RLock()
	var targets []*Client
	for key, group := range h.clients {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		for client := range group {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		client.offer(event)
	}
}

// ClientCount 当前连接总数
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	count := 0
	for _, group := range h.clients {
		count += len(group)
	}
	return count
}
