package notifier

import (
	"sync"
	"time"

	"github.com/huoyun-next/internal/logger"

	"github.com/gorilla/websocket"
)

const (
	// sendBufferSize 单连接发送缓冲上限，写满即丢弃该条消息。
	sendBufferSize = 32

	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
)

// Client 单条 WebSocket 连接
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan Event
	done chan struct{}
	role string
	id   uint
	key  string

	closeOnce sync.Once
}

// offer 非阻塞投递；慢消费方不会阻塞调用侧，缓冲满时丢弃并记录。
func (c *Client) offer(event Event) {
	select {
	case <-c.done:
	case c.send <- event:
	default:
		logger.Warnw("notifier_client_buffer_full", "key", c.key, "event", event.Event)
	}
}

// shutdown 幂等关闭连接，读写泵随之退出。
func (c *Client) shutdown() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.hub.remove(c)
	}()
	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case event := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(event); err != nil {
				logger.Debugw("notifier_write_failed", "key", c.key, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) readPump() {
	defer c.hub.remove(c)
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	// 入站消息只用于维持心跳，内容全部丢弃。
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
