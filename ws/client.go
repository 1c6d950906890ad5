package ws

import (
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"topvalidation-http-service/config"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 256
)

// Client 表示一条已升级的websocket连接，
// 单一写泵保证同一发送方的消息按发送顺序投递
type Client struct {
	ID      string // 连接ID，也是对端可见的peerId
	UserID  string // 打开此连接的用户
	gateway *Gateway
	conn    *websocket.Conn
	send    chan []byte
}

// NewClient 创建一个新的连接包装
func NewClient(gateway *Gateway, conn *websocket.Conn, userID string) *Client {
	return &Client{
		ID:      uuid.NewString(),
		UserID:  userID,
		gateway: gateway,
		conn:    conn,
		send:    make(chan []byte, sendBuffer),
	}
}

// ReadPump 持续读取连接上的事件并交给网关分发。
// 连接断开时触发全房间清理
func (c *Client) ReadPump() {
	defer func() {
		c.gateway.handleDisconnect(c)
		c.conn.Close()
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				config.Error("websocket读取错误: conn=%s err=%v", c.ID, err)
			}
			break
		}
		c.gateway.dispatch(c, message)
	}
}

// WritePump 把send通道中的消息写到连接，并定期发送心跳
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				config.Error("websocket写入错误: conn=%s err=%v", c.ID, err)
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

// trySend 非阻塞投递，慢连接直接丢弃消息而不是拖住整个房间的扇出
func (c *Client) trySend(msg []byte) {
	select {
	case c.send <- msg:
	default:
		config.Warning("websocket发送缓冲已满，丢弃消息: conn=%s", c.ID)
	}
}
