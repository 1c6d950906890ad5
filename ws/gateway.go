package ws

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

// 客户端到服务端的事件
const (
	EventJoinRoom  = "join-room"
	EventLeaveRoom = "leave-room"
	EventSignal    = "signal"
)

// 服务端到客户端的事件
const (
	EventRoomJoined       = "room-joined"
	EventPeerJoined       = "peer-joined"
	EventPeerLeft         = "peer-left"
	EventPeerDisconnected = "peer-disconnected"
	EventMeetingEnded     = "meeting-ended"
)

// Envelope 是websocket上所有事件的统一外层结构
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type joinRoomData struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type leaveRoomData struct {
	RoomID string `json:"room_id"`
}

type signalData struct {
	RoomID   string               `json:"room_id"`
	Signal   models.SignalMessage `json:"signal"`
	TargetID string               `json:"target_id,omitempty"`
}

// PresenceSink 接收房间在场快照，供运维侧检查。
// 写入失败只记录日志，不影响转发
type PresenceSink interface {
	SetRoomPresence(roomID string, userIDs []string) error
	ClearRoomPresence(roomID string) error
}

// Gateway 是信令中继：接收连接上的join/leave/signal事件，
// 按房间扇出给其余参与者。中继从不触碰持久化状态，
// 非法事件记录日志后丢弃
type Gateway struct {
	registry *Registry
	presence PresenceSink
	upgrader websocket.Upgrader
}

// NewGateway 创建一个新的信令网关，presence可以为nil
func NewGateway(registry *Registry, presence PresenceSink) *Gateway {
	return &Gateway{
		registry: registry,
		presence: presence,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// 跨域校验由路由层的CORS中间件负责
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Registry 返回网关使用的房间注册表
func (g *Gateway) Registry() *Registry {
	return g.registry
}

// HandleConnection 把HTTP请求升级为websocket连接并启动读写泵
func (g *Gateway) HandleConnection(c *gin.Context) {
	userID := c.GetString("userID")

	conn, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		config.Error("websocket升级失败: %v", err)
		return
	}

	client := NewClient(g, conn, userID)
	config.Info("websocket连接建立: conn=%s user=%s", client.ID, userID)

	go client.WritePump()
	go client.ReadPump()
}

// dispatch 解析事件外层并分发，未知或损坏的事件直接丢弃
func (g *Gateway) dispatch(c *Client, raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		config.Warning("无法解析websocket事件: conn=%s err=%v", c.ID, err)
		return
	}

	switch env.Event {
	case EventJoinRoom:
		g.handleJoin(c, env.Data)
	case EventLeaveRoom:
		g.handleLeave(c, env.Data)
	case EventSignal:
		g.handleSignal(c, env.Data)
	default:
		config.Warning("未知的websocket事件: conn=%s event=%s", c.ID, env.Event)
	}
}

// handleJoin 把连接加入房间并通知已有成员
func (g *Gateway) handleJoin(c *Client, data json.RawMessage) {
	var d joinRoomData
	if err := json.Unmarshal(data, &d); err != nil || d.RoomID == "" {
		config.Warning("join-room事件数据无效: conn=%s err=%v", c.ID, err)
		return
	}
	if d.UserID != "" {
		c.UserID = d.UserID
	}

	others := g.registry.Join(d.RoomID, c)
	for _, peer := range others {
		g.sendEvent(peer, EventPeerJoined, gin.H{
			"peer_id": c.ID,
			"user_id": c.UserID,
		})
	}

	// 加入确认，携带连接自身的peer_id供后续点对点信令使用
	g.sendEvent(c, EventRoomJoined, gin.H{
		"room_id": d.RoomID,
		"peer_id": c.ID,
	})

	g.syncPresence(d.RoomID)
	config.Info("连接加入房间: conn=%s room=%s user=%s", c.ID, d.RoomID, c.UserID)
}

// handleLeave 把连接移出房间并通知剩余成员
func (g *Gateway) handleLeave(c *Client, data json.RawMessage) {
	var d leaveRoomData
	if err := json.Unmarshal(data, &d); err != nil || d.RoomID == "" {
		config.Warning("leave-room事件数据无效: conn=%s err=%v", c.ID, err)
		return
	}

	removed, remaining := g.registry.Leave(d.RoomID, c)
	if !removed {
		return
	}
	for _, peer := range remaining {
		g.sendEvent(peer, EventPeerLeft, gin.H{"peer_id": c.ID})
	}

	g.syncPresence(d.RoomID)
	config.Info("连接离开房间: conn=%s room=%s", c.ID, d.RoomID)
}

// handleSignal 转发信令：指定target_id时点对点，否则广播给房间内除发送方外的所有连接
func (g *Gateway) handleSignal(c *Client, data json.RawMessage) {
	var d signalData
	if err := json.Unmarshal(data, &d); err != nil || d.RoomID == "" {
		config.Warning("signal事件数据无效: conn=%s err=%v", c.ID, err)
		return
	}
	if _, err := models.ParseSignalType(string(d.Signal.Type)); err != nil {
		config.Warning("signal事件类型无效: conn=%s type=%s", c.ID, d.Signal.Type)
		return
	}

	payload := gin.H{
		"signal": d.Signal,
		"from":   c.ID,
	}

	if d.TargetID != "" {
		target, found := g.registry.Find(d.RoomID, d.TargetID)
		if !found {
			config.Warning("signal目标连接不存在: room=%s target=%s", d.RoomID, d.TargetID)
			return
		}
		g.sendEvent(target, EventSignal, payload)
		return
	}

	for _, peer := range g.registry.Peers(d.RoomID, c) {
		g.sendEvent(peer, EventSignal, payload)
	}
}

// handleDisconnect 处理传输层断开：扫描所有房间执行与leave相同的移除逻辑
func (g *Gateway) handleDisconnect(c *Client) {
	affected := g.registry.RemoveFromAll(c)
	for roomID, remaining := range affected {
		for _, peer := range remaining {
			g.sendEvent(peer, EventPeerDisconnected, gin.H{"peer_id": c.ID})
		}
		g.syncPresence(roomID)
	}
	if len(affected) > 0 {
		config.Info("连接断开并清理房间: conn=%s rooms=%d", c.ID, len(affected))
	}
}

// BroadcastSignal 把HTTP信令接口收到的消息扇出到房间。
// msg.From非空时跳过发送方自己的连接
func (g *Gateway) BroadcastSignal(roomID string, msg *models.SignalMessage) {
	payload := gin.H{
		"signal": msg,
		"from":   msg.From,
	}
	for _, member := range g.registry.Members(roomID) {
		if msg.From != "" && member.ID == msg.From {
			continue
		}
		g.sendEvent(member, EventSignal, payload)
	}
}

// BroadcastMeetingEnded 通知房间内所有连接会议已结束，
// 由会议生命周期控制器在事务提交后调用
func (g *Gateway) BroadcastMeetingEnded(roomID string) {
	for _, member := range g.registry.Members(roomID) {
		g.sendEvent(member, EventMeetingEnded, nil)
	}
}

// sendEvent 序列化并投递一个事件
func (g *Gateway) sendEvent(c *Client, event string, payload interface{}) {
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			config.Error("序列化websocket事件失败: event=%s err=%v", event, err)
			return
		}
		data = b
	}
	msg, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		config.Error("序列化websocket事件失败: event=%s err=%v", event, err)
		return
	}
	c.trySend(msg)
}

// syncPresence 把房间在场快照写入presence sink
func (g *Gateway) syncPresence(roomID string) {
	if g.presence == nil {
		return
	}
	userIDs := g.registry.UserIDs(roomID)
	var err error
	if len(userIDs) == 0 {
		err = g.presence.ClearRoomPresence(roomID)
	} else {
		err = g.presence.SetRoomPresence(roomID, userIDs)
	}
	if err != nil {
		config.Warning("同步房间在场快照失败: room=%s err=%v", roomID, err)
	}
}
