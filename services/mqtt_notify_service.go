package services

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"topvalidation-http-service/config"
)

// 主题常量
const (
	// 会议生命周期事件主题
	TopicMeetingEvents = "meeting/events"

	// 系统消息主题
	TopicSystemMessage = "meeting/system"
)

// MQTTMessage MQTT消息基础结构
type MQTTMessage struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// InterfaceMQTTNotifyService 定义MQTT通知服务接口。
// 用于把会议生命周期事件广播给后台消费方（运营看板、通知服务等），
// 发布失败不影响业务主流程
type InterfaceMQTTNotifyService interface {
	Connect() error
	Disconnect()
	PublishMeetingEvent(eventType string, payload map[string]any) error
	PublishSystemMessage(level, message string) error
}

// MQTTNotifyService MQTT通知服务实现
type MQTTNotifyService struct {
	Config         *config.Config
	Client         mqtt.Client
	IsConnected    bool
	connectedMutex sync.RWMutex // 保护IsConnected字段的读写
	PublishMutex   sync.Mutex   // 用于保护MQTT消息发布
}

// NewMQTTNotifyService 创建一个新的MQTT通知服务
func NewMQTTNotifyService(cfg *config.Config) InterfaceMQTTNotifyService {
	service := &MQTTNotifyService{
		Config:      cfg,
		IsConnected: false,
	}

	service.setupMQTTClient()
	return service
}

// setupMQTTClient 设置MQTT客户端
func (s *MQTTNotifyService) setupMQTTClient() {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(s.Config.MQTTBrokerURL)
	// 使用唯一的客户端ID，避免同一服务多实例冲突
	opts.SetClientID(fmt.Sprintf("%s-%s", s.Config.MQTTClientID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetMaxReconnectInterval(time.Second * 30)
	opts.SetKeepAlive(time.Second * 60)
	opts.SetPingTimeout(time.Second * 10)
	opts.SetCleanSession(true)

	// 添加用户名和密码
	if s.Config.MQTTUsername != "" {
		opts.SetUsername(s.Config.MQTTUsername)
		opts.SetPassword(s.Config.MQTTPassword)
	}

	opts.SetOnConnectHandler(func(client mqtt.Client) {
		s.connectedMutex.Lock()
		s.IsConnected = true
		s.connectedMutex.Unlock()
		config.Info("[MQTT] 已连接到 %s", s.Config.MQTTBrokerURL)
	})
	opts.SetConnectionLostHandler(func(client mqtt.Client, err error) {
		s.connectedMutex.Lock()
		s.IsConnected = false
		s.connectedMutex.Unlock()
		config.Warning("[MQTT] 连接断开: %v", err)
	})

	s.Client = mqtt.NewClient(opts)
}

// Connect 连接到MQTT代理
func (s *MQTTNotifyService) Connect() error {
	if token := s.Client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("连接MQTT代理失败: %w", token.Error())
	}
	return nil
}

// Disconnect 断开与MQTT代理的连接
func (s *MQTTNotifyService) Disconnect() {
	s.connectedMutex.Lock()
	s.IsConnected = false
	s.connectedMutex.Unlock()
	s.Client.Disconnect(250)
}

// isConnected 读取当前连接状态
func (s *MQTTNotifyService) isConnected() bool {
	s.connectedMutex.RLock()
	defer s.connectedMutex.RUnlock()
	return s.IsConnected
}

// PublishMeetingEvent 发布会议生命周期事件
func (s *MQTTNotifyService) PublishMeetingEvent(eventType string, payload map[string]any) error {
	msg := MQTTMessage{
		Type:      eventType,
		Timestamp: time.Now().UnixMilli(),
		Payload:   payload,
	}
	return s.publish(TopicMeetingEvents, msg)
}

// PublishSystemMessage 发布系统消息
func (s *MQTTNotifyService) PublishSystemMessage(level, message string) error {
	msg := MQTTMessage{
		Type:      "system",
		Timestamp: time.Now().UnixMilli(),
		Payload: map[string]any{
			"level":   level,
			"message": message,
		},
	}
	return s.publish(TopicSystemMessage, msg)
}

// publish 序列化并发布一条消息，QoS等级为1
func (s *MQTTNotifyService) publish(topic string, msg MQTTMessage) error {
	if !s.isConnected() {
		return fmt.Errorf("MQTT客户端未连接")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	s.PublishMutex.Lock()
	defer s.PublishMutex.Unlock()

	token := s.Client.Publish(topic, 1, false, data)
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("发布MQTT消息失败: %w", token.Error())
	}
	return nil
}
