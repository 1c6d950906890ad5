package container

import (
	"context"
	"log"
	"sync"
	"time"

	"topvalidation-http-service/config"
	"topvalidation-http-service/services"
	"topvalidation-http-service/ws"

	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// ServiceContainer 管理所有服务的依赖注入
type ServiceContainer struct {
	db     *gorm.DB
	config *config.Config
	redis  *redis.Client

	// 基础服务
	jwtService services.InterfaceJWTService

	// 数据存储服务
	redisService *services.RedisService

	// MQTT通知服务
	mqttNotifyService services.InterfaceMQTTNotifyService

	// 信令网关与房间注册表
	wsRegistry *ws.Registry
	wsGateway  *ws.Gateway

	// 业务服务
	userService     services.InterfaceUserService
	scheduleService services.InterfaceScheduleService
	meetingService  services.InterfaceMeetingService

	mu sync.RWMutex
}

// NewServiceContainer 创建新的服务容器
func NewServiceContainer(db *gorm.DB, cfg *config.Config, redisClient *redis.Client) *ServiceContainer {
	if db == nil {
		panic("数据库连接为空")
	}

	if cfg == nil {
		panic("配置为空")
	}

	// 测试Redis连接
	if redisClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Redis连接测试失败: %v，将不使用Redis缓存", err)
		}
	}

	container := &ServiceContainer{
		db:     db,
		config: cfg,
		redis:  redisClient,
	}
	container.initializeServices()
	return container
}

// initializeServices 初始化所有服务
func (c *ServiceContainer) initializeServices() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 初始化基础服务
	c.jwtService = services.NewJWTService(c.config)

	// 初始化Redis服务
	c.redisService = services.NewRedisService(c.config)

	// 初始化MQTT通知服务
	c.mqttNotifyService = services.NewMQTTNotifyService(c.config)
	if c.config.MQTTBrokerURL != "" {
		if err := c.mqttNotifyService.Connect(); err != nil {
			log.Printf("MQTT服务连接失败: %v", err)
		}
	}

	// 初始化房间注册表和信令网关，Redis服务承担在场快照存储
	c.wsRegistry = ws.NewRegistry()
	c.wsGateway = ws.NewGateway(c.wsRegistry, c.redisService)

	// 初始化业务服务
	c.userService = services.NewUserService(c.db, c.config)
	c.scheduleService = services.NewScheduleService(c.db, c.config)
	c.meetingService = services.NewMeetingService(
		c.db, c.config, c.wsGateway, c.redisService, c.mqttNotifyService)
}

// GetService 获取指定名称的服务
func (c *ServiceContainer) GetService(name string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch name {
	case "config":
		return c.config
	case "db":
		return c.db
	case "jwt":
		return c.jwtService
	case "redis":
		return c.redisService
	case "mqtt_notify":
		return c.mqttNotifyService
	case "ws_registry":
		return c.wsRegistry
	case "ws_gateway":
		return c.wsGateway
	case "user":
		return c.userService
	case "schedule":
		return c.scheduleService
	case "meeting":
		return c.meetingService
	default:
		return nil
	}
}

// GetDB 获取数据库连接
func (c *ServiceContainer) GetDB() *gorm.DB {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.db
}

// GetConfig 获取配置
func (c *ServiceContainer) GetConfig() *config.Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.config
}

// GetJWTService 获取JWT服务
func (c *ServiceContainer) GetJWTService() services.InterfaceJWTService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jwtService
}

// GetUserService 获取用户服务
func (c *ServiceContainer) GetUserService() services.InterfaceUserService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userService
}

// GetScheduleService 获取排期服务
func (c *ServiceContainer) GetScheduleService() services.InterfaceScheduleService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.scheduleService
}

// GetMeetingService 获取会议服务
func (c *ServiceContainer) GetMeetingService() services.InterfaceMeetingService {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meetingService
}

// GetWSGateway 获取信令网关
func (c *ServiceContainer) GetWSGateway() *ws.Gateway {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.wsGateway
}
