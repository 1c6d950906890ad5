package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

// 会议详情缓存有效期。状态变更的入口会主动失效缓存，
// TTL只是最后的兜底
const meetingCacheTTL = 5 * time.Minute

// 房间在场快照有效期
const presenceTTL = 24 * time.Hour

// InterfaceRedisService 定义Redis服务接口
type InterfaceRedisService interface {
	Set(key string, value interface{}, expiration time.Duration) error
	Get(key string, dest interface{}) error
	Delete(key string) error
	CacheMeetingDetail(roomID string, call *models.VideoCall) error
	GetCachedMeetingDetail(roomID string) (*models.VideoCall, error)
	InvalidateMeeting(roomID string) error
	SetRoomPresence(roomID string, userIDs []string) error
	ClearRoomPresence(roomID string) error
}

// RedisService handles Redis operations
type RedisService struct {
	Client *redis.Client
	Ctx    context.Context
}

// NewRedisService creates a new Redis service
func NewRedisService(cfg *config.Config) *RedisService {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.GetRedisAddr(),
		Password: "", // No password set
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	return &RedisService{
		Client: client,
		Ctx:    ctx,
	}
}

// Set sets a key-value pair in Redis with expiration
func (s *RedisService) Set(key string, value interface{}, expiration time.Duration) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return s.Client.Set(s.Ctx, key, jsonValue, expiration).Err()
}

// Get gets a value from Redis by key
func (s *RedisService) Get(key string, dest interface{}) error {
	val, err := s.Client.Get(s.Ctx, key).Result()
	if err != nil {
		return err
	}

	return json.Unmarshal([]byte(val), dest)
}

// Delete deletes a key from Redis
func (s *RedisService) Delete(key string) error {
	return s.Client.Del(s.Ctx, key).Err()
}

// CacheMeetingDetail 缓存房间对应的通话详情，供validate快速返回
func (s *RedisService) CacheMeetingDetail(roomID string, call *models.VideoCall) error {
	return s.Set("meeting_room:"+roomID, call, meetingCacheTTL)
}

// GetCachedMeetingDetail 从缓存获取通话详情，未命中时返回错误
func (s *RedisService) GetCachedMeetingDetail(roomID string) (*models.VideoCall, error) {
	var call models.VideoCall
	if err := s.Get("meeting_room:"+roomID, &call); err != nil {
		return nil, err
	}
	return &call, nil
}

// InvalidateMeeting 使房间对应的通话缓存失效，状态变更时调用
func (s *RedisService) InvalidateMeeting(roomID string) error {
	return s.Delete("meeting_room:" + roomID)
}

// SetRoomPresence 写入房间在场快照
func (s *RedisService) SetRoomPresence(roomID string, userIDs []string) error {
	return s.Set("room_presence:"+roomID, userIDs, presenceTTL)
}

// ClearRoomPresence 清除房间在场快照
func (s *RedisService) ClearRoomPresence(roomID string) error {
	return s.Delete("room_presence:" + roomID)
}
