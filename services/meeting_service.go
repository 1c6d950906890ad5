package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

// InterfaceMeetingRelay 是会议服务对信令中继的依赖。
// 生命周期控制器是唯一允许改动Schedule/VideoCall记录的组件，
// 它通过该接口借用中继的扇出能力，而不自己维护房间关系
type InterfaceMeetingRelay interface {
	BroadcastSignal(roomID string, msg *models.SignalMessage)
	BroadcastMeetingEnded(roomID string)
}

// JoinMeetingResult 是企业方加入会议的结果
type JoinMeetingResult struct {
	Status    string            `json:"status"` // "waiting" 或 "connected"
	Message   string            `json:"message,omitempty"`
	VideoCall *models.VideoCall `json:"video_call"`
}

// InterfaceMeetingService 定义会议生命周期服务接口
type InterfaceMeetingService interface {
	InitializeMeeting(analystID string) (*models.VideoCall, error)
	JoinMeeting(companyID, roomID string) (*JoinMeetingResult, error)
	ValidateMeeting(roomID string) (*models.VideoCall, error)
	HandleSignal(roomID string, msg *models.SignalMessage) error
	EndMeeting(roomID string) error
}

// MeetingService 是会议生命周期控制器：校验资格、初始化通话、
// 接纳加入方、结束并清理通话。所有入口先同步校验前置条件，
// 校验失败前不产生任何副作用
type MeetingService struct {
	DB       *gorm.DB
	Config   *config.Config
	Relay    InterfaceMeetingRelay
	Cache    InterfaceRedisService
	Notifier InterfaceMQTTNotifyService
}

// NewMeetingService 创建一个新的会议服务。
// relay、cache、notifier都允许为nil（测试或降级运行）
func NewMeetingService(db *gorm.DB, cfg *config.Config, relay InterfaceMeetingRelay,
	cache InterfaceRedisService, notifier InterfaceMQTTNotifyService) InterfaceMeetingService {
	return &MeetingService{
		DB:       db,
		Config:   cfg,
		Relay:    relay,
		Cache:    cache,
		Notifier: notifier,
	}
}

// 1 InitializeMeeting 分析师启动会议。
// 这是唯一能把通话置为CONNECTED的入口：业务规则是服务提供方开始会话
func (s *MeetingService) InitializeMeeting(analystID string) (*models.VideoCall, error) {
	var user models.User
	if err := s.DB.Preload("Analyst").First(&user, "id = ?", analystID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid analyst ID or user is not an analyst", ErrInvalidRequest)
		}
		return nil, err
	}
	if !user.IsAnalyst() {
		return nil, fmt.Errorf("%w: invalid analyst ID or user is not an analyst", ErrInvalidRequest)
	}

	// 取该分析师最早的一条等待中且未过期的通话
	var call models.VideoCall
	if err := s.DB.Where("analyst_id = ? AND status = ? AND expired_at > ?",
		analystID, models.VideoCallWaiting, time.Now()).
		Order("created_at ASC").
		First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no scheduled meeting found for this time", ErrForbidden)
		}
		return nil, err
	}

	// 条件更新防止并发初始化同一通话
	result := s.DB.Model(&models.VideoCall{}).
		Where("id = ? AND status = ?", call.ID, models.VideoCallWaiting).
		Update("status", models.VideoCallConnected)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, fmt.Errorf("%w: meeting already initialized", ErrConflict)
	}

	s.invalidateCache(call.RoomID)
	s.notify("meeting-initialized", map[string]interface{}{
		"room_id":    call.RoomID,
		"analyst_id": call.AnalystID,
		"company_id": call.CompanyID,
	})
	config.Info("会议已初始化: room=%s analyst=%s", call.RoomID, analystID)

	return s.loadCall(call.ID)
}

// 2 JoinMeeting 企业方加入会议。只读观察，不推动状态机：
// 通话仍为WAITING时返回等待提示，已CONNECTED时返回完整详情
func (s *MeetingService) JoinMeeting(companyID, roomID string) (*JoinMeetingResult, error) {
	call, err := s.activeCallByRoom(roomID)
	if err != nil {
		return nil, err
	}

	var company models.User
	if err := s.DB.Preload("Company").First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: invalid company ID or user is not a company", ErrInvalidRequest)
		}
		return nil, err
	}
	if !company.IsCompany() {
		return nil, fmt.Errorf("%w: invalid company ID or user is not a company", ErrInvalidRequest)
	}

	// 所有权检查：企业只能加入自己的会议
	if call.CompanyID != companyID {
		return nil, fmt.Errorf("%w: you are not scheduled for this meeting", ErrForbidden)
	}

	if call.Status == models.VideoCallWaiting {
		return &JoinMeetingResult{
			Status:    "waiting",
			Message:   "Waiting for analyst to start the meeting",
			VideoCall: call,
		}, nil
	}

	return &JoinMeetingResult{
		Status:    "connected",
		VideoCall: call,
	}, nil
}

// 3 ValidateMeeting 只读前置校验，信令层在信任一个房间之前调用。
// 通话必须存在、未过期且处于WAITING或CONNECTED
func (s *MeetingService) ValidateMeeting(roomID string) (*models.VideoCall, error) {
	if s.Cache != nil {
		if call, err := s.Cache.GetCachedMeetingDetail(roomID); err == nil {
			if call.Status != models.VideoCallEnded && !call.Expired(time.Now()) {
				return call, nil
			}
		}
	}

	call, err := s.activeCallByRoom(roomID)
	if err != nil {
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.CacheMeetingDetail(roomID, call); err != nil {
			config.Warning("缓存会议详情失败: room=%s err=%v", roomID, err)
		}
	}
	return call, nil
}

// 4 HandleSignal 转发一条WebRTC协商消息。
// 通话必须已CONNECTED：分析师初始化会话之前的信令一律拒绝。
// 不改动任何持久化状态
func (s *MeetingService) HandleSignal(roomID string, msg *models.SignalMessage) error {
	var call models.VideoCall
	if err := s.DB.Where("room_id = ? AND status = ?", roomID, models.VideoCallConnected).
		First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: active meeting not found", ErrNotFound)
		}
		return err
	}
	if call.Expired(time.Now()) {
		return fmt.Errorf("%w: active meeting not found", ErrNotFound)
	}

	if s.Relay != nil {
		s.Relay.BroadcastSignal(roomID, msg)
	}
	return nil
}

// 5 EndMeeting 结束会议：通话置ENDED、父排期置COMPLETED，
// 两个状态写入在同一事务中提交；广播只在事务提交之后发出，
// 客户端收到meeting-ended时可以确信记录已是终态
func (s *MeetingService) EndMeeting(roomID string) error {
	var call models.VideoCall
	if err := s.DB.Where("room_id = ?", roomID).First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: active meeting not found", ErrNotFound)
		}
		return err
	}
	if call.Status == models.VideoCallEnded {
		return fmt.Errorf("%w: meeting already ended", ErrConflict)
	}
	if call.Status != models.VideoCallConnected {
		return fmt.Errorf("%w: active meeting not found", ErrNotFound)
	}
	if call.Expired(time.Now()) {
		return fmt.Errorf("%w: active meeting not found", ErrNotFound)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// 条件更新保证并发结束请求只有一个生效
		result := tx.Model(&models.VideoCall{}).
			Where("id = ? AND status = ?", call.ID, models.VideoCallConnected).
			Update("status", models.VideoCallEnded)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("%w: meeting already ended", ErrConflict)
		}

		return tx.Model(&models.Schedule{}).
			Where("id = ?", call.ScheduleID).
			Update("status", models.ScheduleCompleted).Error
	})
	if err != nil {
		return err
	}

	s.invalidateCache(roomID)
	if s.Relay != nil {
		s.Relay.BroadcastMeetingEnded(roomID)
	}
	s.notify("meeting-ended", map[string]interface{}{
		"room_id":     roomID,
		"schedule_id": call.ScheduleID,
	})
	config.Info("会议已结束: room=%s schedule=%s", roomID, call.ScheduleID)
	return nil
}

// activeCallByRoom 按房间号取处于WAITING或CONNECTED且未过期的通话，
// 过期一律按不存在处理
func (s *MeetingService) activeCallByRoom(roomID string) (*models.VideoCall, error) {
	var call models.VideoCall
	if err := s.DB.Preload("Schedule").
		Preload("Schedule.Company").Preload("Schedule.Company.Company").
		Preload("Schedule.Analyst").Preload("Schedule.Analyst.Analyst").
		Where("room_id = ? AND status IN ?", roomID,
			[]models.VideoCallStatus{models.VideoCallWaiting, models.VideoCallConnected}).
		First(&call).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: meeting not found or has ended", ErrNotFound)
		}
		return nil, err
	}
	if call.Expired(time.Now()) {
		return nil, fmt.Errorf("%w: meeting has expired", ErrNotFound)
	}
	return &call, nil
}

// loadCall 重新加载通话及其关联
func (s *MeetingService) loadCall(id string) (*models.VideoCall, error) {
	var call models.VideoCall
	if err := s.DB.Preload("Schedule").
		Preload("Schedule.Company").Preload("Schedule.Company.Company").
		Preload("Schedule.Analyst").Preload("Schedule.Analyst.Analyst").
		First(&call, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &call, nil
}

func (s *MeetingService) invalidateCache(roomID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateMeeting(roomID); err != nil {
		config.Warning("会议缓存失效失败: room=%s err=%v", roomID, err)
	}
}

func (s *MeetingService) notify(eventType string, payload map[string]interface{}) {
	if s.Notifier == nil {
		return
	}
	if err := s.Notifier.PublishMeetingEvent(eventType, payload); err != nil {
		config.Warning("发布会议事件失败: event=%s err=%v", eventType, err)
	}
}
