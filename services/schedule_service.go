package services

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"topvalidation-http-service/config"
	"topvalidation-http-service/models"
)

// InterfaceScheduleService 定义排期服务接口
type InterfaceScheduleService interface {
	CreateSchedule(companyID string, date time.Time, startTime, endTime string) (*models.Schedule, error)
	UpdateScheduleStatus(scheduleID, analystID string, status models.ScheduleStatus) (*models.Schedule, error)
	GetAvailableSchedules() ([]models.Schedule, error)
	GetAnalystSchedules(analystID string) ([]models.Schedule, error)
	GetCompanySchedules(companyID string) ([]models.Schedule, error)
	GetClosestSchedule(analystID string) (*models.Schedule, error)
	GetAllSchedules(page, pageSize int) ([]models.Schedule, int64, error)
	DeleteSchedule(scheduleID string) error
}

// ScheduleService 提供咨询排期相关的服务
type ScheduleService struct {
	DB     *gorm.DB
	Config *config.Config
}

// NewScheduleService 创建一个新的排期服务
func NewScheduleService(db *gorm.DB, cfg *config.Config) InterfaceScheduleService {
	return &ScheduleService{
		DB:     db,
		Config: cfg,
	}
}

// 1 CreateSchedule 企业创建一个新的咨询排期
func (s *ScheduleService) CreateSchedule(companyID string, date time.Time, startTime, endTime string) (*models.Schedule, error) {
	// 校验企业用户
	var company models.User
	if err := s.DB.Preload("Company").First(&company, "id = ?", companyID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: company not found", ErrInvalidRequest)
		}
		return nil, err
	}
	if !company.IsCompany() {
		return nil, fmt.Errorf("%w: user is not a company", ErrInvalidRequest)
	}

	if startTime >= endTime {
		return nil, fmt.Errorf("%w: start time must be before end time", ErrInvalidRequest)
	}

	// 同一企业同一天不允许时间段重叠的排期
	var conflict int64
	if err := s.DB.Model(&models.Schedule{}).
		Where("company_id = ? AND date = ? AND start_time < ? AND end_time > ?",
			companyID, date, endTime, startTime).
		Where("status NOT IN ?", []models.ScheduleStatus{models.ScheduleRejected, models.ScheduleCompleted}).
		Count(&conflict).Error; err != nil {
		return nil, err
	}
	if conflict > 0 {
		return nil, fmt.Errorf("%w: company already has a schedule at this time", ErrConflict)
	}

	schedule := &models.Schedule{
		CompanyID: companyID,
		Date:      date,
		StartTime: startTime,
		EndTime:   endTime,
		Status:    models.SchedulePending,
	}
	if err := s.DB.Create(schedule).Error; err != nil {
		return nil, err
	}

	config.Info("创建排期: id=%s company=%s date=%s %s-%s",
		schedule.ID, companyID, date.Format("2006-01-02"), startTime, endTime)
	return s.loadSchedule(schedule.ID)
}

// 2 UpdateScheduleStatus 分析师接受或拒绝排期。
// 接受时在同一事务中绑定分析师并创建处于WAITING状态的视频通话记录
func (s *ScheduleService) UpdateScheduleStatus(scheduleID, analystID string, status models.ScheduleStatus) (*models.Schedule, error) {
	if status != models.ScheduleConfirmed && status != models.ScheduleRejected {
		return nil, fmt.Errorf("%w: unsupported status transition %s", ErrInvalidRequest, status)
	}

	// 校验分析师
	var analyst models.User
	if err := s.DB.Preload("Analyst").First(&analyst, "id = ?", analystID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: analyst not found", ErrInvalidRequest)
		}
		return nil, err
	}
	if !analyst.IsAnalyst() {
		return nil, fmt.Errorf("%w: user is not an analyst", ErrInvalidRequest)
	}

	var schedule models.Schedule
	if err := s.DB.First(&schedule, "id = ?", scheduleID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: schedule not found", ErrNotFound)
		}
		return nil, err
	}

	if status == models.ScheduleConfirmed {
		// 排期一经确认只绑定一个分析师，重新绑定必须先经过拒绝
		if schedule.AnalystID != nil {
			return nil, fmt.Errorf("%w: schedule already assigned to an analyst", ErrConflict)
		}
		if schedule.Status != models.SchedulePending {
			return nil, fmt.Errorf("%w: schedule is not in PENDING status", ErrInvalidRequest)
		}

		// 分析师自身的时间冲突检查
		var conflict int64
		if err := s.DB.Model(&models.Schedule{}).
			Where("analyst_id = ? AND date = ? AND start_time < ? AND end_time > ?",
				analystID, schedule.Date, schedule.EndTime, schedule.StartTime).
			Where("status = ?", models.ScheduleConfirmed).
			Count(&conflict).Error; err != nil {
			return nil, err
		}
		if conflict > 0 {
			return nil, fmt.Errorf("%w: you already have a schedule at this time", ErrConflict)
		}
	}

	if status == models.ScheduleRejected {
		// 拒绝的同时解除分析师绑定
		if err := s.DB.Model(&schedule).
			Updates(map[string]interface{}{"status": models.ScheduleRejected, "analyst_id": nil}).Error; err != nil {
			return nil, err
		}
		return s.loadSchedule(scheduleID)
	}

	// 确认：绑定分析师并创建视频通话记录，两者必须同时成立
	expireDays := 7
	if s.Config != nil && s.Config.VideoCallExpireDays > 0 {
		expireDays = s.Config.VideoCallExpireDays
	}
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&schedule).
			Updates(map[string]interface{}{"status": models.ScheduleConfirmed, "analyst_id": analystID}).Error; err != nil {
			return err
		}

		videoCall := &models.VideoCall{
			ScheduleID: schedule.ID,
			CompanyID:  schedule.CompanyID,
			AnalystID:  analystID,
			RoomID:     models.RoomIDForSchedule(schedule.ID),
			Status:     models.VideoCallWaiting,
			ExpiredAt:  time.Now().AddDate(0, 0, expireDays),
		}
		return tx.Create(videoCall).Error
	})
	if err != nil {
		return nil, err
	}

	config.Info("排期已确认: id=%s analyst=%s room=%s",
		schedule.ID, analystID, models.RoomIDForSchedule(schedule.ID))
	return s.loadSchedule(scheduleID)
}

// 3 GetAvailableSchedules 获取所有待接受的排期
func (s *ScheduleService) GetAvailableSchedules() ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := s.DB.Preload("Company").Preload("Company.Company").
		Where("analyst_id IS NULL AND status = ?", models.SchedulePending).
		Order("date ASC, start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// 4 GetAnalystSchedules 获取指定分析师的排期
func (s *ScheduleService) GetAnalystSchedules(analystID string) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := s.DB.Preload("Company").Preload("Company.Company").Preload("VideoCall").
		Where("analyst_id = ?", analystID).
		Order("date ASC, start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// 5 GetCompanySchedules 获取指定企业的排期
func (s *ScheduleService) GetCompanySchedules(companyID string) ([]models.Schedule, error) {
	var schedules []models.Schedule
	if err := s.DB.Preload("Analyst").Preload("Analyst.Analyst").Preload("VideoCall").
		Where("company_id = ?", companyID).
		Order("date ASC, start_time ASC").
		Find(&schedules).Error; err != nil {
		return nil, err
	}
	return schedules, nil
}

// 6 GetClosestSchedule 获取分析师最近的一条未过期排期
func (s *ScheduleService) GetClosestSchedule(analystID string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.DB.Preload("Company").Preload("Company.Company").Preload("VideoCall").
		Where("analyst_id = ? AND date >= ?", analystID, time.Now().Format("2006-01-02")).
		Order("date ASC, start_time ASC").
		First(&schedule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: no upcoming schedule", ErrNotFound)
		}
		return nil, err
	}
	return &schedule, nil
}

// 7 GetAllSchedules 获取所有排期，支持分页
func (s *ScheduleService) GetAllSchedules(page, pageSize int) ([]models.Schedule, int64, error) {
	var schedules []models.Schedule
	var total int64

	// 获取总数
	if err := s.DB.Model(&models.Schedule{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// 分页查询，并预加载关联
	offset := (page - 1) * pageSize
	if err := s.DB.Preload("Company").Preload("Analyst").Preload("VideoCall").
		Order("date ASC, start_time ASC").
		Limit(pageSize).Offset(offset).
		Find(&schedules).Error; err != nil {
		return nil, 0, err
	}

	return schedules, total, nil
}

// 8 DeleteSchedule 删除排期
func (s *ScheduleService) DeleteSchedule(scheduleID string) error {
	result := s.DB.Delete(&models.Schedule{}, "id = ?", scheduleID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: schedule not found", ErrNotFound)
	}
	return nil
}

// loadSchedule 重新加载排期及其关联
func (s *ScheduleService) loadSchedule(scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	if err := s.DB.Preload("Company").Preload("Company.Company").
		Preload("Analyst").Preload("Analyst.Analyst").
		Preload("VideoCall").
		First(&schedule, "id = ?", scheduleID).Error; err != nil {
		return nil, err
	}
	return &schedule, nil
}
