package models

import "time"

// ScheduleStatus represents the status of a consultation schedule
type ScheduleStatus string

const (
	SchedulePending     ScheduleStatus = "PENDING"
	ScheduleConfirmed   ScheduleStatus = "CONFIRMED"
	ScheduleRejected    ScheduleStatus = "REJECTED"
	ScheduleRescheduled ScheduleStatus = "RESCHEDULED"
	ScheduleCompleted   ScheduleStatus = "COMPLETED"
)

// Schedule represents a consultation slot requested by a company
// and optionally confirmed by an analyst
type Schedule struct {
	BaseModel
	CompanyID string         `gorm:"type:varchar(36);index;not null" json:"company_id"`
	AnalystID *string        `gorm:"type:varchar(36);index" json:"analyst_id"` // 确认前为空
	Date      time.Time      `gorm:"type:date;not null" json:"date"`
	StartTime string         `gorm:"type:varchar(5);not null" json:"start_time"` // 格式 "15:04"
	EndTime   string         `gorm:"type:varchar(5);not null" json:"end_time"`
	Status    ScheduleStatus `gorm:"type:varchar(20);not null;default:PENDING" json:"status"`

	// Relations
	Company   *User      `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Analyst   *User      `gorm:"foreignKey:AnalystID" json:"analyst,omitempty"`
	VideoCall *VideoCall `gorm:"foreignKey:ScheduleID" json:"video_call,omitempty"`
}

// Overlaps 判断两个时间段在同一天内是否重叠
func (s *Schedule) Overlaps(startTime, endTime string) bool {
	return s.StartTime < endTime && startTime < s.EndTime
}
