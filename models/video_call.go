package models

import "time"

// VideoCallStatus represents the status of a live video session.
// Status only moves forward: WAITING -> CONNECTED -> ENDED.
type VideoCallStatus string

const (
	VideoCallWaiting   VideoCallStatus = "WAITING"
	VideoCallConnected VideoCallStatus = "CONNECTED"
	VideoCallEnded     VideoCallStatus = "ENDED"
)

// VideoCall represents the live-session record bound 1:1 to a confirmed Schedule
type VideoCall struct {
	BaseModel
	ScheduleID string          `gorm:"type:varchar(36);uniqueIndex;not null" json:"schedule_id"`
	CompanyID  string          `gorm:"type:varchar(36);index;not null" json:"company_id"`
	AnalystID  string          `gorm:"type:varchar(36);index;not null" json:"analyst_id"`
	RoomID     string          `gorm:"type:varchar(50);uniqueIndex;not null" json:"room_id"`
	Status     VideoCallStatus `gorm:"type:varchar(20);not null;default:WAITING" json:"status"`
	VideoURL   string          `gorm:"type:varchar(200)" json:"video_url"`
	ExpiredAt  time.Time       `json:"expired_at"` // 过期后所有会议操作一律按不存在处理

	// Relations
	Schedule *Schedule `gorm:"foreignKey:ScheduleID" json:"schedule,omitempty"`
}

// RoomIDForSchedule 根据排期ID生成房间ID，房间ID在通话生命周期内唯一且稳定
func RoomIDForSchedule(scheduleID string) string {
	return "room_" + scheduleID
}

// Expired 判断通话是否已过期
func (v *VideoCall) Expired(now time.Time) bool {
	return !v.ExpiredAt.IsZero() && now.After(v.ExpiredAt)
}
