package models

// Analyst represents the analyst profile attached to an ANALYST user
type Analyst struct {
	BaseModel
	UserID     string `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	Specialty  string `gorm:"type:varchar(100)" json:"specialty"` // 擅长领域
	Bio        string `gorm:"type:varchar(500)" json:"bio"`
	Experience int    `json:"experience"` // 从业年限
}
