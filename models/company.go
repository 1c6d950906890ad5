package models

// Company represents the company profile attached to a COMPANY user
type Company struct {
	BaseModel
	UserID      string `gorm:"type:varchar(36);uniqueIndex;not null" json:"user_id"`
	CompanyName string `gorm:"type:varchar(100);not null" json:"company_name"`
	Industry    string `gorm:"type:varchar(100)" json:"industry"`
	Website     string `gorm:"type:varchar(200)" json:"website"`
	Position    string `gorm:"type:varchar(100)" json:"position"` // 联系人在公司的职位
}
