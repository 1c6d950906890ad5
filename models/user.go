package models

import (
	"gorm.io/gorm"

	"topvalidation-http-service/utils"
)

// Role represents the role of a platform user
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleCompany Role = "COMPANY"
	RoleAnalyst Role = "ANALYST"
)

// User represents a platform account (company, analyst or admin)
type User struct {
	BaseModel
	Email     string `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Password  string `gorm:"type:varchar(100);not null" json:"-"` // 不在JSON中暴露密码
	FirstName string `gorm:"type:varchar(50)" json:"first_name"`
	LastName  string `gorm:"type:varchar(50)" json:"last_name"`
	Role      Role   `gorm:"type:varchar(20);not null" json:"role"`

	// Relations - 角色档案，一对一
	Company *Company `gorm:"foreignKey:UserID" json:"company,omitempty"`
	Analyst *Analyst `gorm:"foreignKey:UserID" json:"analyst,omitempty"`
}

// BeforeSave 是一个GORM钩子，在保存记录前运行。
// 已是bcrypt哈希的密码不再处理，创建和更新共用这一个入口
func (u *User) BeforeSave(tx *gorm.DB) error {
	if u.Password != "" && !utils.PasswordHashed(u.Password) {
		hashedPassword, err := utils.HashPassword(u.Password)
		if err != nil {
			return err
		}
		u.Password = hashedPassword
	}
	return nil
}

// IsAnalyst 判断用户是否持有分析师档案
func (u *User) IsAnalyst() bool {
	return u.Role == RoleAnalyst && u.Analyst != nil
}

// IsCompany 判断用户是否持有企业档案
func (u *User) IsCompany() bool {
	return u.Role == RoleCompany && u.Company != nil
}
