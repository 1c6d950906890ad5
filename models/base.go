package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PaginationQuery 绑定列表接口的分页查询参数
type PaginationQuery struct {
	Page     int `form:"page" json:"page"`
	PageSize int `form:"page_size" json:"page_size"`
}

// Normalize 把缺失或越界的分页参数收敛到默认值
func (q *PaginationQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 10
	}
}

// PaginationResult 列表接口返回的分页信息
type PaginationResult struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int64 `json:"total_pages"`
}

// NewPaginationResult 创建一个新的分页结果对象
func NewPaginationResult(total int64, page, pageSize int) PaginationResult {
	return PaginationResult{
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: (total + int64(pageSize) - 1) / int64(pageSize),
	}
}

// BaseModel 所有持久化模型的公共字段
type BaseModel struct {
	ID        string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate 是一个GORM钩子，在创建新记录前运行
func (m *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
