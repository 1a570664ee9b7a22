package models

import (
	"time"

	"gorm.io/gorm"
)

// User 货主用户表（身份与会话由上游签发，本服务只保留档案）
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`              // 主键
	Phone     string         `gorm:"uniqueIndex;not null" json:"phone"` // 手机号
	Name      string         `gorm:"default:''" json:"name"`            // 姓名
	Status    string         `gorm:"default:'active'" json:"status"`    // 账号状态
	CreatedAt time.Time      `gorm:"index" json:"created_at"`           // 创建时间
	UpdatedAt time.Time      `gorm:"index" json:"updated_at"`           // 更新时间
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`                    // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
