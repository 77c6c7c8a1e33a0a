package model

import (
	"time"
)

// OrganizationModel 组织模型（活动的所属主体）
type OrganizationModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Name     string `json:"name" gorm:"not null"`
	Treasury string `json:"treasury" gorm:"not null"` // 组织金库账户地址
	Active   bool   `json:"active" gorm:"default:true"`
}

// TableName 自定义表名
func (OrganizationModel) TableName() string {
	return "organization"
}
