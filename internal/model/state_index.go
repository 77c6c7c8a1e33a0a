package model

import (
	"time"
)

// StateIndexModel 状态索引条目：(state, org_id) 桶内的有序活动集合
// 每个活动在任意时刻只出现在一个桶中，与其当前状态一致
type StateIndexModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	State      CampaignState `json:"state" gorm:"not null;index:idx_bucket"`
	OrgId      int64         `json:"org_id" gorm:"not null;index:idx_bucket"`
	CampaignId int64         `json:"campaign_id" gorm:"not null;uniqueIndex"`
	Position   int64         `json:"position" gorm:"not null"` // 桶内插入序
}

// TableName 自定义表名
func (StateIndexModel) TableName() string {
	return "state_index"
}
