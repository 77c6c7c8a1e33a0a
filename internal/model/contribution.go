package model

import (
	"time"
)

// ContributionModel 出资账本条目，每个活动每个出资人一条
// 退款时逐条删除；活动成功时整体保留，作为不可变的历史记录
type ContributionModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId int64  `json:"campaign_id" gorm:"not null;uniqueIndex:idx_campaign_contributor"`
	Address    string `json:"address" gorm:"not null;uniqueIndex:idx_campaign_contributor"`
	Amount     int64  `json:"amount" gorm:"not null"`
}

// TableName 自定义表名
func (ContributionModel) TableName() string {
	return "contribution"
}
