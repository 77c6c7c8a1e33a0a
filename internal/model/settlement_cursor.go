package model

import (
	"time"
)

// CursorPhase 游标所处的结算阶段
type CursorPhase string

const (
	CursorPhaseRefund CursorPhase = "refund" // 退款批次进行中
)

// SettlementCursorModel 结算游标：退款批次跨区块续作的持久化断点
// 仅在活动处于批量退款过程中存在，退款完成后删除
type SettlementCursorModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	CampaignId  int64       `json:"campaign_id" gorm:"not null;uniqueIndex"`
	Phase       CursorPhase `json:"phase" gorm:"default:'refund'"`
	NextAddress string      `json:"next_address"` // 下一个待处理的出资人地址，空串表示从头开始
}

// TableName 自定义表名
func (SettlementCursorModel) TableName() string {
	return "settlement_cursor"
}
