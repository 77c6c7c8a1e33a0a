package model

import (
	"time"
)

// SettlementEventType 结算事件类型
type SettlementEventType string

const (
	EventCampaignSucceeded SettlementEventType = "campaign_succeeded" // 活动达标，完成拨付
	EventCampaignFailed    SettlementEventType = "campaign_failed"    // 活动未达标，退款完成
	EventRefundBatch       SettlementEventType = "refund_batch"       // 一个退款批次完成
)

// SettlementEventModel 结算事件记录（不可变审计流水）
type SettlementEventModel struct {
	Id        string    `json:"id" gorm:"primaryKey"` // uuid
	CreatedAt time.Time `json:"created_at"`

	CampaignId int64               `json:"campaign_id" gorm:"not null;index"`
	EventType  SettlementEventType `json:"event_type" gorm:"not null"`
	Amount     int64               `json:"amount"` // 该事件涉及的金额（拨付额或本批退款额）
	Fee        int64               `json:"fee"`    // 协议手续费（仅成功事件）
	BlockNum   int64               `json:"block_num" gorm:"not null"`
	Dispatched bool                `json:"dispatched" gorm:"default:false"`
}

// TableName 自定义表名
func (SettlementEventModel) TableName() string {
	return "settlement_event"
}
