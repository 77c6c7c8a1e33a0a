package model

import (
	"time"
)

// TickStateModel 区块时钟状态（单行表），用于重启后续作
type TickStateModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	UpdatedAt time.Time `json:"updated_at"`

	CurrentBlock     int64 `json:"current_block" gorm:"default:0"`      // 宿主时钟推进到的区块
	LastSettledBlock int64 `json:"last_settled_block" gorm:"default:0"` // 结算任务已处理完的区块
}

// TableName 自定义表名
func (TickStateModel) TableName() string {
	return "tick_state"
}
