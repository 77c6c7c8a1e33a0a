package model

import (
	"time"
)

// AccountModel 账户余额模型，按 (currency, address) 唯一
type AccountModel struct {
	Id        int64     `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Currency string `json:"currency" gorm:"not null;uniqueIndex:idx_currency_address"`
	Address  string `json:"address" gorm:"not null;uniqueIndex:idx_currency_address"`
	Balance  int64  `json:"balance" gorm:"default:0"`  // 可用余额
	Reserved int64  `json:"reserved" gorm:"default:0"` // 被保证金锁定的余额
}

// TableName 自定义表名
func (AccountModel) TableName() string {
	return "account"
}
