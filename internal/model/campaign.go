package model

import (
	"time"
)

// CampaignModel 众筹活动模型
type CampaignModel struct {
	Id        int64     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 基本信息
	OrgId int64  `json:"org_id" gorm:"not null;index"`
	Name  string `json:"name" gorm:"not null" binding:"required"`
	Cid   string `json:"cid"` // 内容引用（IPFS CID 等）

	// 创建者信息
	Owner string `json:"owner" gorm:"not null"`
	Admin string `json:"admin" gorm:"not null"`

	// 众筹信息
	Cap             int64  `json:"cap" gorm:"not null" binding:"required,min=1"`
	Raised          int64  `json:"raised" gorm:"default:0"` // 已筹金额（缓存值，与账本保持一致）
	MinContribution int64  `json:"min_contribution" gorm:"default:0"`
	Deposit         int64  `json:"deposit" gorm:"not null"` // 创建者保证金
	Currency        string `json:"currency" gorm:"not null"`

	// 协议与治理标记
	Protocol   CampaignProtocol   `json:"protocol" gorm:"default:'raise'"`
	Governance CampaignGovernance `json:"governance" gorm:"default:'no'"`

	// 代币元数据（可选）
	TokenSymbol string `json:"token_symbol"`
	TokenName   string `json:"token_name"`

	// 区块信息
	StartBlock   int64 `json:"start_block" gorm:"not null"`
	ExpiryBlock  int64 `json:"expiry_block" gorm:"not null;index"`
	CreatedBlock int64 `json:"created_block" gorm:"not null;index"`

	// 状态
	State CampaignState `json:"state" gorm:"default:'created';index"`
}

// CampaignState 活动生命周期状态
type CampaignState string

const (
	CampaignStateCreated   CampaignState = "created"   // 已创建
	CampaignStateActive    CampaignState = "active"    // 进行中
	CampaignStatePaused    CampaignState = "paused"    // 已暂停
	CampaignStateSucceeded CampaignState = "succeeded" // 成功（终态）
	CampaignStateFailed    CampaignState = "failed"    // 失败（终态）
	CampaignStateLocked    CampaignState = "locked"    // 已锁定（管理员操作）
)

// IsTerminal 是否处于终态
func (s CampaignState) IsTerminal() bool {
	return s == CampaignStateSucceeded || s == CampaignStateFailed
}

// CampaignProtocol 众筹协议类型
type CampaignProtocol string

const (
	ProtocolGrant CampaignProtocol = "grant" // 无偿资助
	ProtocolRaise CampaignProtocol = "raise" // 普通众筹
	ProtocolLend  CampaignProtocol = "lend"  // 借出
	ProtocolLoan  CampaignProtocol = "loan"  // 借入
	ProtocolShare CampaignProtocol = "share" // 股份
	ProtocolPool  CampaignProtocol = "pool"  // 资金池
)

// CampaignGovernance 是否由组织治理接管结算收益
type CampaignGovernance string

const (
	GovernanceNo  CampaignGovernance = "no"  // 收益归创建者
	GovernanceYes CampaignGovernance = "yes" // 收益归组织金库
)

// TableName 自定义表名
func (CampaignModel) TableName() string {
	return "campaign"
}
