package handler

import (
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
)

// CreateCampaignRequest 创建活动请求
type CreateCampaignRequest struct {
	Owner           string                   `json:"owner" binding:"required"`
	Admin           string                   `json:"admin"`
	OrgId           int64                    `json:"org_id" binding:"required"`
	Name            string                   `json:"name" binding:"required"`
	Cid             string                   `json:"cid"`
	Cap             int64                    `json:"cap" binding:"required,min=1"`
	MinContribution int64                    `json:"min_contribution"`
	StartBlock      int64                    `json:"start_block"`
	ExpiryBlock     int64                    `json:"expiry_block" binding:"required"`
	Protocol        model.CampaignProtocol   `json:"protocol"`
	Governance      model.CampaignGovernance `json:"governance"`
	TokenSymbol     string                   `json:"token_symbol"`
	TokenName       string                   `json:"token_name"`
}

// UpdateStateRequest 状态迁移请求
type UpdateStateRequest struct {
	State  model.CampaignState `json:"state" binding:"required"`
	Caller string              `json:"caller" binding:"required"`
}

// ContributeRequest 出资请求
type ContributeRequest struct {
	Contributor string `json:"contributor" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,min=1"`
}

// CreateOrganizationRequest 创建组织请求
type CreateOrganizationRequest struct {
	Name     string `json:"name" binding:"required"`
	Treasury string `json:"treasury" binding:"required"`
}

// MintRequest 余额铸入请求（开发环境水龙头）
type MintRequest struct {
	Amount int64 `json:"amount" binding:"required,min=1"`
}
