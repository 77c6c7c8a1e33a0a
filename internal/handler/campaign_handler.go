package handler

import (
	"net/http"
	"strconv"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gin-gonic/gin"
)

type CampaignHandler struct {
	campaigns *logic.CampaignLogic
	ticker    *chain.Ticker
}

func NewCampaignHandler(campaigns *logic.CampaignLogic, ticker *chain.Ticker) *CampaignHandler {
	return &CampaignHandler{
		campaigns: campaigns,
		ticker:    ticker,
	}
}

// CreateCampaign 创建活动
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	currentBlock, err := h.ticker.CurrentBlock()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	if req.StartBlock == 0 {
		req.StartBlock = currentBlock
	}

	campaignId, err := h.campaigns.CreateCampaign(logic.CreateCampaignParams{
		Owner:           req.Owner,
		Admin:           req.Admin,
		OrgId:           req.OrgId,
		Name:            req.Name,
		Cid:             req.Cid,
		Cap:             req.Cap,
		MinContribution: req.MinContribution,
		StartBlock:      req.StartBlock,
		ExpiryBlock:     req.ExpiryBlock,
		Protocol:        req.Protocol,
		Governance:      req.Governance,
		TokenSymbol:     req.TokenSymbol,
		TokenName:       req.TokenName,
	}, currentBlock)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "campaign created", gin.H{"campaign_id": campaignId})
}

// GetCampaign 获取活动详情
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	campaign, err := h.campaigns.GetCampaign(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"campaign": campaign})
}

// ListCampaigns 按 (state, org_id) 枚举活动
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	state := model.CampaignState(c.DefaultQuery("state", string(model.CampaignStateActive)))
	orgId, err := strconv.ParseInt(c.Query("org_id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "org_id is required")
		return
	}

	campaigns, err := h.campaigns.ListCampaigns(state, orgId)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"campaigns": campaigns,
		"total":     len(campaigns),
	})
}

// UpdateState 用户发起的状态迁移
func (h *CampaignHandler) UpdateState(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req UpdateStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.campaigns.UpdateState(id, req.State, req.Caller); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "campaign state updated", nil)
}

// GetCampaignStats 获取活动统计信息
func (h *CampaignHandler) GetCampaignStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	stats, err := h.campaigns.GetCampaignStats(id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", stats)
}
