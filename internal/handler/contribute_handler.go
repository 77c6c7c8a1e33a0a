package handler

import (
	"net/http"
	"strconv"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gin-gonic/gin"
)

type ContributeHandler struct {
	ledger *logic.LedgerLogic
	ticker *chain.Ticker
}

func NewContributeHandler(ledger *logic.LedgerLogic, ticker *chain.Ticker) *ContributeHandler {
	return &ContributeHandler{
		ledger: ledger,
		ticker: ticker,
	}
}

// Contribute 向活动出资
func (h *ContributeHandler) Contribute(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	currentBlock, err := h.ticker.CurrentBlock()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	if err := h.ledger.Contribute(id, req.Contributor, req.Amount, currentBlock); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "contribution recorded", nil)
}

// ListContributions 获取活动的出资账本
func (h *ContributeHandler) ListContributions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	// 分页参数
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	contributions, total, err := h.ledger.ListContributions(id, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"contributions": contributions,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}
