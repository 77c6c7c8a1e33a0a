package handler

import (
	"net/http"
	"strconv"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/event"
	"github.com/gin-gonic/gin"
)

type EventHandler struct {
	dispatcher *event.Dispatcher
}

func NewEventHandler(dispatcher *event.Dispatcher) *EventHandler {
	return &EventHandler{dispatcher: dispatcher}
}

// ListCampaignEvents 获取活动的结算事件流水
func (h *EventHandler) ListCampaignEvents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid campaign id")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.dispatcher.ListEvents(id, page, pageSize)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
