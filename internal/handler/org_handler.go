package handler

import (
	"net/http"
	"strconv"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type OrgHandler struct {
	db   *gorm.DB
	orgs *org.Registry
}

func NewOrgHandler(db *gorm.DB, orgs *org.Registry) *OrgHandler {
	return &OrgHandler{db: db, orgs: orgs}
}

// CreateOrganization 创建组织
func (h *OrgHandler) CreateOrganization(c *gin.Context) {
	var req CreateOrganizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	o := model.OrganizationModel{
		Name:     req.Name,
		Treasury: req.Treasury,
	}
	if err := h.orgs.Create(h.db, &o); err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "organization created", gin.H{"organization": o})
}

// GetOrganization 获取组织详情
func (h *OrgHandler) GetOrganization(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid organization id")
		return
	}

	o, err := h.orgs.Get(h.db, id)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{"organization": o})
}
