package handler

import (
	"net/http"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AccountHandler struct {
	db   *gorm.DB
	cfg  *config.Config
	bank *currency.Bank
}

func NewAccountHandler(db *gorm.DB, cfg *config.Config, bank *currency.Bank) *AccountHandler {
	return &AccountHandler{db: db, cfg: cfg, bank: bank}
}

// Mint 向账户铸入余额（仅限开发/测试环境的水龙头）
func (h *AccountHandler) Mint(c *gin.Context) {
	if h.cfg.Server.Mode == "release" {
		ErrorResponse(c, http.StatusForbidden, "minting is disabled in release mode")
		return
	}

	address := c.Param("address")
	var req MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		return h.bank.Mint(tx, h.cfg.Engine.Currency, address, req.Amount)
	})
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "balance minted", nil)
}

// GetBalance 查询账户可用余额
func (h *AccountHandler) GetBalance(c *gin.Context) {
	address := c.Param("address")

	balance, err := h.bank.Balance(h.db, h.cfg.Engine.Currency, address)
	if err != nil {
		FailWith(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "", gin.H{
		"address":  address,
		"currency": h.cfg.Engine.Currency,
		"balance":  balance,
	})
}
