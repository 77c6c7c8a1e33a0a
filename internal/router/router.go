package router

import (
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/event"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/handler"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps 路由依赖
type Deps struct {
	DB         *gorm.DB
	Config     *config.Config
	Ticker     *chain.Ticker
	Campaigns  *logic.CampaignLogic
	Ledger     *logic.LedgerLogic
	Bank       *currency.Bank
	Orgs       *org.Registry
	Dispatcher *event.Dispatcher
}

func Setup(deps Deps) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		block, _ := deps.Ticker.CurrentBlock()
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "campaign-funding-engine",
			"block":   block,
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 活动相关路由
		campaignHandler := handler.NewCampaignHandler(deps.Campaigns, deps.Ticker)
		contributeHandler := handler.NewContributeHandler(deps.Ledger, deps.Ticker)
		eventHandler := handler.NewEventHandler(deps.Dispatcher)
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.ListCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.PUT("/:id/state", campaignHandler.UpdateState)
			campaigns.GET("/:id/stats", campaignHandler.GetCampaignStats)
			campaigns.POST("/:id/contributions", contributeHandler.Contribute)
			campaigns.GET("/:id/contributions", contributeHandler.ListContributions)
			campaigns.GET("/:id/events", eventHandler.ListCampaignEvents)
		}

		// 组织相关路由
		orgHandler := handler.NewOrgHandler(deps.DB, deps.Orgs)
		orgs := v1.Group("/organizations")
		{
			orgs.POST("", orgHandler.CreateOrganization)
			orgs.GET("/:id", orgHandler.GetOrganization)
		}

		// 账户相关路由
		accountHandler := handler.NewAccountHandler(deps.DB, deps.Config, deps.Bank)
		accounts := v1.Group("/accounts")
		{
			accounts.POST("/:address/mint", accountHandler.Mint)
			accounts.GET("/:address/balance", accountHandler.GetBalance)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
