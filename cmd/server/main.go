package main

import (
	"log"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/database"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/event"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logger"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/router"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/task"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		l, err := logger.NewWithRotation(logger.ParseLogLevel(cfg.Log.Level), logger.RotationConfig{
			Filename: cfg.Log.File,
			Compress: true,
		})
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		logger.SetDefaultLogger(l)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化区块时钟
	ticker, err := chain.NewTicker(db)
	if err != nil {
		logger.Fatal("Failed to initialize block ticker: %v", err)
	}

	// 初始化引擎组件
	bank := currency.NewBank()
	orgs := org.NewRegistry()
	fees := logic.NewFeeCalculator(cfg.Engine.DepositRatioBps, cfg.Engine.FeeRatioBps)
	stateIndex := logic.NewStateIndexLogic(cfg.Engine.BucketCapacity)
	campaigns := logic.NewCampaignLogic(db, cfg, bank, orgs, fees, stateIndex)
	ledger := logic.NewLedgerLogic(db, bank)

	dispatcher, err := event.NewDispatcher(db, cfg.Engine.EventWorkers)
	if err != nil {
		logger.Fatal("Failed to initialize event dispatcher: %v", err)
	}
	defer dispatcher.Close()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(router.Deps{
		DB:         db,
		Config:     cfg,
		Ticker:     ticker,
		Campaigns:  campaigns,
		Ledger:     ledger,
		Bank:       bank,
		Orgs:       orgs,
		Dispatcher: dispatcher,
	})

	// 启动结算任务（宿主时钟：每个调度周期推进一个区块）
	manager := task.NewManager()
	manager.Register(task.NewSettlementJob(db, cfg, ticker, campaigns, ledger, fees, bank, orgs, dispatcher))
	manager.Start()
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
