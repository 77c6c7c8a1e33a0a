package config

import (
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logger"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Engine   EngineConfig   `mapstructure:"engine"`
	Ticker   TickerConfig   `mapstructure:"ticker"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// EngineConfig 众筹结算引擎参数
type EngineConfig struct {
	Currency                 string `mapstructure:"currency"`                     // 支付币种标识
	MinContribution          int64  `mapstructure:"min_contribution"`             // 全局最小出资额下限
	MinDuration              int64  `mapstructure:"min_duration"`                 // 活动最短持续区块数
	MaxDuration              int64  `mapstructure:"max_duration"`                 // 活动最长持续区块数
	MaxNameLength            int    `mapstructure:"max_name_length"`              // 活动名称长度上限
	MaxCampaignsPerBlock     int    `mapstructure:"max_campaigns_per_block"`      // 每区块创建/结算的活动数上限
	MaxLedgerEntriesPerBlock int    `mapstructure:"max_ledger_entries_per_block"` // 每区块处理的账本条目数上限
	BucketCapacity           int    `mapstructure:"bucket_capacity"`              // 状态索引单桶容量
	DepositRatioBps          int64  `mapstructure:"deposit_ratio_bps"`            // 保证金比例（基点）
	FeeRatioBps              int64  `mapstructure:"fee_ratio_bps"`                // 协议手续费比例（基点）
	DepositPolicy            string `mapstructure:"deposit_policy"`               // 失败时保证金策略: return | forfeit
	ProtocolTreasury         string `mapstructure:"protocol_treasury"`            // 协议金库账户
	RootAuthority            string `mapstructure:"root_authority"`               // 管理员账户（锁定/解锁权限）
	EventWorkers             int    `mapstructure:"event_workers"`                // 事件分发协程池大小
}

// DepositPolicyReturn 失败时保证金退还创建者
const DepositPolicyReturn = "return"

// DepositPolicyForfeit 失败时保证金划转组织金库
const DepositPolicyForfeit = "forfeit"

type TickerConfig struct {
	Interval int `mapstructure:"interval"` // 秒，区块推进间隔
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // 日志级别: debug, info, warn, error, fatal
	Output string `mapstructure:"output"` // 输出目标: stdout, file
	File   string `mapstructure:"file"`   // 日志文件路径（当output为file时使用）
}

func Load() *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/gamedao")

	// 设置默认值
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "")
	viper.SetDefault("database.dbname", "gamedao_flow")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("engine.currency", "PLAY")
	viper.SetDefault("engine.min_contribution", 1)
	viper.SetDefault("engine.min_duration", 10)
	viper.SetDefault("engine.max_duration", 100000)
	viper.SetDefault("engine.max_name_length", 64)
	viper.SetDefault("engine.max_campaigns_per_block", 10)
	viper.SetDefault("engine.max_ledger_entries_per_block", 100)
	viper.SetDefault("engine.bucket_capacity", 1000)
	viper.SetDefault("engine.deposit_ratio_bps", 1000)
	viper.SetDefault("engine.fee_ratio_bps", 500)
	viper.SetDefault("engine.deposit_policy", DepositPolicyReturn)
	viper.SetDefault("engine.protocol_treasury", "gamedao-treasury")
	viper.SetDefault("engine.root_authority", "gamedao-root")
	viper.SetDefault("engine.event_workers", 4)
	viper.SetDefault("ticker.interval", 6)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.file", "logs/app.log")

	// 自动读取环境变量
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logger.Warn("Warning: Could not read config file: %v", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		logger.Fatal("Unable to decode config into struct: %v", err)
	}

	return &config
}

// Default 返回内置默认配置（测试用）
func Default() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080", Mode: "debug"},
		Engine: EngineConfig{
			Currency:                 "PLAY",
			MinContribution:          1,
			MinDuration:              10,
			MaxDuration:              100000,
			MaxNameLength:            64,
			MaxCampaignsPerBlock:     10,
			MaxLedgerEntriesPerBlock: 100,
			BucketCapacity:           1000,
			DepositRatioBps:          1000,
			FeeRatioBps:              500,
			DepositPolicy:            DepositPolicyReturn,
			ProtocolTreasury:         "gamedao-treasury",
			RootAuthority:            "gamedao-root",
			EventWorkers:             4,
		},
		Ticker: TickerConfig{Interval: 6},
		Log:    LogConfig{Level: "info", Output: "stdout"},
	}
}
