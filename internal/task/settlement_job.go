package task

import (
	"time"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/event"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logger"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// SettlementJob 活动结算任务：逐区块处理到期活动的终局化
// 每个区块的工作量由 max_campaigns_per_block 与 max_ledger_entries_per_block 约束，
// 未完成的退款经由结算游标在后续区块续作
type SettlementJob struct {
	db         *gorm.DB
	cfg        *config.Config
	ticker     *chain.Ticker
	campaigns  *logic.CampaignLogic
	ledger     *logic.LedgerLogic
	fees       *logic.FeeCalculator
	bank       currency.Provider
	orgs       org.Provider
	dispatcher *event.Dispatcher
}

// NewSettlementJob 创建活动结算任务
func NewSettlementJob(db *gorm.DB, cfg *config.Config, ticker *chain.Ticker,
	campaigns *logic.CampaignLogic, ledger *logic.LedgerLogic, fees *logic.FeeCalculator,
	bank currency.Provider, orgs org.Provider, dispatcher *event.Dispatcher) *SettlementJob {
	return &SettlementJob{
		db:         db,
		cfg:        cfg,
		ticker:     ticker,
		campaigns:  campaigns,
		ledger:     ledger,
		fees:       fees,
		bank:       bank,
		orgs:       orgs,
		dispatcher: dispatcher,
	}
}

// GetName 获取任务名称
func (j *SettlementJob) GetName() string {
	return "campaign_settlement_updater"
}

// GetSchedule 获取调度配置
func (j *SettlementJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.cfg.Ticker.Interval) * time.Second)
}

// Execute 执行任务：推进区块高度，补处理所有未结算的区块
func (j *SettlementJob) Execute() {
	block, err := j.ticker.Advance()
	if err != nil {
		logger.Error("Failed to advance block: %v", err)
		return
	}

	lastSettled, err := j.ticker.LastSettledBlock()
	if err != nil {
		logger.Error("Failed to load last settled block: %v", err)
		return
	}

	// 停机期间积压的区块按序补处理，保持确定性
	for b := lastSettled + 1; b <= block; b++ {
		if err := j.ProcessBlock(b); err != nil {
			logger.Error("Failed to process block %d: %v", b, err)
			return
		}
	}
}

// ProcessBlock 处理单个区块的结算工作
// 先续作退款中的活动，再按预算准入新到期的活动；
// 每个活动的结算步骤独立成事务，单个活动失败不影响其余活动
func (j *SettlementJob) ProcessBlock(block int64) error {
	campaignBudget := j.cfg.Engine.MaxCampaignsPerBlock
	entryBudget := j.cfg.Engine.MaxLedgerEntriesPerBlock
	var dispatched []model.SettlementEventModel

	// 1. 续作：已有结算游标的活动优先
	var cursors []model.SettlementCursorModel
	if err := j.db.Order("campaign_id ASC").Find(&cursors).Error; err != nil {
		return err
	}
	for _, cursor := range cursors {
		if campaignBudget <= 0 || entryBudget <= 0 {
			break
		}

		var campaign model.CampaignModel
		if err := j.db.First(&campaign, cursor.CampaignId).Error; err != nil {
			logger.Error("Failed to load draining campaign %d: %v", cursor.CampaignId, err)
			continue
		}
		// 锁定会冻结退款续作，直到管理员解锁
		if campaign.State != model.CampaignStateActive && campaign.State != model.CampaignStatePaused {
			continue
		}

		campaignBudget--
		processed, evts, err := j.settleRefundStep(&campaign, entryBudget, block)
		if err != nil {
			logger.Error("Refund step for campaign %d failed at block %d: %v", campaign.Id, block, err)
			continue
		}
		entryBudget -= processed
		dispatched = append(dispatched, evts...)
	}

	// 2. 准入：新到期的活动（到期后未被准入的活动保持待处理，后续区块接手）
	if campaignBudget > 0 {
		draining := j.db.Model(&model.SettlementCursorModel{}).Select("campaign_id")
		var due []model.CampaignModel
		if err := j.db.
			Where("state IN ? AND expiry_block <= ?",
				[]model.CampaignState{model.CampaignStateActive, model.CampaignStatePaused}, block).
			Where("id NOT IN (?)", draining).
			Order("expiry_block ASC, id ASC").
			Limit(campaignBudget).
			Find(&due).Error; err != nil {
			return err
		}

		for i := range due {
			campaign := &due[i]
			if campaign.Raised >= campaign.Cap {
				evt, err := j.settleSuccess(campaign, block)
				if err != nil {
					// 溢出等错误只终止该活动本区块的结算步骤，下一区块重试
					logger.Error("Settlement of campaign %d failed at block %d: %v", campaign.Id, block, err)
					continue
				}
				dispatched = append(dispatched, *evt)
				continue
			}

			if entryBudget <= 0 {
				// 账本预算耗尽：该活动保持到期待处理，不留半完成状态
				continue
			}
			processed, evts, err := j.settleRefundStep(campaign, entryBudget, block)
			if err != nil {
				logger.Error("Refund step for campaign %d failed at block %d: %v", campaign.Id, block, err)
				continue
			}
			entryBudget -= processed
			dispatched = append(dispatched, evts...)
		}
	}

	if err := j.markBlockSettled(block); err != nil {
		return err
	}

	// 事务全部提交后再异步分发事件
	for _, evt := range dispatched {
		j.dispatcher.Dispatch(evt)
	}
	return nil
}

// settleSuccess 成功结算：托管账户整体拨付，账本保留为历史记录
// 拨付、手续费与保证金退还在同一事务内完成
func (j *SettlementJob) settleSuccess(campaign *model.CampaignModel, block int64) (*model.SettlementEventModel, error) {
	var recorded *model.SettlementEventModel
	err := j.db.Transaction(func(tx *gorm.DB) error {
		fee, payout, err := j.fees.SplitOnSuccess(campaign.Raised)
		if err != nil {
			return err
		}

		beneficiary := campaign.Owner
		if campaign.Governance == model.GovernanceYes {
			treasury, err := j.orgs.Treasury(tx, campaign.OrgId)
			if err != nil {
				return err
			}
			beneficiary = treasury
		}

		escrow := logic.EscrowAddress(campaign.Id)
		if payout > 0 {
			if err := j.bank.Transfer(tx, campaign.Currency, escrow, beneficiary, payout); err != nil {
				return err
			}
		}
		if fee > 0 {
			if err := j.bank.Transfer(tx, campaign.Currency, escrow, j.cfg.Engine.ProtocolTreasury, fee); err != nil {
				return err
			}
		}
		if campaign.Deposit > 0 {
			if err := j.bank.Release(tx, campaign.Currency, campaign.Owner, campaign.Deposit); err != nil {
				return err
			}
		}

		if err := j.campaigns.Finalize(tx, campaign, model.CampaignStateSucceeded); err != nil {
			return err
		}

		recorded, err = j.dispatcher.Record(tx, campaign.Id, model.EventCampaignSucceeded, payout, fee, block)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("Campaign %d succeeded at block %d: raised %d", campaign.Id, block, campaign.Raised)
	return recorded, nil
}

// settleRefundStep 退款结算步骤：处理一个退款批次
// 批次完成则应用保证金策略并置活动为失败；未完成则游标留待下一区块
func (j *SettlementJob) settleRefundStep(campaign *model.CampaignModel, entryBudget int, block int64) (int, []model.SettlementEventModel, error) {
	var processed int
	var events []model.SettlementEventModel

	err := j.db.Transaction(func(tx *gorm.DB) error {
		result, err := j.ledger.DrainBatch(tx, campaign, entryBudget)
		if err != nil {
			return err
		}
		processed = result.Processed

		if result.Remaining {
			if result.Processed > 0 {
				evt, err := j.dispatcher.Record(tx, campaign.Id, model.EventRefundBatch,
					int64(result.Processed), 0, block)
				if err != nil {
					return err
				}
				events = append(events, *evt)
			}
			return nil
		}

		// 退款完成：按配置策略处理保证金
		if campaign.Deposit > 0 {
			switch j.cfg.Engine.DepositPolicy {
			case config.DepositPolicyForfeit:
				treasury, err := j.orgs.Treasury(tx, campaign.OrgId)
				if err != nil {
					return err
				}
				if err := j.bank.TransferReserved(tx, campaign.Currency, campaign.Owner, treasury, campaign.Deposit); err != nil {
					return err
				}
			default:
				if err := j.bank.Release(tx, campaign.Currency, campaign.Owner, campaign.Deposit); err != nil {
					return err
				}
			}
		}

		if err := j.campaigns.Finalize(tx, campaign, model.CampaignStateFailed); err != nil {
			return err
		}

		evt, err := j.dispatcher.Record(tx, campaign.Id, model.EventCampaignFailed, campaign.Raised, 0, block)
		if err != nil {
			return err
		}
		events = append(events, *evt)
		logger.Info("Campaign %d failed at block %d: refunded %d contributors in final batch",
			campaign.Id, block, result.Processed)
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return processed, events, nil
}

// markBlockSettled 记录区块处理完成
func (j *SettlementJob) markBlockSettled(block int64) error {
	return j.db.Transaction(func(tx *gorm.DB) error {
		return j.ticker.MarkSettled(tx, block)
	})
}
