package logic

import (
	"errors"
	"fmt"
	"math"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"gorm.io/gorm"
)

// EscrowAddress 活动托管账户地址，由活动 id 确定性推导
func EscrowAddress(campaignId int64) string {
	return fmt.Sprintf("flow-escrow-%d", campaignId)
}

// DrainResult 一个退款批次的处理结果
type DrainResult struct {
	Processed int  // 本批完成退款的账本条目数
	Remaining bool // 是否还有未处理的条目
}

// LedgerLogic 出资账本：出资记账与批量退款
type LedgerLogic struct {
	db   *gorm.DB
	bank currency.Provider
}

// NewLedgerLogic 创建出资账本逻辑
func NewLedgerLogic(db *gorm.DB, bank currency.Provider) *LedgerLogic {
	return &LedgerLogic{db: db, bank: bank}
}

// Contribute 向活动出资：转账入托管账户并登记账本
// 整个操作在一个事务内完成，任一前置条件失败不产生任何可见变更
func (l *LedgerLogic) Contribute(campaignId int64, contributor string, amount, currentBlock int64) error {
	if contributor == "" {
		return errs.Validation("contributor", "contributor address is required")
	}

	return l.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		err := tx.First(&campaign, campaignId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Validation("campaign_id", "campaign %d does not exist", campaignId)
		}
		if err != nil {
			return fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
		}

		if campaign.State != model.CampaignStateActive {
			return errs.State(errs.ReasonWrongState,
				"campaign %d is %s, contributions require active", campaignId, campaign.State)
		}
		if currentBlock >= campaign.ExpiryBlock {
			return errs.State(errs.ReasonExpired,
				"campaign %d expired at block %d (current %d)", campaignId, campaign.ExpiryBlock, currentBlock)
		}
		if amount < campaign.MinContribution {
			return errs.Validation("amount",
				"contribution %d below campaign minimum %d", amount, campaign.MinContribution)
		}
		if campaign.Raised > math.MaxInt64-amount {
			return errs.Overflow("raised total")
		}

		// 资金先行：转账失败则整个事务回滚，账本不会出现无资金支撑的条目
		if err := l.bank.Transfer(tx, campaign.Currency, contributor, EscrowAddress(campaignId), amount); err != nil {
			return err
		}

		var entry model.ContributionModel
		err = tx.Where("campaign_id = ? AND address = ?", campaignId, contributor).First(&entry).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			entry = model.ContributionModel{
				CampaignId: campaignId,
				Address:    contributor,
				Amount:     amount,
			}
			if err := tx.Create(&entry).Error; err != nil {
				return fmt.Errorf("failed to create ledger entry: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to load ledger entry: %w", err)
		default:
			if entry.Amount > math.MaxInt64-amount {
				return errs.Overflow("contributor total")
			}
			if err := tx.Model(&entry).Update("amount", gorm.Expr("amount + ?", amount)).Error; err != nil {
				return fmt.Errorf("failed to update ledger entry: %w", err)
			}
		}

		if err := tx.Model(&campaign).Update("raised", gorm.Expr("raised + ?", amount)).Error; err != nil {
			return fmt.Errorf("failed to update raised total: %w", err)
		}
		return nil
	})
}

// DrainBatch 退款批次：从游标位置起最多处理 maxItems 条账本条目
// 每条退款要么全额完成并删除，要么完全未触及；游标随批次持久化
// 仅供结算任务在其事务内调用
func (l *LedgerLogic) DrainBatch(tx *gorm.DB, campaign *model.CampaignModel, maxItems int) (DrainResult, error) {
	result := DrainResult{}
	if maxItems <= 0 {
		result.Remaining = true
		return result, nil
	}

	var cursor model.SettlementCursorModel
	err := tx.Where("campaign_id = ?", campaign.Id).First(&cursor).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return result, fmt.Errorf("failed to load settlement cursor: %w", err)
	}
	hasCursor := err == nil

	// 地址字典序作为稳定的遍历顺序；多取一条用于判断是否还有剩余
	var entries []model.ContributionModel
	if err := tx.Where("campaign_id = ? AND address >= ?", campaign.Id, cursor.NextAddress).
		Order("address ASC").
		Limit(maxItems + 1).
		Find(&entries).Error; err != nil {
		return result, fmt.Errorf("failed to load ledger entries: %w", err)
	}

	escrow := EscrowAddress(campaign.Id)
	batch := entries
	if len(batch) > maxItems {
		batch = entries[:maxItems]
	}

	for _, entry := range batch {
		if err := l.bank.Transfer(tx, campaign.Currency, escrow, entry.Address, entry.Amount); err != nil {
			return result, fmt.Errorf("refund to %s failed: %w", entry.Address, err)
		}
		if err := tx.Delete(&model.ContributionModel{}, entry.Id).Error; err != nil {
			return result, fmt.Errorf("failed to remove ledger entry %d: %w", entry.Id, err)
		}
		result.Processed++
	}

	if len(entries) > maxItems {
		// 批次未完：持久化下一个待处理地址
		next := entries[maxItems].Address
		if hasCursor {
			if err := tx.Model(&cursor).Update("next_address", next).Error; err != nil {
				return result, fmt.Errorf("failed to advance settlement cursor: %w", err)
			}
		} else {
			cursor = model.SettlementCursorModel{
				CampaignId:  campaign.Id,
				Phase:       model.CursorPhaseRefund,
				NextAddress: next,
			}
			if err := tx.Create(&cursor).Error; err != nil {
				return result, fmt.Errorf("failed to create settlement cursor: %w", err)
			}
		}
		result.Remaining = true
		return result, nil
	}

	// 批次完成：清除游标
	if hasCursor {
		if err := tx.Delete(&cursor).Error; err != nil {
			return result, fmt.Errorf("failed to clear settlement cursor: %w", err)
		}
	}
	return result, nil
}

// Total 活动的账本条目合计（校验缓存值时使用）
func (l *LedgerLogic) Total(campaignId int64) (int64, error) {
	var total int64
	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to sum ledger entries: %w", err)
	}
	return total, nil
}

// ContributorCount 活动的出资人数量
func (l *LedgerLogic) ContributorCount(campaignId int64) (int64, error) {
	var count int64
	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}
	return count, nil
}

// ListContributions 分页获取活动的账本条目
func (l *LedgerLogic) ListContributions(campaignId int64, page, pageSize int) ([]model.ContributionModel, int64, error) {
	var contributions []model.ContributionModel
	var total int64

	if err := l.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := l.db.Where("campaign_id = ?", campaignId).
		Offset(offset).
		Limit(pageSize).
		Order("address ASC").
		Find(&contributions).Error; err != nil {
		return nil, 0, err
	}

	return contributions, total, nil
}
