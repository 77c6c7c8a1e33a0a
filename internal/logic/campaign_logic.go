package logic

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateCampaignParams 创建活动的入参
type CreateCampaignParams struct {
	Owner           string
	Admin           string
	OrgId           int64
	Name            string
	Cid             string
	Cap             int64
	MinContribution int64
	StartBlock      int64
	ExpiryBlock     int64
	Protocol        model.CampaignProtocol
	Governance      model.CampaignGovernance
	TokenSymbol     string
	TokenName       string
}

// CampaignLogic 活动注册表：活动记录的创建、校验与状态迁移授权
type CampaignLogic struct {
	db         *gorm.DB
	cfg        *config.Config
	bank       currency.Provider
	orgs       org.Provider
	fees       *FeeCalculator
	stateIndex *StateIndexLogic

	// 全局顺序 id 计数器，所有分配都经由注册表
	mu     sync.Mutex
	nextId int64
}

// NewCampaignLogic 创建活动注册表逻辑
func NewCampaignLogic(db *gorm.DB, cfg *config.Config, bank currency.Provider, orgs org.Provider,
	fees *FeeCalculator, stateIndex *StateIndexLogic) *CampaignLogic {
	return &CampaignLogic{
		db:         db,
		cfg:        cfg,
		bank:       bank,
		orgs:       orgs,
		fees:       fees,
		stateIndex: stateIndex,
	}
}

// CreateCampaign 创建活动：校验、锁定保证金、分配顺序 id、写入索引
// 任一前置条件失败，整个事务回滚，无任何状态变更
func (c *CampaignLogic) CreateCampaign(params CreateCampaignParams, currentBlock int64) (int64, error) {
	if err := c.validateCreate(&params, currentBlock); err != nil {
		return 0, err
	}

	var campaignId int64
	err := c.db.Transaction(func(tx *gorm.DB) error {
		active, err := c.orgs.IsActive(tx, params.OrgId)
		if err != nil {
			return err
		}
		if !active {
			return errs.Validation("org_id", "organization %d is not active", params.OrgId)
		}

		// 以区块时钟单行为锁串行化创建入口，计数与写入之间不允许并发创建插队
		var tick model.TickStateModel
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			FirstOrCreate(&tick, model.TickStateModel{Id: 1}).Error; err != nil {
			return fmt.Errorf("failed to lock tick state: %w", err)
		}

		// 每区块创建数上限，用于约束同时到期进而同时结算的活动数量
		var createdThisBlock int64
		if err := tx.Model(&model.CampaignModel{}).
			Where("created_block = ?", currentBlock).
			Count(&createdThisBlock).Error; err != nil {
			return fmt.Errorf("failed to count campaigns created this block: %w", err)
		}
		if createdThisBlock >= int64(c.cfg.Engine.MaxCampaignsPerBlock) {
			return errs.Capacity("campaigns per block", c.cfg.Engine.MaxCampaignsPerBlock)
		}

		deposit, err := c.fees.RequiredDeposit(params.Cap)
		if err != nil {
			return err
		}
		if err := c.bank.Reserve(tx, c.cfg.Engine.Currency, params.Owner, deposit); err != nil {
			return err
		}

		id, err := c.allocateId(tx)
		if err != nil {
			return err
		}

		campaign := model.CampaignModel{
			Id:              id,
			OrgId:           params.OrgId,
			Name:            params.Name,
			Cid:             params.Cid,
			Owner:           params.Owner,
			Admin:           params.Admin,
			Cap:             params.Cap,
			MinContribution: params.MinContribution,
			Deposit:         deposit,
			Currency:        c.cfg.Engine.Currency,
			Protocol:        params.Protocol,
			Governance:      params.Governance,
			TokenSymbol:     params.TokenSymbol,
			TokenName:       params.TokenName,
			StartBlock:      params.StartBlock,
			ExpiryBlock:     params.ExpiryBlock,
			CreatedBlock:    currentBlock,
			State:           model.CampaignStateCreated,
		}
		if err := tx.Create(&campaign).Error; err != nil {
			return fmt.Errorf("failed to create campaign: %w", err)
		}

		if err := c.stateIndex.Insert(tx, model.CampaignStateCreated, params.OrgId, id); err != nil {
			return err
		}

		campaignId = id
		return nil
	})
	if err != nil {
		return 0, err
	}
	return campaignId, nil
}

// validateCreate 创建入参校验
func (c *CampaignLogic) validateCreate(params *CreateCampaignParams, currentBlock int64) error {
	eng := c.cfg.Engine
	if params.Owner == "" {
		return errs.Validation("owner", "owner account is required")
	}
	if params.Admin == "" {
		params.Admin = params.Owner
	}
	if params.Name == "" {
		return errs.Validation("name", "campaign name is required")
	}
	if len(params.Name) > eng.MaxNameLength {
		return errs.Validation("name", "name length %d exceeds limit %d", len(params.Name), eng.MaxNameLength)
	}
	if params.Cap <= 0 {
		return errs.Validation("cap", "funding cap must be positive, got %d", params.Cap)
	}
	if params.ExpiryBlock <= params.StartBlock {
		return errs.Validation("expiry_block", "expiry block %d must be after start block %d",
			params.ExpiryBlock, params.StartBlock)
	}
	duration := params.ExpiryBlock - params.StartBlock
	if duration < eng.MinDuration || duration > eng.MaxDuration {
		return errs.Validation("expiry_block", "duration %d outside allowed range [%d, %d]",
			duration, eng.MinDuration, eng.MaxDuration)
	}
	if params.ExpiryBlock <= currentBlock {
		return errs.Validation("expiry_block", "expiry block %d is not in the future (current %d)",
			params.ExpiryBlock, currentBlock)
	}
	if params.MinContribution < eng.MinContribution {
		params.MinContribution = eng.MinContribution
	}
	if params.Protocol == "" {
		params.Protocol = model.ProtocolRaise
	}
	if params.Governance == "" {
		params.Governance = model.GovernanceNo
	}
	return nil
}

// allocateId 分配下一个顺序活动 id
func (c *CampaignLogic) allocateId(tx *gorm.DB) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.nextId == 0 {
		var maxId int64
		if err := tx.Model(&model.CampaignModel{}).
			Select("COALESCE(MAX(id), 0)").
			Scan(&maxId).Error; err != nil {
			return 0, fmt.Errorf("failed to load campaign id counter: %w", err)
		}
		c.nextId = maxId + 1
	}

	id := c.nextId
	c.nextId++
	return id, nil
}

// validTransitions 用户可发起的状态迁移边
// 终态 succeeded/failed 只能由结算任务到达
var validTransitions = map[model.CampaignState][]model.CampaignState{
	model.CampaignStateCreated: {model.CampaignStateActive},
	model.CampaignStateActive:  {model.CampaignStatePaused, model.CampaignStateLocked},
	model.CampaignStatePaused:  {model.CampaignStateActive, model.CampaignStateLocked},
	model.CampaignStateLocked:  {model.CampaignStateActive}, // 仅管理员解锁
}

// UpdateState 用户发起的状态迁移
// 锁定与解锁需要管理员权限，其余迁移需活动 owner/admin
func (c *CampaignLogic) UpdateState(campaignId int64, newState model.CampaignState, caller string) error {
	return c.db.Transaction(func(tx *gorm.DB) error {
		var campaign model.CampaignModel
		err := tx.First(&campaign, campaignId).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errs.Validation("campaign_id", "campaign %d does not exist", campaignId)
		}
		if err != nil {
			return fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
		}

		if !transitionAllowed(campaign.State, newState) {
			return errs.State(errs.ReasonInvalidTransition,
				"cannot move campaign %d from %s to %s", campaignId, campaign.State, newState)
		}

		requiresRoot := newState == model.CampaignStateLocked || campaign.State == model.CampaignStateLocked
		if requiresRoot {
			if caller != c.cfg.Engine.RootAuthority {
				return errs.State(errs.ReasonUnauthorized,
					"caller %s is not the root authority", caller)
			}
		} else if caller != campaign.Owner && caller != campaign.Admin {
			return errs.State(errs.ReasonUnauthorized,
				"caller %s is not owner or admin of campaign %d", caller, campaignId)
		}

		// Update 会回写 struct 字段，先留存迁移前状态
		from := campaign.State
		if err := tx.Model(&campaign).Update("state", newState).Error; err != nil {
			return fmt.Errorf("failed to update campaign state: %w", err)
		}
		return c.stateIndex.Move(tx, campaignId, campaign.OrgId, from, newState)
	})
}

// transitionAllowed 判断用户迁移边是否合法
func transitionAllowed(from, to model.CampaignState) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Finalize 结算任务专用：将活动置入终态并更新索引
// 必须在结算事务内调用，from 只能是 active/paused
func (c *CampaignLogic) Finalize(tx *gorm.DB, campaign *model.CampaignModel, to model.CampaignState) error {
	if !to.IsTerminal() {
		return errs.State(errs.ReasonInvalidTransition, "finalize target %s is not terminal", to)
	}
	if campaign.State != model.CampaignStateActive && campaign.State != model.CampaignStatePaused {
		return errs.State(errs.ReasonInvalidTransition,
			"cannot finalize campaign %d from state %s", campaign.Id, campaign.State)
	}

	from := campaign.State
	if err := tx.Model(campaign).Update("state", to).Error; err != nil {
		return fmt.Errorf("failed to finalize campaign state: %w", err)
	}
	return c.stateIndex.Move(tx, campaign.Id, campaign.OrgId, from, to)
}

// GetCampaign 获取活动详情
func (c *CampaignLogic) GetCampaign(campaignId int64) (*model.CampaignModel, error) {
	var campaign model.CampaignModel
	err := c.db.First(&campaign, campaignId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("campaign_id", "campaign %d does not exist", campaignId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load campaign %d: %w", campaignId, err)
	}
	return &campaign, nil
}

// ListCampaigns 按 (state, org) 枚举活动，经由状态索引读取
func (c *CampaignLogic) ListCampaigns(state model.CampaignState, orgId int64) ([]model.CampaignModel, error) {
	ids, err := c.stateIndex.List(c.db, state, orgId)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []model.CampaignModel{}, nil
	}

	var campaigns []model.CampaignModel
	if err := c.db.Where("id IN ?", ids).Find(&campaigns).Error; err != nil {
		return nil, fmt.Errorf("failed to load campaigns: %w", err)
	}

	// 按索引桶内的插入序返回
	byId := make(map[int64]model.CampaignModel, len(campaigns))
	for _, campaign := range campaigns {
		byId[campaign.Id] = campaign
	}
	ordered := make([]model.CampaignModel, 0, len(ids))
	for _, id := range ids {
		if campaign, ok := byId[id]; ok {
			ordered = append(ordered, campaign)
		}
	}
	return ordered, nil
}

// GetCampaignStats 获取活动统计信息
func (c *CampaignLogic) GetCampaignStats(campaignId int64) (map[string]interface{}, error) {
	campaign, err := c.GetCampaign(campaignId)
	if err != nil {
		return nil, err
	}

	var contributorCount int64
	if err := c.db.Model(&model.ContributionModel{}).
		Where("campaign_id = ?", campaignId).
		Count(&contributorCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count contributors: %w", err)
	}

	// 计算完成百分比
	completionPercentage := float64(0)
	if campaign.Cap > 0 {
		completionPercentage = float64(campaign.Raised) / float64(campaign.Cap) * 100
	}

	return map[string]interface{}{
		"campaign_id":           campaign.Id,
		"raised":                campaign.Raised,
		"cap":                   campaign.Cap,
		"completion_percentage": completionPercentage,
		"contributor_count":     contributorCount,
		"state":                 campaign.State,
		"start_block":           campaign.StartBlock,
		"expiry_block":          campaign.ExpiryBlock,
	}, nil
}
