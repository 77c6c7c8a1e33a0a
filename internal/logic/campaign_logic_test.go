package logic

import (
	"strings"
	"sync"
	"testing"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type campaignEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	bank      *currency.Bank
	orgs      *org.Registry
	campaigns *CampaignLogic
	orgId     int64
}

func newCampaignEnv(t *testing.T) *campaignEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := config.Default()
	bank := currency.NewBank()
	orgs := org.NewRegistry()
	fees := NewFeeCalculator(cfg.Engine.DepositRatioBps, cfg.Engine.FeeRatioBps)
	index := NewStateIndexLogic(cfg.Engine.BucketCapacity)

	o := model.OrganizationModel{Name: "world3", Treasury: "world3-treasury"}
	require.NoError(t, orgs.Create(db, &o))

	require.NoError(t, bank.Mint(db, cfg.Engine.Currency, "alice", 1000))

	return &campaignEnv{
		db:        db,
		cfg:       cfg,
		bank:      bank,
		orgs:      orgs,
		campaigns: NewCampaignLogic(db, cfg, bank, orgs, fees, index),
		orgId:     o.Id,
	}
}

func (e *campaignEnv) params() CreateCampaignParams {
	return CreateCampaignParams{
		Owner:       "alice",
		OrgId:       e.orgId,
		Name:        "rocket game",
		Cap:         100,
		StartBlock:  0,
		ExpiryBlock: 100,
	}
}

func TestCreateCampaign(t *testing.T) {
	env := newCampaignEnv(t)

	id, err := env.campaigns.CreateCampaign(env.params(), 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	campaign, err := env.campaigns.GetCampaign(id)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStateCreated, campaign.State)
	assert.Equal(t, int64(10), campaign.Deposit) // 10% of cap
	assert.Equal(t, "alice", campaign.Admin)     // admin 缺省为 owner
	assert.Equal(t, model.ProtocolRaise, campaign.Protocol)

	// 保证金已锁定
	balance, err := env.bank.Balance(env.db, env.cfg.Engine.Currency, "alice")
	require.NoError(t, err)
	assert.Equal(t, int64(990), balance)

	// 已写入 (created, org) 索引桶
	campaigns, err := env.campaigns.ListCampaigns(model.CampaignStateCreated, env.orgId)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
	assert.Equal(t, id, campaigns[0].Id)
}

func TestCreateCampaignSequentialIds(t *testing.T) {
	env := newCampaignEnv(t)

	for want := int64(1); want <= 3; want++ {
		id, err := env.campaigns.CreateCampaign(env.params(), 0)
		require.NoError(t, err)
		assert.Equal(t, want, id)
	}
}

func TestCreateCampaignValidation(t *testing.T) {
	env := newCampaignEnv(t)
	var validation *errs.ValidationError

	p := env.params()
	p.Cap = 0
	_, err := env.campaigns.CreateCampaign(p, 0)
	assert.ErrorAs(t, err, &validation)

	p = env.params()
	p.Name = strings.Repeat("x", env.cfg.Engine.MaxNameLength+1)
	_, err = env.campaigns.CreateCampaign(p, 0)
	assert.ErrorAs(t, err, &validation)

	p = env.params()
	p.ExpiryBlock = p.StartBlock // expiry 必须晚于 start
	_, err = env.campaigns.CreateCampaign(p, 0)
	assert.ErrorAs(t, err, &validation)

	p = env.params()
	p.ExpiryBlock = p.StartBlock + env.cfg.Engine.MinDuration - 1
	_, err = env.campaigns.CreateCampaign(p, 0)
	assert.ErrorAs(t, err, &validation)

	p = env.params()
	p.ExpiryBlock = p.StartBlock + env.cfg.Engine.MaxDuration + 1
	_, err = env.campaigns.CreateCampaign(p, 0)
	assert.ErrorAs(t, err, &validation)

	// 过期区块不能早于当前区块
	p = env.params()
	_, err = env.campaigns.CreateCampaign(p, 200)
	assert.ErrorAs(t, err, &validation)
}

func TestCreateCampaignInactiveOrg(t *testing.T) {
	env := newCampaignEnv(t)
	require.NoError(t, env.orgs.SetActive(env.db, env.orgId, false))

	_, err := env.campaigns.CreateCampaign(env.params(), 0)
	var validation *errs.ValidationError
	assert.ErrorAs(t, err, &validation)
}

func TestCreateCampaignPerBlockCap(t *testing.T) {
	env := newCampaignEnv(t)
	env.cfg.Engine.MaxCampaignsPerBlock = 2

	_, err := env.campaigns.CreateCampaign(env.params(), 5)
	require.NoError(t, err)
	_, err = env.campaigns.CreateCampaign(env.params(), 5)
	require.NoError(t, err)

	_, err = env.campaigns.CreateCampaign(env.params(), 5)
	var capacity *errs.CapacityError
	assert.ErrorAs(t, err, &capacity)

	// 下一区块恢复可创建
	_, err = env.campaigns.CreateCampaign(env.params(), 6)
	assert.NoError(t, err)
}

// TestCreateCampaignPerBlockCapConcurrent 并发创建不越过每区块上限：
// 计数在时钟行锁内完成，同区块的创建请求串行通过检查
func TestCreateCampaignPerBlockCapConcurrent(t *testing.T) {
	env := newCampaignEnv(t)
	env.cfg.Engine.MaxCampaignsPerBlock = 2

	const attempts = 6
	var wg sync.WaitGroup
	errCh := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.campaigns.CreateCampaign(env.params(), 5)
			errCh <- err
		}()
	}
	wg.Wait()
	close(errCh)

	succeeded := 0
	for err := range errCh {
		if err == nil {
			succeeded++
			continue
		}
		var capacity *errs.CapacityError
		require.ErrorAs(t, err, &capacity)
	}
	assert.Equal(t, 2, succeeded)

	var count int64
	require.NoError(t, env.db.Model(&model.CampaignModel{}).
		Where("created_block = ?", 5).
		Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestCreateCampaignInsufficientDeposit(t *testing.T) {
	env := newCampaignEnv(t)

	p := env.params()
	p.Owner = "pauper"
	require.NoError(t, env.bank.Mint(env.db, env.cfg.Engine.Currency, "pauper", 5))

	_, err := env.campaigns.CreateCampaign(p, 0)
	var resource *errs.ResourceError
	require.ErrorAs(t, err, &resource)

	// 整个事务回滚，活动与索引均未写入
	var count int64
	require.NoError(t, env.db.Model(&model.CampaignModel{}).Count(&count).Error)
	assert.Zero(t, count)
	require.NoError(t, env.db.Model(&model.StateIndexModel{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestUpdateStateLifecycle(t *testing.T) {
	env := newCampaignEnv(t)
	id, err := env.campaigns.CreateCampaign(env.params(), 0)
	require.NoError(t, err)

	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStatePaused, "alice"))
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))

	// 索引桶跟随状态
	campaigns, err := env.campaigns.ListCampaigns(model.CampaignStateActive, env.orgId)
	require.NoError(t, err)
	require.Len(t, campaigns, 1)
}

func TestUpdateStateInvalidTransitions(t *testing.T) {
	env := newCampaignEnv(t)
	id, err := env.campaigns.CreateCampaign(env.params(), 0)
	require.NoError(t, err)

	var stateErr *errs.StateError

	// created 不能直接暂停
	err = env.campaigns.UpdateState(id, model.CampaignStatePaused, "alice")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, errs.ReasonInvalidTransition, stateErr.Reason)

	// 终态只能由结算任务到达，owner 直接设置被拒绝
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))
	err = env.campaigns.UpdateState(id, model.CampaignStateSucceeded, "alice")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, errs.ReasonInvalidTransition, stateErr.Reason)

	err = env.campaigns.UpdateState(id, model.CampaignStateFailed, "alice")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, errs.ReasonInvalidTransition, stateErr.Reason)
}

func TestUpdateStateAuthorization(t *testing.T) {
	env := newCampaignEnv(t)
	id, err := env.campaigns.CreateCampaign(env.params(), 0)
	require.NoError(t, err)

	var stateErr *errs.StateError

	err = env.campaigns.UpdateState(id, model.CampaignStateActive, "mallory")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, errs.ReasonUnauthorized, stateErr.Reason)

	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))

	// 锁定需要管理员权限
	err = env.campaigns.UpdateState(id, model.CampaignStateLocked, "alice")
	require.ErrorAs(t, err, &stateErr)
	assert.Equal(t, errs.ReasonUnauthorized, stateErr.Reason)

	root := env.cfg.Engine.RootAuthority
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateLocked, root))

	// 解锁同样只属于管理员
	err = env.campaigns.UpdateState(id, model.CampaignStateActive, "alice")
	require.ErrorAs(t, err, &stateErr)
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, root))
}
