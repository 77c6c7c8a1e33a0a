package task

import (
	"fmt"
	"testing"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/chain"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/config"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/currency"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/event"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logic"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/org"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type settleEnv struct {
	db         *gorm.DB
	cfg        *config.Config
	bank       *currency.Bank
	orgs       *org.Registry
	campaigns  *logic.CampaignLogic
	ledger     *logic.LedgerLogic
	ticker     *chain.Ticker
	dispatcher *event.Dispatcher
	job        *SettlementJob
	orgId      int64
}

func newSettleEnv(t *testing.T) *settleEnv {
	t.Helper()

	db := testutil.NewTestDB(t)
	cfg := config.Default()
	bank := currency.NewBank()
	orgs := org.NewRegistry()
	fees := logic.NewFeeCalculator(cfg.Engine.DepositRatioBps, cfg.Engine.FeeRatioBps)
	index := logic.NewStateIndexLogic(cfg.Engine.BucketCapacity)
	campaigns := logic.NewCampaignLogic(db, cfg, bank, orgs, fees, index)
	ledger := logic.NewLedgerLogic(db, bank)

	ticker, err := chain.NewTicker(db)
	require.NoError(t, err)

	dispatcher, err := event.NewDispatcher(db, 1)
	require.NoError(t, err)
	t.Cleanup(dispatcher.Close)

	o := model.OrganizationModel{Name: "world3", Treasury: "world3-treasury"}
	require.NoError(t, orgs.Create(db, &o))

	require.NoError(t, bank.Mint(db, cfg.Engine.Currency, "alice", 1000))

	return &settleEnv{
		db:         db,
		cfg:        cfg,
		bank:       bank,
		orgs:       orgs,
		campaigns:  campaigns,
		ledger:     ledger,
		ticker:     ticker,
		dispatcher: dispatcher,
		job:        NewSettlementJob(db, cfg, ticker, campaigns, ledger, fees, bank, orgs, dispatcher),
		orgId:      o.Id,
	}
}

// newCampaign 在 createdBlock 创建并激活一个 cap=100、expiry=100 的活动
func (e *settleEnv) newCampaign(t *testing.T, createdBlock int64, governance model.CampaignGovernance) int64 {
	t.Helper()
	id, err := e.campaigns.CreateCampaign(logic.CreateCampaignParams{
		Owner:       "alice",
		OrgId:       e.orgId,
		Name:        "rocket game",
		Cap:         100,
		StartBlock:  createdBlock,
		ExpiryBlock: 100,
		Governance:  governance,
	}, createdBlock)
	require.NoError(t, err)
	require.NoError(t, e.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))
	return id
}

// contribute 为出资人铸入余额并出资
func (e *settleEnv) contribute(t *testing.T, campaignId int64, addr string, amount int64) {
	t.Helper()
	require.NoError(t, e.bank.Mint(e.db, e.cfg.Engine.Currency, addr, amount))
	require.NoError(t, e.ledger.Contribute(campaignId, addr, amount, 1))
}

func (e *settleEnv) balance(t *testing.T, addr string) int64 {
	t.Helper()
	balance, err := e.bank.Balance(e.db, e.cfg.Engine.Currency, addr)
	require.NoError(t, err)
	return balance
}

func (e *settleEnv) state(t *testing.T, campaignId int64) model.CampaignState {
	t.Helper()
	campaign, err := e.campaigns.GetCampaign(campaignId)
	require.NoError(t, err)
	return campaign.State
}

// totalIssued 全体账户可用与锁定余额之和，任何结算都不得改变它
func (e *settleEnv) totalIssued(t *testing.T) int64 {
	t.Helper()
	var total int64
	require.NoError(t, e.db.Model(&model.AccountModel{}).
		Select("COALESCE(SUM(balance + reserved), 0)").
		Scan(&total).Error)
	return total
}

// TestSettleSuccess 达标活动到期：整体拨付、手续费入库、保证金退还、账本保留
func TestSettleSuccess(t *testing.T) {
	env := newSettleEnv(t)
	id := env.newCampaign(t, 0, model.GovernanceNo)

	env.contribute(t, id, "bob", 50)
	env.contribute(t, id, "carol", 40)
	env.contribute(t, id, "dave", 30)

	issuedBefore := env.totalIssued(t)
	require.NoError(t, env.job.ProcessBlock(100))

	assert.Equal(t, model.CampaignStateSucceeded, env.state(t, id))

	// fee = 120 * 5% = 6, payout = 114, 保证金 10 退还
	assert.Equal(t, int64(990+114+10), env.balance(t, "alice"))
	assert.Equal(t, int64(6), env.balance(t, env.cfg.Engine.ProtocolTreasury))
	assert.Zero(t, env.balance(t, logic.EscrowAddress(id)))

	// 账本保留为历史记录
	total, err := env.ledger.Total(id)
	require.NoError(t, err)
	assert.Equal(t, int64(120), total)

	// 索引桶迁移到 succeeded
	succeeded, err := env.campaigns.ListCampaigns(model.CampaignStateSucceeded, env.orgId)
	require.NoError(t, err)
	require.Len(t, succeeded, 1)

	// 结算事件已记录
	var evt model.SettlementEventModel
	require.NoError(t, env.db.Where("campaign_id = ? AND event_type = ?",
		id, model.EventCampaignSucceeded).First(&evt).Error)
	assert.Equal(t, int64(114), evt.Amount)
	assert.Equal(t, int64(6), evt.Fee)

	// 价值守恒
	assert.Equal(t, issuedBefore, env.totalIssued(t))
}

// TestSettleSuccessGovernance 治理活动的拨付进入组织金库
func TestSettleSuccessGovernance(t *testing.T) {
	env := newSettleEnv(t)
	id := env.newCampaign(t, 0, model.GovernanceYes)

	env.contribute(t, id, "bob", 120)
	require.NoError(t, env.job.ProcessBlock(100))

	assert.Equal(t, model.CampaignStateSucceeded, env.state(t, id))
	assert.Equal(t, int64(114), env.balance(t, "world3-treasury"))
	// owner 只收回保证金
	assert.Equal(t, int64(990+10), env.balance(t, "alice"))
}

// TestSettleFailureRefunds 未达标活动到期：逐人全额退款、保证金退还
func TestSettleFailureRefunds(t *testing.T) {
	env := newSettleEnv(t)
	id := env.newCampaign(t, 0, model.GovernanceNo)

	env.contribute(t, id, "bob", 10)
	env.contribute(t, id, "carol", 15)

	issuedBefore := env.totalIssued(t)
	require.NoError(t, env.job.ProcessBlock(100))

	assert.Equal(t, model.CampaignStateFailed, env.state(t, id))
	assert.Equal(t, int64(10), env.balance(t, "bob"))
	assert.Equal(t, int64(15), env.balance(t, "carol"))
	assert.Equal(t, int64(1000), env.balance(t, "alice"))
	assert.Zero(t, env.balance(t, logic.EscrowAddress(id)))

	// 账本清空，游标不存在
	total, err := env.ledger.Total(id)
	require.NoError(t, err)
	assert.Zero(t, total)
	var count int64
	require.NoError(t, env.db.Model(&model.SettlementCursorModel{}).Count(&count).Error)
	assert.Zero(t, count)

	var evt model.SettlementEventModel
	require.NoError(t, env.db.Where("campaign_id = ? AND event_type = ?",
		id, model.EventCampaignFailed).First(&evt).Error)

	assert.Equal(t, issuedBefore, env.totalIssued(t))
}

// TestSettleFailureForfeitDeposit 罚没策略下保证金划转组织金库
func TestSettleFailureForfeitDeposit(t *testing.T) {
	env := newSettleEnv(t)
	env.cfg.Engine.DepositPolicy = config.DepositPolicyForfeit
	id := env.newCampaign(t, 0, model.GovernanceNo)

	env.contribute(t, id, "bob", 10)
	require.NoError(t, env.job.ProcessBlock(100))

	assert.Equal(t, model.CampaignStateFailed, env.state(t, id))
	assert.Equal(t, int64(990), env.balance(t, "alice"))
	assert.Equal(t, int64(10), env.balance(t, "world3-treasury"))
}

// TestDrainSpansBlocks N 个出资人、每区块预算 B，恰在 ceil(N/B) 个区块内完成退款
func TestDrainSpansBlocks(t *testing.T) {
	env := newSettleEnv(t)
	env.cfg.Engine.MaxLedgerEntriesPerBlock = 2
	id := env.newCampaign(t, 0, model.GovernanceNo)

	const contributors = 5
	for i := 0; i < contributors; i++ {
		env.contribute(t, id, fmt.Sprintf("contributor-%d", i), 10)
	}

	// ceil(5/2) = 3 个区块
	require.NoError(t, env.job.ProcessBlock(100))
	assert.Equal(t, model.CampaignStateActive, env.state(t, id))
	require.NoError(t, env.job.ProcessBlock(101))
	assert.Equal(t, model.CampaignStateActive, env.state(t, id))
	require.NoError(t, env.job.ProcessBlock(102))
	assert.Equal(t, model.CampaignStateFailed, env.state(t, id))

	// 每个出资人恰好退回一次原额
	for i := 0; i < contributors; i++ {
		assert.Equal(t, int64(10), env.balance(t, fmt.Sprintf("contributor-%d", i)))
	}
	assert.Equal(t, int64(1000), env.balance(t, "alice"))
}

// TestAdmissionDeferred 超出每区块活动预算的到期活动顺延到后续区块，不会被丢弃
func TestAdmissionDeferred(t *testing.T) {
	env := newSettleEnv(t)
	env.cfg.Engine.MaxCampaignsPerBlock = 1

	first := env.newCampaign(t, 0, model.GovernanceNo)
	second := env.newCampaign(t, 1, model.GovernanceNo)
	env.contribute(t, first, "bob", 120)
	env.contribute(t, second, "carol", 120)

	require.NoError(t, env.job.ProcessBlock(100))
	assert.Equal(t, model.CampaignStateSucceeded, env.state(t, first))
	assert.Equal(t, model.CampaignStateActive, env.state(t, second))

	require.NoError(t, env.job.ProcessBlock(101))
	assert.Equal(t, model.CampaignStateSucceeded, env.state(t, second))
}

// TestLockFreezesDraining 锁定冻结退款续作，解锁后从游标处恢复
func TestLockFreezesDraining(t *testing.T) {
	env := newSettleEnv(t)
	env.cfg.Engine.MaxLedgerEntriesPerBlock = 2
	id := env.newCampaign(t, 0, model.GovernanceNo)

	for i := 0; i < 4; i++ {
		env.contribute(t, id, fmt.Sprintf("contributor-%d", i), 10)
	}

	require.NoError(t, env.job.ProcessBlock(100))
	remaining, err := env.ledger.ContributorCount(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	root := env.cfg.Engine.RootAuthority
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateLocked, root))

	// 锁定期间不再退款
	require.NoError(t, env.job.ProcessBlock(101))
	remaining, err = env.ledger.ContributorCount(id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), remaining)

	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, root))
	require.NoError(t, env.job.ProcessBlock(102))
	assert.Equal(t, model.CampaignStateFailed, env.state(t, id))
}

// TestTerminalStatesAbsorbing 终态活动不再被结算，也不再接受出资
func TestTerminalStatesAbsorbing(t *testing.T) {
	env := newSettleEnv(t)
	id := env.newCampaign(t, 0, model.GovernanceNo)
	env.contribute(t, id, "bob", 120)

	require.NoError(t, env.job.ProcessBlock(100))
	require.Equal(t, model.CampaignStateSucceeded, env.state(t, id))
	aliceAfter := env.balance(t, "alice")

	// 重复处理同一区块不产生第二次结算
	require.NoError(t, env.job.ProcessBlock(101))
	assert.Equal(t, aliceAfter, env.balance(t, "alice"))

	// 终态拒绝出资
	require.NoError(t, env.bank.Mint(env.db, env.cfg.Engine.Currency, "late", 10))
	err := env.ledger.Contribute(id, "late", 10, 101)
	assert.Error(t, err)
}

// TestExecuteCatchUp 停机积压的区块由下一次调度按序补处理
func TestExecuteCatchUp(t *testing.T) {
	env := newSettleEnv(t)
	id, err := env.campaigns.CreateCampaign(logic.CreateCampaignParams{
		Owner:       "alice",
		OrgId:       env.orgId,
		Name:        "rocket game",
		Cap:         100,
		StartBlock:  0,
		ExpiryBlock: 12,
	}, 0)
	require.NoError(t, err)
	require.NoError(t, env.campaigns.UpdateState(id, model.CampaignStateActive, "alice"))
	env.contribute(t, id, "bob", 10)

	// 模拟宿主时钟已越过到期区块
	require.NoError(t, env.ticker.AdvanceTo(15))
	env.job.Execute()

	assert.Equal(t, model.CampaignStateFailed, env.state(t, id))
	settled, err := env.ticker.LastSettledBlock()
	require.NoError(t, err)
	assert.Equal(t, int64(16), settled)
}
