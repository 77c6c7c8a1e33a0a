package event

import (
	"fmt"
	"sync"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/logger"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Subscriber 结算事件订阅者
type Subscriber func(evt model.SettlementEventModel)

// Dispatcher 结算事件分发器
// 事件在结算事务内落库，分发在事务提交后经协程池异步进行，
// 不参与确定性的区块处理路径
type Dispatcher struct {
	db   *gorm.DB
	pool *ants.Pool

	mu          sync.RWMutex
	subscribers []Subscriber
}

// NewDispatcher 创建事件分发器
func NewDispatcher(db *gorm.DB, workers int) (*Dispatcher, error) {
	if workers <= 0 {
		workers = 1
	}
	pool, err := ants.NewPool(workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatch pool: %w", err)
	}
	return &Dispatcher{db: db, pool: pool}, nil
}

// Subscribe 注册订阅者
func (d *Dispatcher) Subscribe(s Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.subscribers = append(d.subscribers, s)
}

// Record 在结算事务内写入事件流水
func (d *Dispatcher) Record(tx *gorm.DB, campaignId int64, eventType model.SettlementEventType,
	amount, fee, block int64) (*model.SettlementEventModel, error) {
	evt := model.SettlementEventModel{
		Id:         uuid.NewString(),
		CampaignId: campaignId,
		EventType:  eventType,
		Amount:     amount,
		Fee:        fee,
		BlockNum:   block,
	}
	if err := tx.Create(&evt).Error; err != nil {
		return nil, fmt.Errorf("failed to record settlement event: %w", err)
	}
	return &evt, nil
}

// Dispatch 事务提交后异步投递事件给所有订阅者
func (d *Dispatcher) Dispatch(evt model.SettlementEventModel) {
	d.mu.RLock()
	subs := make([]Subscriber, len(d.subscribers))
	copy(subs, d.subscribers)
	d.mu.RUnlock()

	err := d.pool.Submit(func() {
		for _, s := range subs {
			s(evt)
		}
		if err := d.db.Model(&model.SettlementEventModel{}).
			Where("id = ?", evt.Id).
			Update("dispatched", true).Error; err != nil {
			logger.Error("Failed to mark event %s dispatched: %v", evt.Id, err)
		}
	})
	if err != nil {
		logger.Error("Failed to submit event %s for dispatch: %v", evt.Id, err)
	}
}

// ListEvents 分页获取活动的结算事件
func (d *Dispatcher) ListEvents(campaignId int64, page, pageSize int) ([]model.SettlementEventModel, int64, error) {
	var events []model.SettlementEventModel
	var total int64

	query := d.db.Model(&model.SettlementEventModel{}).Where("campaign_id = ?", campaignId)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	if err := d.db.Where("campaign_id = ?", campaignId).
		Offset(offset).
		Limit(pageSize).
		Order("created_at DESC").
		Find(&events).Error; err != nil {
		return nil, 0, err
	}

	return events, total, nil
}

// Close 关闭协程池
func (d *Dispatcher) Close() {
	d.pool.Release()
}
