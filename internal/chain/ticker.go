package chain

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"gorm.io/gorm"
)

// Ticker 区块时钟：宿主的确定性离散执行序列
// 高度持久化在单行表中，重启后从中断处继续推进与结算
type Ticker struct {
	db *gorm.DB
	mu sync.Mutex
}

// NewTicker 创建区块时钟
func NewTicker(db *gorm.DB) (*Ticker, error) {
	t := &Ticker{db: db}
	if _, err := t.loadState(db); err != nil {
		return nil, err
	}
	return t, nil
}

// loadState 读取单行时钟状态，不存在则初始化
func (t *Ticker) loadState(tx *gorm.DB) (*model.TickStateModel, error) {
	var state model.TickStateModel
	err := tx.First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		state = model.TickStateModel{Id: 1}
		if err := tx.Create(&state).Error; err != nil {
			return nil, fmt.Errorf("failed to initialize tick state: %w", err)
		}
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tick state: %w", err)
	}
	return &state, nil
}

// CurrentBlock 当前区块高度
func (t *Ticker) CurrentBlock() (int64, error) {
	state, err := t.loadState(t.db)
	if err != nil {
		return 0, err
	}
	return state.CurrentBlock, nil
}

// LastSettledBlock 结算任务已处理完的区块高度
func (t *Ticker) LastSettledBlock() (int64, error) {
	state, err := t.loadState(t.db)
	if err != nil {
		return 0, err
	}
	return state.LastSettledBlock, nil
}

// Advance 区块高度 +1，返回新高度
func (t *Ticker) Advance() (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.loadState(t.db)
	if err != nil {
		return 0, err
	}
	next := state.CurrentBlock + 1
	if err := t.db.Model(state).Update("current_block", next).Error; err != nil {
		return 0, fmt.Errorf("failed to advance block: %w", err)
	}
	return next, nil
}

// AdvanceTo 将区块高度推进到指定值（测试用），高度只增不减
func (t *Ticker) AdvanceTo(block int64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	state, err := t.loadState(t.db)
	if err != nil {
		return err
	}
	if block < state.CurrentBlock {
		return fmt.Errorf("cannot move block backwards from %d to %d", state.CurrentBlock, block)
	}
	return t.db.Model(state).Update("current_block", block).Error
}

// MarkSettled 记录结算任务已处理完的区块，必须在该区块的结算事务内调用
func (t *Ticker) MarkSettled(tx *gorm.DB, block int64) error {
	state, err := t.loadState(tx)
	if err != nil {
		return err
	}
	if err := tx.Model(state).Update("last_settled_block", block).Error; err != nil {
		return fmt.Errorf("failed to mark block %d settled: %w", block, err)
	}
	return nil
}
