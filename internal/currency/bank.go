package currency

import (
	"errors"
	"fmt"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Provider 资金操作抽象接口，所有金额变动都经由它完成
// 操作在调用方提供的事务句柄上执行，保证与业务写入同事务
type Provider interface {
	// Transfer 从 from 向 to 转账
	Transfer(tx *gorm.DB, currency, from, to string, amount int64) error
	// Reserve 锁定账户可用余额（保证金）
	Reserve(tx *gorm.DB, currency, account string, amount int64) error
	// Release 解锁账户被锁定的余额
	Release(tx *gorm.DB, currency, account string, amount int64) error
	// TransferReserved 将 from 被锁定的余额直接划转给 to（保证金罚没）
	TransferReserved(tx *gorm.DB, currency, from, to string, amount int64) error
	// Balance 查询可用余额
	Balance(tx *gorm.DB, currency, account string) (int64, error)
}

// Bank 基于数据库账户表的 Provider 实现
type Bank struct{}

// NewBank 创建 Bank
func NewBank() *Bank {
	return &Bank{}
}

// Transfer 从 from 向 to 转账
func (b *Bank) Transfer(tx *gorm.DB, currency, from, to string, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "transfer amount must be positive, got %d", amount)
	}
	if from == to {
		return errs.Validation("to", "transfer to self")
	}

	src, err := b.lockAccount(tx, currency, from)
	if err != nil {
		return err
	}
	if src.Balance < amount {
		return errs.Resource(from, "insufficient balance: have %d, need %d", src.Balance, amount)
	}

	dst, err := b.lockOrCreateAccount(tx, currency, to)
	if err != nil {
		return err
	}

	if err := tx.Model(src).Update("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit %s: %w", from, err)
	}
	if err := tx.Model(dst).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

// Reserve 锁定账户可用余额
func (b *Bank) Reserve(tx *gorm.DB, currency, account string, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "reserve amount must be positive, got %d", amount)
	}

	acc, err := b.lockAccount(tx, currency, account)
	if err != nil {
		return err
	}
	if acc.Balance < amount {
		return errs.Resource(account, "insufficient balance to reserve: have %d, need %d", acc.Balance, amount)
	}

	updates := map[string]interface{}{
		"balance":  gorm.Expr("balance - ?", amount),
		"reserved": gorm.Expr("reserved + ?", amount),
	}
	if err := tx.Model(acc).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to reserve on %s: %w", account, err)
	}
	return nil
}

// Release 解锁账户被锁定的余额
func (b *Bank) Release(tx *gorm.DB, currency, account string, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "release amount must be positive, got %d", amount)
	}

	acc, err := b.lockAccount(tx, currency, account)
	if err != nil {
		return err
	}
	if acc.Reserved < amount {
		return errs.Resource(account, "insufficient reserved balance: have %d, need %d", acc.Reserved, amount)
	}

	updates := map[string]interface{}{
		"balance":  gorm.Expr("balance + ?", amount),
		"reserved": gorm.Expr("reserved - ?", amount),
	}
	if err := tx.Model(acc).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to release on %s: %w", account, err)
	}
	return nil
}

// TransferReserved 将 from 被锁定的余额直接划转给 to
func (b *Bank) TransferReserved(tx *gorm.DB, currency, from, to string, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "transfer amount must be positive, got %d", amount)
	}

	src, err := b.lockAccount(tx, currency, from)
	if err != nil {
		return err
	}
	if src.Reserved < amount {
		return errs.Resource(from, "insufficient reserved balance: have %d, need %d", src.Reserved, amount)
	}

	dst, err := b.lockOrCreateAccount(tx, currency, to)
	if err != nil {
		return err
	}

	if err := tx.Model(src).Update("reserved", gorm.Expr("reserved - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit reserved on %s: %w", from, err)
	}
	if err := tx.Model(dst).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit %s: %w", to, err)
	}
	return nil
}

// Balance 查询可用余额，账户不存在视为 0
func (b *Bank) Balance(tx *gorm.DB, currency, account string) (int64, error) {
	var acc model.AccountModel
	err := tx.Where("currency = ? AND address = ?", currency, account).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// Mint 向账户铸入余额（测试与开发环境的水龙头）
func (b *Bank) Mint(tx *gorm.DB, currency, account string, amount int64) error {
	if amount <= 0 {
		return errs.Validation("amount", "mint amount must be positive, got %d", amount)
	}

	acc, err := b.lockOrCreateAccount(tx, currency, account)
	if err != nil {
		return err
	}
	if err := tx.Model(acc).Update("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to mint to %s: %w", account, err)
	}
	return nil
}

// lockAccount 以 FOR UPDATE 读取账户并持有行锁至事务结束，不存在时返回资金错误
// 余额校验与扣减之间不允许其他事务插入写，否则并发扣款会把余额打穿
func (b *Bank) lockAccount(tx *gorm.DB, currency, account string) (*model.AccountModel, error) {
	var acc model.AccountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("currency = ? AND address = ?", currency, account).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Resource(account, "account does not exist")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", account, err)
	}
	return &acc, nil
}

// lockOrCreateAccount 以 FOR UPDATE 读取账户，不存在时创建零余额账户
func (b *Bank) lockOrCreateAccount(tx *gorm.DB, currency, account string) (*model.AccountModel, error) {
	var acc model.AccountModel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("currency = ? AND address = ?", currency, account).First(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		acc = model.AccountModel{Currency: currency, Address: account}
		if err := tx.Create(&acc).Error; err != nil {
			return nil, fmt.Errorf("failed to create account %s: %w", account, err)
		}
		return &acc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load account %s: %w", account, err)
	}
	return &acc, nil
}
