package logic

import (
	"math"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
)

// bpsDenominator 基点分母，比例参数均以万分之几表示
const bpsDenominator = 10000

// FeeCalculator 费用计算器：保证金与成功结算的分账计算
// 纯定点整数运算，向下取整，保证 fee + payout == raised 恒成立
type FeeCalculator struct {
	depositRatioBps int64
	feeRatioBps     int64
}

// NewFeeCalculator 创建费用计算器
func NewFeeCalculator(depositRatioBps, feeRatioBps int64) *FeeCalculator {
	return &FeeCalculator{
		depositRatioBps: depositRatioBps,
		feeRatioBps:     feeRatioBps,
	}
}

// RequiredDeposit 按目标金额计算创建者需锁定的保证金
func (f *FeeCalculator) RequiredDeposit(cap int64) (int64, error) {
	return mulRatio(cap, f.depositRatioBps, "required deposit")
}

// SplitOnSuccess 按已筹金额计算协议手续费与拨付给创建者的金额
func (f *FeeCalculator) SplitOnSuccess(raised int64) (fee int64, payout int64, err error) {
	fee, err = mulRatio(raised, f.feeRatioBps, "success fee")
	if err != nil {
		return 0, 0, err
	}
	// 手续费向下取整，差额全部归入拨付额，总额不增不减
	return fee, raised - fee, nil
}

// mulRatio 计算 amount * ratioBps / 10000，向下取整，乘法溢出时报错
func mulRatio(amount, ratioBps int64, op string) (int64, error) {
	if amount < 0 || ratioBps < 0 {
		return 0, errs.Validation("amount", "negative value in %s", op)
	}
	if ratioBps == 0 || amount == 0 {
		return 0, nil
	}
	if amount > math.MaxInt64/ratioBps {
		return 0, errs.Overflow(op)
	}
	return amount * ratioBps / bpsDenominator, nil
}
