package logic

import (
	"math"
	"testing"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredDeposit(t *testing.T) {
	fees := NewFeeCalculator(1000, 500) // 10% 保证金

	deposit, err := fees.RequiredDeposit(1000)
	require.NoError(t, err)
	assert.Equal(t, int64(100), deposit)

	// 向下取整
	deposit, err = fees.RequiredDeposit(15)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deposit)

	deposit, err = fees.RequiredDeposit(9)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deposit)
}

func TestRequiredDepositOverflow(t *testing.T) {
	fees := NewFeeCalculator(1000, 500)

	_, err := fees.RequiredDeposit(math.MaxInt64)
	require.Error(t, err)
	var overflow *errs.OverflowError
	assert.ErrorAs(t, err, &overflow)
}

func TestSplitOnSuccess(t *testing.T) {
	fees := NewFeeCalculator(1000, 500) // 5% 手续费

	fee, payout, err := fees.SplitOnSuccess(120)
	require.NoError(t, err)
	assert.Equal(t, int64(6), fee)
	assert.Equal(t, int64(114), payout)
}

// TestSplitConservation 分账不增不减：所有舍入差额归入拨付额
func TestSplitConservation(t *testing.T) {
	for _, bps := range []int64{0, 1, 333, 500, 9999} {
		fees := NewFeeCalculator(1000, bps)
		for _, raised := range []int64{0, 1, 7, 33, 99, 100, 12345, 1 << 40} {
			fee, payout, err := fees.SplitOnSuccess(raised)
			require.NoError(t, err)
			assert.Equal(t, raised, fee+payout, "raised=%d bps=%d", raised, bps)
			assert.LessOrEqual(t, fee, raised)
			// 手续费向下取整，协议方至多按精确值少收一个最小单位，绝不多收
			assert.LessOrEqual(t, fee*bpsDenominator, raised*bps)
		}
	}
}

func TestSplitOnSuccessOverflow(t *testing.T) {
	fees := NewFeeCalculator(1000, 500)

	_, _, err := fees.SplitOnSuccess(math.MaxInt64)
	var overflow *errs.OverflowError
	assert.ErrorAs(t, err, &overflow)
}
