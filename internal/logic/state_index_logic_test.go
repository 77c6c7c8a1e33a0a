package logic

import (
	"testing"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateIndexInsertAndList(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := NewStateIndexLogic(10)

	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 101))
	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 102))
	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 2, 103))

	ids, err := index.List(db, model.CampaignStateCreated, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102}, ids)

	ids, err = index.List(db, model.CampaignStateCreated, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{103}, ids)

	ids, err = index.List(db, model.CampaignStateActive, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStateIndexBucketCapacity(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := NewStateIndexLogic(2)

	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 101))
	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 102))

	err := index.Insert(db, model.CampaignStateCreated, 1, 103)
	var capacity *errs.CapacityError
	assert.ErrorAs(t, err, &capacity)

	// 其他桶不受影响
	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 2, 103))
}

func TestStateIndexMove(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := NewStateIndexLogic(10)

	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 101))
	require.NoError(t, index.Move(db, 101, 1, model.CampaignStateCreated, model.CampaignStateActive))

	ids, err := index.List(db, model.CampaignStateCreated, 1)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = index.List(db, model.CampaignStateActive, 1)
	require.NoError(t, err)
	assert.Equal(t, []int64{101}, ids)

	// 任意时刻活动只出现在一个桶中
	var count int64
	require.NoError(t, db.Model(&model.StateIndexModel{}).Where("campaign_id = ?", 101).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestStateIndexMoveMismatch(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := NewStateIndexLogic(10)

	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 101))

	// 源桶不符时拒绝移动
	err := index.Move(db, 101, 1, model.CampaignStateActive, model.CampaignStatePaused)
	assert.Error(t, err)

	err = index.Move(db, 999, 1, model.CampaignStateCreated, model.CampaignStateActive)
	assert.Error(t, err)
}

func TestStateIndexMoveFullDestination(t *testing.T) {
	db := testutil.NewTestDB(t)
	index := NewStateIndexLogic(1)

	require.NoError(t, index.Insert(db, model.CampaignStateCreated, 1, 101))
	require.NoError(t, index.Insert(db, model.CampaignStateActive, 1, 102))

	err := index.Move(db, 101, 1, model.CampaignStateCreated, model.CampaignStateActive)
	var capacity *errs.CapacityError
	assert.ErrorAs(t, err, &capacity)
}
