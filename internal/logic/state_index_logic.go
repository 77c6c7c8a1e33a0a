package logic

import (
	"errors"
	"fmt"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"gorm.io/gorm"
)

// StateIndexLogic 状态索引：维护 (state, org) 到活动 id 有序集合的映射
// 桶容量有界，是显式声明的资源上限
type StateIndexLogic struct {
	bucketCapacity int
}

// NewStateIndexLogic 创建状态索引
func NewStateIndexLogic(bucketCapacity int) *StateIndexLogic {
	return &StateIndexLogic{bucketCapacity: bucketCapacity}
}

// Insert 将活动插入 (state, org) 桶，桶满时返回容量错误
func (s *StateIndexLogic) Insert(tx *gorm.DB, state model.CampaignState, orgId, campaignId int64) error {
	var count int64
	if err := tx.Model(&model.StateIndexModel{}).
		Where("state = ? AND org_id = ?", state, orgId).
		Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count index bucket: %w", err)
	}
	if count >= int64(s.bucketCapacity) {
		return errs.Capacity(fmt.Sprintf("state index bucket (%s, %d)", state, orgId), s.bucketCapacity)
	}

	var maxPos int64
	if err := tx.Model(&model.StateIndexModel{}).
		Where("state = ? AND org_id = ?", state, orgId).
		Select("COALESCE(MAX(position), 0)").
		Scan(&maxPos).Error; err != nil {
		return fmt.Errorf("failed to read bucket position: %w", err)
	}

	entry := model.StateIndexModel{
		State:      state,
		OrgId:      orgId,
		CampaignId: campaignId,
		Position:   maxPos + 1,
	}
	if err := tx.Create(&entry).Error; err != nil {
		return fmt.Errorf("failed to insert index entry: %w", err)
	}
	return nil
}

// Move 将活动从 (from, org) 桶移入 (to, org) 桶，两步在同一事务内完成
func (s *StateIndexLogic) Move(tx *gorm.DB, campaignId, orgId int64, from, to model.CampaignState) error {
	var entry model.StateIndexModel
	err := tx.Where("campaign_id = ?", campaignId).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("campaign %d missing from state index", campaignId)
	}
	if err != nil {
		return fmt.Errorf("failed to load index entry: %w", err)
	}
	if entry.State != from || entry.OrgId != orgId {
		return fmt.Errorf("index entry mismatch for campaign %d: have (%s, %d), want (%s, %d)",
			campaignId, entry.State, entry.OrgId, from, orgId)
	}

	if err := tx.Delete(&entry).Error; err != nil {
		return fmt.Errorf("failed to remove index entry: %w", err)
	}
	return s.Insert(tx, to, orgId, campaignId)
}

// List 枚举 (state, org) 桶内的活动 id，按插入序返回
// 这是按状态查找活动的唯一读路径
func (s *StateIndexLogic) List(tx *gorm.DB, state model.CampaignState, orgId int64) ([]int64, error) {
	var ids []int64
	if err := tx.Model(&model.StateIndexModel{}).
		Where("state = ? AND org_id = ?", state, orgId).
		Order("position ASC").
		Pluck("campaign_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list index bucket: %w", err)
	}
	return ids, nil
}
