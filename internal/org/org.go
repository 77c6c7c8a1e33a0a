package org

import (
	"errors"
	"fmt"

	"github.com/gamedaoco/gamedao-protocol-sub001/internal/errs"
	"github.com/gamedaoco/gamedao-protocol-sub001/internal/model"
	"gorm.io/gorm"
)

// Provider 组织信息抽象接口，引擎只通过不透明的组织 id 与其交互
type Provider interface {
	// IsActive 组织是否处于可用状态
	IsActive(tx *gorm.DB, orgId int64) (bool, error)
	// Treasury 组织金库账户地址
	Treasury(tx *gorm.DB, orgId int64) (string, error)
}

// Registry 基于数据库组织表的 Provider 实现
type Registry struct{}

// NewRegistry 创建组织注册表
func NewRegistry() *Registry {
	return &Registry{}
}

// IsActive 组织是否处于可用状态
func (r *Registry) IsActive(tx *gorm.DB, orgId int64) (bool, error) {
	var o model.OrganizationModel
	err := tx.First(&o, orgId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to load organization %d: %w", orgId, err)
	}
	return o.Active, nil
}

// Treasury 组织金库账户地址
func (r *Registry) Treasury(tx *gorm.DB, orgId int64) (string, error) {
	var o model.OrganizationModel
	err := tx.First(&o, orgId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", errs.Validation("org_id", "organization %d does not exist", orgId)
	}
	if err != nil {
		return "", fmt.Errorf("failed to load organization %d: %w", orgId, err)
	}
	return o.Treasury, nil
}

// Create 创建组织
func (r *Registry) Create(tx *gorm.DB, o *model.OrganizationModel) error {
	if o.Name == "" {
		return errs.Validation("name", "organization name is required")
	}
	if o.Treasury == "" {
		return errs.Validation("treasury", "treasury account is required")
	}
	o.Active = true
	if err := tx.Create(o).Error; err != nil {
		return fmt.Errorf("failed to create organization: %w", err)
	}
	return nil
}

// Get 获取组织详情
func (r *Registry) Get(tx *gorm.DB, orgId int64) (*model.OrganizationModel, error) {
	var o model.OrganizationModel
	err := tx.First(&o, orgId).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Validation("org_id", "organization %d does not exist", orgId)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load organization %d: %w", orgId, err)
	}
	return &o, nil
}

// SetActive 启用/停用组织
func (r *Registry) SetActive(tx *gorm.DB, orgId int64, active bool) error {
	res := tx.Model(&model.OrganizationModel{}).Where("id = ?", orgId).Update("active", active)
	if res.Error != nil {
		return fmt.Errorf("failed to update organization %d: %w", orgId, res.Error)
	}
	if res.RowsAffected == 0 {
		return errs.Validation("org_id", "organization %d does not exist", orgId)
	}
	return nil
}
