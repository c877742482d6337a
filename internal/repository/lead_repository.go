package repository

import (
	"fmt"

	"gorm.io/gorm"

	"docvoice/internal/model"
)

type LeadRepository struct {
	db *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{db: db}
}

func (r *LeadRepository) Create(lead *model.Lead) error {
	if err := r.db.Create(lead).Error; err != nil {
		return fmt.Errorf("create lead failed: %w", err)
	}
	return nil
}

func (r *LeadRepository) List() ([]model.Lead, error) {
	var leads []model.Lead
	if err := r.db.Order("created_at DESC").Find(&leads).Error; err != nil {
		return nil, fmt.Errorf("list leads failed: %w", err)
	}
	return leads, nil
}
