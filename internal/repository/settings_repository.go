package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"docvoice/internal/model"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the singleton settings row, or nil when none exists yet.
func (r *SettingsRepository) Get() (*model.Settings, error) {
	var s model.Settings
	if err := r.db.First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get settings failed: %w", err)
	}
	return &s, nil
}

// Save upserts the singleton row, bumping Version inside the transaction so
// pollers observe a strictly increasing counter.
func (r *SettingsRepository) Save(s *model.Settings) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var current model.Settings
		findErr := tx.First(&current).Error
		if findErr != nil && !errors.Is(findErr, gorm.ErrRecordNotFound) {
			return findErr
		}
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			s.Version = 1
			return tx.Create(s).Error
		}
		s.ID = current.ID
		s.Version = current.Version + 1
		return tx.Save(s).Error
	})
	if err != nil {
		return fmt.Errorf("save settings failed: %w", err)
	}
	return nil
}
