// Package migrations holds the gormigrate versions applied at startup.
package migrations

import (
	"fmt"
	"time"

	gormigrate "github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

func Run(db *gorm.DB) error {
	if db == nil {
		return fmt.Errorf("migrations: nil db")
	}

	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "202509010001_init_schema",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&domain.Party{}, &domain.Candidate{}, &domain.Vote{}, &settingRow{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("votes", "candidates", "parties", "admin_settings")
			},
		},
		{
			ID: "202509010002_default_settings",
			Migrate: func(tx *gorm.DB) error {
				defaults := []settingRow{
					{Key: "results_visible", Value: "false"},
					{Key: "challenge_required", Value: "true"},
					{Key: "test_mode_enabled", Value: "false"},
				}
				for _, row := range defaults {
					if err := tx.Where(settingRow{Key: row.Key}).FirstOrCreate(&row).Error; err != nil {
						return err
					}
				}
				return nil
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Where("setting_key IN ?", []string{"results_visible", "challenge_required", "test_mode_enabled"}).
					Delete(&settingRow{}).Error
			},
		},
	})

	if err := m.Migrate(); err != nil {
		return fmt.Errorf("migrations: apply failed: %w", err)
	}

	return nil
}

// settingRow mirrors the admin_settings table without importing the storage
// package; migrations must stay self-contained per version.
type settingRow struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:setting_key;type:varchar(100);not null;uniqueIndex"`
	Value     string    `gorm:"column:setting_value;type:text"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (settingRow) TableName() string { return "admin_settings" }
