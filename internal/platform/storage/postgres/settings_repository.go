package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

const (
	SettingResultsVisible    = "results_visible"
	SettingChallengeRequired = "challenge_required"
	SettingTestMode          = "test_mode_enabled"
)

// SettingsRepository reads and writes the admin_settings key/value rows. Load
// hits the table on every call; an admin toggle applies on the next request.
type SettingsRepository struct {
	db *gorm.DB
}

func NewSettingsRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

type settingModel struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement"`
	Key       string    `gorm:"column:setting_key;uniqueIndex"`
	Value     string    `gorm:"column:setting_value"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (settingModel) TableName() string {
	return "admin_settings"
}

func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	values, err := r.All(ctx)
	if err != nil {
		return domain.Settings{}, err
	}

	// Missing rows fall back to the conservative defaults: results hidden,
	// challenge on, test mode off.
	settings := domain.Settings{
		ResultsVisible:    false,
		ChallengeRequired: true,
		TestMode:          false,
	}
	if v, ok := values[SettingResultsVisible]; ok {
		settings.ResultsVisible = v == "true"
	}
	if v, ok := values[SettingChallengeRequired]; ok {
		settings.ChallengeRequired = v == "true"
	}
	if v, ok := values[SettingTestMode]; ok {
		settings.TestMode = v == "true"
	}
	return settings, nil
}

func (r *SettingsRepository) All(ctx context.Context) (map[string]string, error) {
	var models []settingModel
	if err := r.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm settings: list: %w", err)
	}

	values := make(map[string]string, len(models))
	for _, model := range models {
		values[model.Key] = model.Value
	}
	return values, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string) error {
	model := settingModel{Key: key, Value: value}
	err := r.db.WithContext(ctx).
		Where(settingModel{Key: key}).
		Assign(map[string]any{"setting_value": value}).
		FirstOrCreate(&model).Error
	if err != nil {
		return fmt.Errorf("gorm settings: set %s: %w", key, err)
	}
	return nil
}

var _ domain.SettingsRepository = (*SettingsRepository)(nil)
