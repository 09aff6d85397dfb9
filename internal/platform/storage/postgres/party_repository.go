package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// PartyRepository maps parties to GORM tables.
type PartyRepository struct {
	db *gorm.DB
}

func NewPartyRepository(db *gorm.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

type partyModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Name         string    `gorm:"column:name;uniqueIndex"`
	Abbreviation string    `gorm:"column:abbreviation;uniqueIndex"`
	Color        string    `gorm:"column:color"`
	LogoURL      string    `gorm:"column:logo_url"`
	DisplayOrder int       `gorm:"column:display_order"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (partyModel) TableName() string {
	return "parties"
}

func (m partyModel) toDomain() domain.Party {
	return domain.Party{
		ID:           domain.PartyID(m.ID),
		Name:         m.Name,
		Abbreviation: m.Abbreviation,
		Color:        m.Color,
		LogoURL:      m.LogoURL,
		DisplayOrder: m.DisplayOrder,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func fromDomainParty(p domain.Party) partyModel {
	return partyModel{
		ID:           string(p.ID),
		Name:         p.Name,
		Abbreviation: p.Abbreviation,
		Color:        p.Color,
		LogoURL:      p.LogoURL,
		DisplayOrder: p.DisplayOrder,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func (r *PartyRepository) Create(ctx context.Context, p domain.Party) error {
	model := fromDomainParty(p)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("gorm parties: create: %w", err)
	}
	return nil
}

func (r *PartyRepository) Update(ctx context.Context, p domain.Party) error {
	model := fromDomainParty(p)
	result := r.db.WithContext(ctx).Model(&partyModel{}).Where("id = ?", model.ID).Updates(map[string]any{
		"color":      model.Color,
		"logo_url":   model.LogoURL,
		"updated_at": model.UpdatedAt,
	})
	if result.Error != nil {
		return fmt.Errorf("gorm parties: update: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PartyRepository) FindByID(ctx context.Context, id domain.PartyID) (domain.Party, error) {
	var model partyModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Party{}, domain.ErrNotFound
		}
		return domain.Party{}, fmt.Errorf("gorm parties: find: %w", err)
	}
	return model.toDomain(), nil
}

func (r *PartyRepository) List(ctx context.Context) ([]domain.Party, error) {
	var models []partyModel
	if err := r.db.WithContext(ctx).
		// Display order first, abbreviation as the stable secondary key. The
		// apportionment tie-break relies on this ordering.
		Order("display_order ASC").
		Order("abbreviation ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm parties: list: %w", err)
	}

	result := make([]domain.Party, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result, nil
}

var _ domain.PartyRepository = (*PartyRepository)(nil)
