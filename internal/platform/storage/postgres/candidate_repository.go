package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// CandidateRepository persists the candidate lists attached to parties.
type CandidateRepository struct {
	db *gorm.DB
}

func NewCandidateRepository(db *gorm.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

type candidateModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PartyID   string    `gorm:"column:party_id;index"`
	Name      string    `gorm:"column:name"`
	Position  int       `gorm:"column:position"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "candidates"
}

func (m candidateModel) toDomain() domain.Candidate {
	return domain.Candidate{
		ID:        domain.CandidateID(m.ID),
		PartyID:   domain.PartyID(m.PartyID),
		Name:      m.Name,
		Position:  m.Position,
		CreatedAt: m.CreatedAt,
	}
}

func fromDomainCandidate(c domain.Candidate) candidateModel {
	return candidateModel{
		ID:        string(c.ID),
		PartyID:   string(c.PartyID),
		Name:      c.Name,
		Position:  c.Position,
		CreatedAt: c.CreatedAt,
	}
}

func (r *CandidateRepository) BulkCreate(ctx context.Context, partyID domain.PartyID, candidates []domain.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	// One insert for the whole list avoids a round-trip per candidate.
	models := make([]candidateModel, len(candidates))
	for i, candidate := range candidates {
		if candidate.PartyID == "" {
			candidate.PartyID = partyID
		}
		models[i] = fromDomainCandidate(candidate)
	}

	if err := r.db.WithContext(ctx).Create(&models).Error; err != nil {
		return fmt.Errorf("gorm candidates: bulk create: %w", err)
	}
	return nil
}

func (r *CandidateRepository) FindByID(ctx context.Context, id domain.CandidateID) (domain.Candidate, error) {
	var model candidateModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", string(id)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Candidate{}, domain.ErrNotFound
		}
		return domain.Candidate{}, fmt.Errorf("gorm candidates: find: %w", err)
	}
	return model.toDomain(), nil
}

func (r *CandidateRepository) ListByParty(ctx context.Context, partyID domain.PartyID) ([]domain.Candidate, error) {
	var models []candidateModel
	if err := r.db.WithContext(ctx).
		Where("party_id = ?", string(partyID)).
		Order("position ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm candidates: list by party: %w", err)
	}
	return toDomainCandidates(models), nil
}

func (r *CandidateRepository) List(ctx context.Context) ([]domain.Candidate, error) {
	var models []candidateModel
	if err := r.db.WithContext(ctx).
		Order("party_id ASC").
		Order("position ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm candidates: list: %w", err)
	}
	return toDomainCandidates(models), nil
}

func toDomainCandidates(models []candidateModel) []domain.Candidate {
	result := make([]domain.Candidate, len(models))
	for i, model := range models {
		result[i] = model.toDomain()
	}
	return result
}

var _ domain.CandidateRepository = (*CandidateRepository)(nil)
