package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// VoteRepository is the ballot ledger backed by Postgres. The unique indexes
// on ballot_token and client_identity are the serialization point for the
// one-ballot-per-identity rule.
type VoteRepository struct {
	db *gorm.DB
}

func NewVoteRepository(db *gorm.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

type voteModel struct {
	ID                 string    `gorm:"column:id;primaryKey"`
	BallotToken        string    `gorm:"column:ballot_token;uniqueIndex:idx_votes_ballot_token"`
	ClientIdentity     string    `gorm:"column:client_identity;uniqueIndex:idx_votes_client_identity"`
	ForPartyID         string    `gorm:"column:for_party_id;index"`
	AgainstPartyID     string    `gorm:"column:against_party_id;index"`
	ForCandidateID     *string   `gorm:"column:for_candidate_id"`
	AgainstCandidateID *string   `gorm:"column:against_candidate_id"`
	FromToken          bool      `gorm:"column:resolved_from_token"`
	CreatedAt          time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func (m voteModel) toDomain() domain.Vote {
	vote := domain.Vote{
		ID:             domain.VoteID(m.ID),
		BallotToken:    m.BallotToken,
		ClientIdentity: m.ClientIdentity,
		ForPartyID:     domain.PartyID(m.ForPartyID),
		AgainstPartyID: domain.PartyID(m.AgainstPartyID),
		FromToken:      m.FromToken,
		CreatedAt:      m.CreatedAt,
	}
	if m.ForCandidateID != nil {
		id := domain.CandidateID(*m.ForCandidateID)
		vote.ForCandidateID = &id
	}
	if m.AgainstCandidateID != nil {
		id := domain.CandidateID(*m.AgainstCandidateID)
		vote.AgainstCandidateID = &id
	}
	return vote
}

func fromDomainVote(v domain.Vote) voteModel {
	model := voteModel{
		ID:             string(v.ID),
		BallotToken:    v.BallotToken,
		ClientIdentity: v.ClientIdentity,
		ForPartyID:     string(v.ForPartyID),
		AgainstPartyID: string(v.AgainstPartyID),
		FromToken:      v.FromToken,
		CreatedAt:      v.CreatedAt,
	}
	if v.ForCandidateID != nil {
		id := string(*v.ForCandidateID)
		model.ForCandidateID = &id
	}
	if v.AgainstCandidateID != nil {
		id := string(*v.AgainstCandidateID)
		model.AgainstCandidateID = &id
	}
	return model
}

func (r *VoteRepository) Insert(ctx context.Context, vote domain.Vote) error {
	model := fromDomainVote(vote)
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("gorm votes: insert: %w", err)
	}
	return nil
}

func (r *VoteRepository) ExistsByToken(ctx context.Context, token string) (bool, error) {
	return r.exists(ctx, "ballot_token = ?", token)
}

func (r *VoteRepository) ExistsByIdentity(ctx context.Context, clientIdentity string) (bool, error) {
	return r.exists(ctx, "client_identity = ?", clientIdentity)
}

func (r *VoteRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where(query, arg).
		Limit(1).
		Count(&count).Error; err != nil {
		return false, fmt.Errorf("gorm votes: exists: %w", err)
	}
	return count > 0, nil
}

func (r *VoteRepository) List(ctx context.Context) ([]domain.Vote, error) {
	var models []voteModel
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("gorm votes: list: %w", err)
	}

	votes := make([]domain.Vote, len(models))
	for i, model := range models {
		votes[i] = model.toDomain()
	}
	return votes, nil
}

func (r *VoteRepository) Delete(ctx context.Context, id domain.VoteID) error {
	result := r.db.WithContext(ctx).Delete(&voteModel{}, "id = ?", string(id))
	if result.Error != nil {
		return fmt.Errorf("gorm votes: delete: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *VoteRepository) DeleteAll(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&voteModel{}).Error; err != nil {
		return fmt.Errorf("gorm votes: delete all: %w", err)
	}
	return nil
}

var _ domain.VoteRepository = (*VoteRepository)(nil)
