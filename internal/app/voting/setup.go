package voting

import (
	"context"
	"fmt"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// CreateParty registers a party and its candidate list for the voting round.
// Rounds are set up before voting opens; parties are immutable afterwards
// except for the cosmetic fields handled by UpdateAppearance.
func (s *Service) CreateParty(ctx context.Context, party domain.Party, candidates []domain.Candidate) (domain.Party, error) {
	if party.Name == "" || party.Abbreviation == "" {
		return domain.Party{}, fmt.Errorf("%w: name and abbreviation required", ErrPartyInvalid)
	}

	now := s.clock.Now()
	party.ID = domain.PartyID(s.ids.New())
	party.CreatedAt = now
	party.UpdatedAt = now

	created := make([]domain.Candidate, len(candidates))
	for i, candidate := range candidates {
		candidate.ID = domain.CandidateID(s.ids.New())
		candidate.PartyID = party.ID
		if candidate.Position == 0 {
			candidate.Position = i + 1
		}
		candidate.CreatedAt = now
		created[i] = candidate
	}

	if err := s.parties.Create(ctx, party); err != nil {
		return domain.Party{}, err
	}
	if err := s.candidates.BulkCreate(ctx, party.ID, created); err != nil {
		return domain.Party{}, err
	}

	party.Candidates = created
	return party, nil
}

// UpdateAppearance touches only the cosmetic party fields (color, logo).
func (s *Service) UpdateAppearance(ctx context.Context, id domain.PartyID, color, logoURL string) error {
	party, err := s.parties.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if color != "" {
		party.Color = color
	}
	party.LogoURL = logoURL
	party.UpdatedAt = s.clock.Now()
	return s.parties.Update(ctx, party)
}

// ListParties returns all parties in display order.
func (s *Service) ListParties(ctx context.Context) ([]domain.Party, error) {
	return s.parties.List(ctx)
}

// ListCandidates returns a party's list in ballot position order.
func (s *Service) ListCandidates(ctx context.Context, partyID domain.PartyID) ([]domain.Candidate, error) {
	return s.candidates.ListByParty(ctx, partyID)
}
