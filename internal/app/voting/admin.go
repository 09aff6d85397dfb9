package voting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bramvdmeulen/tegenstem/internal/app/identity"
	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// BallotDetail is the administrative view of one ledger entry, with party and
// candidate names resolved for display.
type BallotDetail struct {
	ID                   domain.VoteID `json:"id"`
	BallotToken          string        `json:"ballot_token"`
	ClientIdentity       string        `json:"client_identity"`
	ForParty             string        `json:"for_party"`
	ForPartyAbbr         string        `json:"for_party_abbr"`
	AgainstParty         string        `json:"against_party"`
	AgainstPartyAbbr     string        `json:"against_party_abbr"`
	ForCandidateName     string        `json:"for_candidate,omitempty"`
	AgainstCandidateName string        `json:"against_candidate,omitempty"`
	FromToken            bool          `json:"resolved_from_token"`
	CreatedAt            time.Time     `json:"created_at"`
}

// ListBallots returns every ledger entry with full identity and selection
// detail. Caller authentication happens outside the engine.
func (s *Service) ListBallots(ctx context.Context) ([]BallotDetail, error) {
	votes, err := s.votes.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ballots: %w", err)
	}

	parties, err := s.parties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ballots: parties: %w", err)
	}
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list ballots: candidates: %w", err)
	}

	partyByID := make(map[domain.PartyID]domain.Party, len(parties))
	for _, p := range parties {
		partyByID[p.ID] = p
	}
	candidateByID := make(map[domain.CandidateID]domain.Candidate, len(candidates))
	for _, c := range candidates {
		candidateByID[c.ID] = c
	}

	details := make([]BallotDetail, len(votes))
	for i, vote := range votes {
		detail := BallotDetail{
			ID:               vote.ID,
			BallotToken:      vote.BallotToken,
			ClientIdentity:   vote.ClientIdentity,
			ForParty:         partyByID[vote.ForPartyID].Name,
			ForPartyAbbr:     partyByID[vote.ForPartyID].Abbreviation,
			AgainstParty:     partyByID[vote.AgainstPartyID].Name,
			AgainstPartyAbbr: partyByID[vote.AgainstPartyID].Abbreviation,
			FromToken:        vote.FromToken,
			CreatedAt:        vote.CreatedAt,
		}
		if vote.ForCandidateID != nil {
			detail.ForCandidateName = candidateByID[*vote.ForCandidateID].Name
		}
		if vote.AgainstCandidateID != nil {
			detail.AgainstCandidateName = candidateByID[*vote.AgainstCandidateID].Name
		}
		details[i] = detail
	}
	return details, nil
}

// AdminInsert appends a ballot bypassing identity resolution and the duplicate
// check, for manual corrections and testing. The stored identity is marked so
// it can never collide with a real voter.
func (s *Service) AdminInsert(ctx context.Context, req SubmitRequest) (domain.VoteID, error) {
	if err := s.validateSelection(ctx, req); err != nil {
		return "", err
	}

	vote := domain.Vote{
		ID:                 domain.VoteID(s.ids.New()),
		BallotToken:        s.ids.New(),
		ForPartyID:         req.ForPartyID,
		AgainstPartyID:     req.AgainstPartyID,
		ForCandidateID:     req.ForCandidateID,
		AgainstCandidateID: req.AgainstCandidateID,
		CreatedAt:          s.clock.Now(),
	}
	vote.ClientIdentity = identity.Mangle("admin", string(vote.ID))

	if err := s.votes.Insert(ctx, vote); err != nil {
		return "", fmt.Errorf("%w: admin insert: %w", ErrStoreUnavailable, err)
	}
	return vote.ID, nil
}

// DeleteBallot removes a single ledger entry by identifier.
func (s *Service) DeleteBallot(ctx context.Context, id domain.VoteID) error {
	if err := s.votes.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		return fmt.Errorf("delete ballot %s: %w", id, err)
	}
	return nil
}

// Reset wipes the whole ledger.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.votes.DeleteAll(ctx); err != nil {
		return fmt.Errorf("reset ballots: %w", err)
	}
	return nil
}
