// Package results turns the accumulated ballot set into party/candidate
// tallies and a D'Hondt seat distribution. Tallies and seats are pure
// projections: nothing here is persisted, every read recomputes from scratch.
package results

import (
	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// TegenstemWeight is the asymmetric weight of an against-vote in the netto
// score: a for-vote counts fully, an against-vote counts half against its
// target.
const TegenstemWeight = 0.5

// Tally aggregates ballots into per-party and per-candidate counts. Parties
// and candidates without any ballots still appear with zero counts; filtering
// is not this function's business. The function is pure and safe to call
// concurrently with ballot submission: a ballot either is in the input slice
// or it is not.
func Tally(votes []domain.Vote, parties []domain.Party, candidates []domain.Candidate) []domain.PartyResult {
	voorByParty := make(map[domain.PartyID]int64, len(parties))
	tegenByParty := make(map[domain.PartyID]int64, len(parties))
	voorByCandidate := make(map[domain.CandidateID]int64, len(candidates))
	tegenByCandidate := make(map[domain.CandidateID]int64, len(candidates))

	for _, vote := range votes {
		voorByParty[vote.ForPartyID]++
		tegenByParty[vote.AgainstPartyID]++
		if vote.ForCandidateID != nil {
			voorByCandidate[*vote.ForCandidateID]++
		}
		if vote.AgainstCandidateID != nil {
			tegenByCandidate[*vote.AgainstCandidateID]++
		}
	}

	candidatesByParty := make(map[domain.PartyID][]domain.CandidateResult)
	for _, candidate := range candidates {
		candidatesByParty[candidate.PartyID] = append(candidatesByParty[candidate.PartyID], domain.CandidateResult{
			CandidateID:  candidate.ID,
			Name:         candidate.Name,
			Voorstemmen:  voorByCandidate[candidate.ID],
			Tegenstemmen: tegenByCandidate[candidate.ID],
		})
	}

	tallies := make([]domain.PartyResult, len(parties))
	for i, party := range parties {
		voor := voorByParty[party.ID]
		tegen := tegenByParty[party.ID]
		tallies[i] = domain.PartyResult{
			PartyID:      party.ID,
			Name:         party.Name,
			Abbreviation: party.Abbreviation,
			Color:        party.Color,
			LogoURL:      party.LogoURL,
			Voorstemmen:  voor,
			Tegenstemmen: tegen,
			Netto:        float64(voor) - TegenstemWeight*float64(tegen),
			Candidates:   candidatesByParty[party.ID],
		}
	}
	return tallies
}
