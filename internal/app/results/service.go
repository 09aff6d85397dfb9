package results

import (
	"context"
	"errors"
	"fmt"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// ErrResultsHidden is returned while the results_visible toggle is off. The
// caller gets no tally data at all, not zeroed data.
var ErrResultsHidden = errors.New("results not visible")

// Service recomputes the published results from the full ballot set on every
// read. At the expected scale (low tens of thousands of ballots) recompute
// cost beats cache invalidation complexity.
type Service struct {
	parties    domain.PartyRepository
	candidates domain.CandidateRepository
	votes      domain.VoteRepository
	settings   domain.SettingsRepository
	totalSeats int
}

func NewService(
	parties domain.PartyRepository,
	candidates domain.CandidateRepository,
	votes domain.VoteRepository,
	settings domain.SettingsRepository,
	totalSeats int,
) *Service {
	return &Service{
		parties:    parties,
		candidates: candidates,
		votes:      votes,
		settings:   settings,
		totalSeats: totalSeats,
	}
}

// Published returns the results only when the visibility toggle allows it.
func (s *Service) Published(ctx context.Context) (domain.Results, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: load settings: %w", err)
	}
	if !settings.ResultsVisible {
		return domain.Results{}, ErrResultsHidden
	}
	return s.Compute(ctx)
}

// Compute tallies the ledger and apportions seats, skipping the visibility
// gate. The admin surface uses it directly.
func (s *Service) Compute(ctx context.Context) (domain.Results, error) {
	// Parties come back in display order, which also fixes the documented
	// apportionment tie-break.
	parties, err := s.parties.List(ctx)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: parties: %w", err)
	}
	candidates, err := s.candidates.List(ctx)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: candidates: %w", err)
	}
	votes, err := s.votes.List(ctx)
	if err != nil {
		return domain.Results{}, fmt.Errorf("results: votes: %w", err)
	}

	tallies := Tally(votes, parties, candidates)

	scores := make([]PartyScore, len(tallies))
	for i, tally := range tallies {
		scores[i] = PartyScore{Abbreviation: tally.Abbreviation, Netto: tally.Netto}
	}
	seatMap := Apportion(scores, s.totalSeats)
	for i := range tallies {
		tallies[i].Seats = seatMap[tallies[i].Abbreviation]
	}

	return domain.Results{
		Parties:     tallies,
		TotalVoters: int64(len(votes)),
		TotalSeats:  s.totalSeats,
	}, nil
}
