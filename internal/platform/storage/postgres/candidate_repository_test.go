package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
	"github.com/bramvdmeulen/tegenstem/internal/platform/ids"
)

func TestCandidateRepository_BulkCreate_ShouldPersistWholeList(t *testing.T) {
	db := setupPostgres(t)
	repo := NewCandidateRepository(db)
	gen := ids.NewGenerator()
	ctx := context.Background()

	partyID := domain.PartyID(gen.New())
	candidates := []domain.Candidate{
		{ID: domain.CandidateID(gen.New()), Name: "Lijsttrekker", Position: 1},
		{ID: domain.CandidateID(gen.New()), Name: "Tweede Kandidaat", Position: 2},
	}

	require.NoError(t, repo.BulkCreate(ctx, partyID, candidates))

	list, err := repo.ListByParty(ctx, partyID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Lijsttrekker", list[0].Name)
	assert.Equal(t, partyID, list[0].PartyID)
	assert.Equal(t, 2, list[1].Position)
}

func TestCandidateRepository_BulkCreate_WhenEmpty_ShouldBeNoop(t *testing.T) {
	db := setupPostgres(t)
	repo := NewCandidateRepository(db)

	require.NoError(t, repo.BulkCreate(context.Background(), "party", nil))
}

func TestCandidateRepository_ListByParty_ShouldReturnOnlyThatParty(t *testing.T) {
	db := setupPostgres(t)
	repo := NewCandidateRepository(db)
	gen := ids.NewGenerator()
	ctx := context.Background()

	alfa := domain.PartyID(gen.New())
	beta := domain.PartyID(gen.New())

	require.NoError(t, repo.BulkCreate(ctx, alfa, []domain.Candidate{
		{ID: domain.CandidateID(gen.New()), Name: "Alfa Een", Position: 1},
	}))
	require.NoError(t, repo.BulkCreate(ctx, beta, []domain.Candidate{
		{ID: domain.CandidateID(gen.New()), Name: "Beta Een", Position: 1},
		{ID: domain.CandidateID(gen.New()), Name: "Beta Twee", Position: 2},
	}))

	list, err := repo.ListByParty(ctx, beta)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, candidate := range list {
		assert.Equal(t, beta, candidate.PartyID)
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCandidateRepository_FindByID_WhenMissing_ShouldReturnNotFound(t *testing.T) {
	db := setupPostgres(t)
	repo := NewCandidateRepository(db)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
