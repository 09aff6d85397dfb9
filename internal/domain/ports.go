package domain

import (
	"context"
	"time"
)

type PartyRepository interface {
	Create(ctx context.Context, p Party) error
	Update(ctx context.Context, p Party) error
	FindByID(ctx context.Context, id PartyID) (Party, error)
	List(ctx context.Context) ([]Party, error)
}

type CandidateRepository interface {
	BulkCreate(ctx context.Context, partyID PartyID, candidates []Candidate) error
	FindByID(ctx context.Context, id CandidateID) (Candidate, error)
	ListByParty(ctx context.Context, partyID PartyID) ([]Candidate, error)
	List(ctx context.Context) ([]Candidate, error)
}

// VoteRepository is the ballot ledger. Insert must enforce the unique indexes
// on ballot token and client identity, returning ErrDuplicate on conflict.
type VoteRepository interface {
	Insert(ctx context.Context, vote Vote) error
	ExistsByToken(ctx context.Context, token string) (bool, error)
	ExistsByIdentity(ctx context.Context, identity string) (bool, error)
	List(ctx context.Context) ([]Vote, error)
	Delete(ctx context.Context, id VoteID) error
	DeleteAll(ctx context.Context) error
}

type SettingsRepository interface {
	Load(ctx context.Context) (Settings, error)
	All(ctx context.Context) (map[string]string, error)
	Set(ctx context.Context, key, value string) error
}

// ChallengeVerifier wraps the external CAPTCHA service. The engine only
// consumes the pass/fail outcome.
type ChallengeVerifier interface {
	Verify(ctx context.Context, token string) (bool, error)
}

type Antifraud interface {
	Validate(ctx context.Context, identity string) error
}

type Clock interface {
	Now() time.Time
}
