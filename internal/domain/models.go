package domain

import (
	"time"
)

type (
	PartyID     string
	CandidateID string
	VoteID      string
)

// UnknownIdentity is stored when the network address of a caller could not be
// determined. Duplicate protection degrades but submission still goes through.
const UnknownIdentity = "unknown"

type Party struct {
	ID           PartyID     `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	Name         string      `gorm:"column:name;type:text;not null;uniqueIndex" json:"name"`
	Abbreviation string      `gorm:"column:abbreviation;type:varchar(20);not null;uniqueIndex" json:"abbreviation"`
	Color        string      `gorm:"column:color;type:varchar(7)" json:"color"`
	LogoURL      string      `gorm:"column:logo_url;type:text" json:"logo_url"`
	DisplayOrder int         `gorm:"column:display_order;not null;default:999" json:"display_order"`
	Candidates   []Candidate `gorm:"foreignKey:PartyID;constraint:OnDelete:CASCADE" json:"candidates,omitempty"`
	CreatedAt    time.Time   `gorm:"column:created_at;autoCreateTime" json:"-"`
	UpdatedAt    time.Time   `gorm:"column:updated_at;autoUpdateTime" json:"-"`
}

type Candidate struct {
	ID        CandidateID `gorm:"column:id;type:char(26);primaryKey" json:"id"`
	PartyID   PartyID     `gorm:"column:party_id;type:char(26);not null;index" json:"party_id"`
	Name      string      `gorm:"column:name;type:text;not null" json:"name"`
	Position  int         `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime" json:"-"`
}

// Vote is one accepted paired ballot: a party voted for and a party voted
// against, each optionally narrowed to a candidate. BallotToken is the durable
// credential handed back to the voter; ClientIdentity is the network/device
// identity resolved at acceptance time. Both carry unique indexes so the
// check-then-insert race is closed by the store, not by in-process locking.
type Vote struct {
	ID                 VoteID       `gorm:"column:id;type:char(26);primaryKey"`
	BallotToken        string       `gorm:"column:ballot_token;type:text;not null;uniqueIndex:idx_votes_ballot_token"`
	ClientIdentity     string       `gorm:"column:client_identity;type:text;not null;uniqueIndex:idx_votes_client_identity"`
	ForPartyID         PartyID      `gorm:"column:for_party_id;type:char(26);not null;index"`
	AgainstPartyID     PartyID      `gorm:"column:against_party_id;type:char(26);not null;index"`
	ForCandidateID     *CandidateID `gorm:"column:for_candidate_id;type:char(26)"`
	AgainstCandidateID *CandidateID `gorm:"column:against_candidate_id;type:char(26)"`
	FromToken          bool         `gorm:"column:resolved_from_token;not null;default:false"`
	CreatedAt          time.Time    `gorm:"column:created_at;autoCreateTime;index"`
}

// Settings is the typed view of the admin_settings key/value rows, loaded once
// per request so a toggle applies on the very next call.
type Settings struct {
	ResultsVisible    bool
	ChallengeRequired bool
	TestMode          bool
}

// PartyResult and CandidateResult are pure projections of the vote set. They
// are never persisted; every read recomputes them from scratch.
type PartyResult struct {
	PartyID      PartyID           `json:"id"`
	Name         string            `json:"name"`
	Abbreviation string            `json:"abbreviation"`
	Color        string            `json:"color"`
	LogoURL      string            `json:"logo_url"`
	Voorstemmen  int64             `json:"voorstemmen"`
	Tegenstemmen int64             `json:"tegenstemmen"`
	Netto        float64           `json:"netto"`
	Seats        int               `json:"seats"`
	Candidates   []CandidateResult `json:"candidates"`
}

type CandidateResult struct {
	CandidateID  CandidateID `json:"id"`
	Name         string      `json:"name"`
	Voorstemmen  int64       `json:"voorstemmen"`
	Tegenstemmen int64       `json:"tegenstemmen"`
}

type Results struct {
	Parties     []PartyResult `json:"results"`
	TotalVoters int64         `json:"total_voters"`
	TotalSeats  int           `json:"total_seats"`
}

func (Party) TableName() string { return "parties" }

func (Candidate) TableName() string { return "candidates" }

func (Vote) TableName() string { return "votes" }
