package challenge

import (
	"context"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// Noop passes every proof. Used when no verifier secret is configured; the
// challenge_required toggle still decides whether verification runs at all.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Verify(_ context.Context, _ string) (bool, error) {
	return true, nil
}

var _ domain.ChallengeVerifier = Noop{}
