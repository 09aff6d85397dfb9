package antifraud

import (
	"context"

	"github.com/bramvdmeulen/tegenstem/internal/domain"
)

// Noop accepts everything. Used when rate limiting is disabled.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Validate(_ context.Context, _ string) error {
	return nil
}

var _ domain.Antifraud = Noop{}
