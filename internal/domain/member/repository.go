package member

import (
	"context"
)

// Repository defines the operations for persisting and retrieving Member entities.
type Repository interface {
	Create(ctx context.Context, m *Member) error
	GetByID(ctx context.Context, id string) (*Member, error)
}

// Lookup supplies coarse birthday candidates for a cycle.
// Implementations must return every member whose stored month/day is one of the
// window's pairs. Returning extra members is allowed; the matcher re-filters.
type Lookup interface {
	FetchCandidates(ctx context.Context, window CandidateWindow) ([]Member, error)
}
