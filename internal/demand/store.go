package demand

import (
	"context"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Store persists anonymized demand records. Swap with concrete storage
// without touching the matching engine.
//
// Implementations return pkg/platform/sentinel.ErrNotFound for missing
// records.
type Store interface {
	// Upsert replaces the record published under its anonymous ID.
	Upsert(ctx context.Context, record Record) error

	// FindByAnonymousID fetches one record.
	FindByAnonymousID(ctx context.Context, anonymousID id.AnonymousID) (Record, error)

	// ListBySector returns every record for a sector, ordered by anonymous
	// ID ascending so results are deterministic for pagination.
	ListBySector(ctx context.Context, sector id.Sector) ([]Record, error)

	// Delete withdraws a record from matching.
	Delete(ctx context.Context, anonymousID id.AnonymousID) error
}
