package conditions

import (
	"context"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Store persists condition profiles, one per customer and sector.
//
// Implementations return pkg/platform/sentinel.ErrNotFound for a missing
// profile.
type Store interface {
	Save(ctx context.Context, profile Profile) error
	FindByCustomerAndSector(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error)
}
