package profile

import (
	"context"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Store persists declared customer profiles, one per customer and sector.
//
// Implementations return pkg/platform/sentinel.ErrNotFound for a missing
// profile.
type Store interface {
	Save(ctx context.Context, profile Profile) error
	FindByCustomerAndSector(ctx context.Context, customerID id.CustomerID, sector id.Sector) (Profile, error)
	Delete(ctx context.Context, customerID id.CustomerID, sector id.Sector) error
}
