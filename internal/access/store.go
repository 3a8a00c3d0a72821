package access

import (
	"context"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Store persists provider access policies.
//
// Implementations return pkg/platform/sentinel.ErrNotFound when a provider
// has no policy.
type Store interface {
	Save(ctx context.Context, policy Policy) error
	FindByProvider(ctx context.Context, providerID id.ProviderID) (Policy, error)
}
