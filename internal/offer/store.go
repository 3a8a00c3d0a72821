package offer

import (
	"context"
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Store persists offers and serializes their status transitions.
//
// Implementations return pkg/platform/sentinel.ErrNotFound for a missing
// offer and pkg/platform/sentinel.ErrConflict when a compare-and-swap loses
// the race.
type Store interface {
	Create(ctx context.Context, o Offer) error
	FindByID(ctx context.Context, offerID id.OfferID) (Offer, error)
	ListByProvider(ctx context.Context, providerID id.ProviderID) ([]Offer, error)
	ListByAnonymousID(ctx context.Context, anonymousID id.AnonymousID) ([]Offer, error)

	// TransitionStatus moves the offer from one status to another, guarded
	// by the version the caller read. It fails with ErrConflict when the
	// stored version differs, which also covers a concurrent transition
	// out of the expected status.
	TransitionStatus(ctx context.Context, offerID id.OfferID, from, to Status, version int64, at time.Time) (Offer, error)

	// ListQualifiedBefore returns qualified offers whose validity window
	// closed at or before the cutoff. Feeds the expiry sweep.
	ListQualifiedBefore(ctx context.Context, cutoff time.Time) ([]Offer, error)
}
