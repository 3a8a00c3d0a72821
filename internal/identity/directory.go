// Package identity guards the mapping between anonymous demand records and
// real customers.
//
// The mapping is the marketplace's privacy boundary: matching and offer
// submission only ever see anonymous IDs, and the full contact record is
// resolved exactly once, when a customer accepts an offer. Everything else
// goes through CustomerFor, which yields the bare customer ID for internal
// plumbing (condition lookup, notification routing) without exposing
// contact data.
package identity

import (
	"context"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// CustomerContact is the personal data revealed to a provider on acceptance.
type CustomerContact struct {
	CustomerID id.CustomerID
	FullName   string
	Email      string
	Phone      string
}

// Directory assigns and resolves anonymous identifiers.
//
// Implementations return pkg/platform/sentinel.ErrNotFound when an anonymous
// ID has no mapping.
type Directory interface {
	// Assign returns the anonymous ID for a customer in a sector, creating
	// one on first use. The ID is stable across demand-record rebuilds so
	// in-flight offers keep their target.
	Assign(ctx context.Context, customerID id.CustomerID, sector id.Sector) (id.AnonymousID, error)

	// CustomerFor resolves the customer behind an anonymous ID. Internal
	// use only; never returned to providers.
	CustomerFor(ctx context.Context, anonymousID id.AnonymousID) (id.CustomerID, error)

	// Resolve returns the customer's contact record. Only the offer
	// acceptance path may call this.
	Resolve(ctx context.Context, anonymousID id.AnonymousID) (CustomerContact, error)
}
