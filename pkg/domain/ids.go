package domain

import (
	"unicode/utf8"

	"github.com/google/uuid"

	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// Typed UUID identifiers for the marketplace entities.
//
// Distinct types keep a ProviderID from ever being passed where a CustomerID
// is expected; the compiler enforces the distinction. Construct via the
// Parse* functions at trust boundaries; direct casting bypasses validation.
type (
	ProviderID uuid.UUID
	CustomerID uuid.UUID
	OfferID    uuid.UUID
)

// AnonymousID is the opaque identifier a demand record is published under.
// It never encodes or derives from the real customer identity; the mapping
// lives behind the identity directory and is crossed only on acceptance.
type AnonymousID string

func (id ProviderID) String() string { return uuid.UUID(id).String() }
func (id CustomerID) String() string { return uuid.UUID(id).String() }
func (id OfferID) String() string    { return uuid.UUID(id).String() }

func (id ProviderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CustomerID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OfferID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }

// ParseProviderID constructs a ProviderID from external input.
// Errors: CodeInvalidInput when the value is empty, malformed, or nil.
func ParseProviderID(s string) (ProviderID, error) {
	u, err := parseUUID(s, "provider id")
	return ProviderID(u), err
}

// ParseCustomerID constructs a CustomerID from external input.
func ParseCustomerID(s string) (CustomerID, error) {
	u, err := parseUUID(s, "customer id")
	return CustomerID(u), err
}

// ParseOfferID constructs an OfferID from external input.
func ParseOfferID(s string) (OfferID, error) {
	u, err := parseUUID(s, "offer id")
	return OfferID(u), err
}

// ParseAnonymousID validates the opaque record identifier. Any non-empty
// UTF-8 string is acceptable; the format is owned by the demand subsystem.
func ParseAnonymousID(s string) (AnonymousID, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "anonymous id cannot be empty")
	}
	if !utf8.ValidString(s) {
		return "", dErrors.New(dErrors.CodeInvalidInput, "anonymous id must be valid UTF-8")
	}
	return AnonymousID(s), nil
}

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+what)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" cannot be nil")
	}
	return u, nil
}
