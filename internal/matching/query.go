package matching

import (
	"github.com/tomassolanoprieto/subprice/internal/access"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// Range is an inclusive numeric filter bound. A nil side is unbounded.
type Range struct {
	Min *float64
	Max *float64
}

// Contains reports whether the value falls inside the range.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil && v > *r.Max {
		return false
	}
	return true
}

// Query is a provider's filtered search over one sector.
//
// Region and CurrentProviderID are exact-match attribute filters; Fields
// holds inclusive numeric ranges keyed by field name (shared or sector
// fields). An exact numeric match is a range with Min == Max.
type Query struct {
	Sector            id.Sector
	Region            string
	CurrentProviderID string
	Fields            map[string]Range
}

// validateEntitlement checks every filtered field against the schema and the
// provider's entitlements.
//
// Errors: CodeInvalidFieldReference for a field outside the sector schema,
// CodeFilterNotEntitled - naming the offending field - when the provider
// filters on a sector field it is not entitled to see.
func (q Query) validateEntitlement(policy access.Policy) error {
	sectorSchema, err := schema.SchemaFor(q.Sector)
	if err != nil {
		return err
	}
	for field := range q.Fields {
		if schema.IsSharedField(field) {
			continue
		}
		if _, ok := sectorSchema.Field(field); !ok {
			return dErrors.New(dErrors.CodeInvalidFieldReference,
				"field not in "+q.Sector.String()+" schema: "+field)
		}
		if !policy.EntitledTo(q.Sector, field) {
			return dErrors.New(dErrors.CodeFilterNotEntitled,
				"not entitled to filter on "+field)
		}
	}
	return nil
}
