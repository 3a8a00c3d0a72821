package conditions

import (
	"time"

	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// Condition is one customer-declared threshold an incoming offer must meet.
// Multiple conditions on the same field are allowed and AND together.
type Condition struct {
	Field      string
	Comparator schema.Comparator
	Threshold  float64
}

// Holds reports whether the proposed value satisfies the condition.
func (c Condition) Holds(proposed float64) bool {
	switch c.Comparator {
	case schema.ComparatorMinimum:
		return proposed >= c.Threshold
	case schema.ComparatorMaximum:
		return proposed <= c.Threshold
	case schema.ComparatorEquals:
		return proposed == c.Threshold
	}
	return false
}

// Profile is a customer's declared acceptance conditions for one sector.
type Profile struct {
	CustomerID id.CustomerID
	Sector     id.Sector
	Conditions []Condition
	UpdatedAt  time.Time
}

// IsEmpty reports whether the customer declared no conditions.
//
// An empty profile auto-qualifies every offer in the sector: with nothing to
// fail, every offer passes. This is a deliberate default carried over from
// the product behavior, not a gap.
func (p Profile) IsEmpty() bool {
	return len(p.Conditions) == 0
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Conditions = append([]Condition{}, p.Conditions...)
	return out
}

// ValidateConditions checks every condition against the sector schema.
//
// Errors: CodeInvalidFieldReference for a field neither in the sector schema
// nor shared; CodeInvalidComparator when the field's type does not support
// the comparator.
func ValidateConditions(sector id.Sector, conds []Condition) error {
	sectorSchema, err := schema.SchemaFor(sector)
	if err != nil {
		return err
	}
	for _, c := range conds {
		field, ok := sectorSchema.Field(c.Field)
		if !ok {
			field, ok = schema.SharedField(c.Field)
		}
		if !ok {
			return dErrors.New(dErrors.CodeInvalidFieldReference,
				"field not in "+sector.String()+" schema: "+c.Field)
		}
		if !field.Supports(c.Comparator) {
			return dErrors.New(dErrors.CodeInvalidComparator,
				"comparator "+string(c.Comparator)+" not supported by field "+c.Field)
		}
	}
	return nil
}
