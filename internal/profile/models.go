package profile

import (
	"time"

	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// Profile is a customer's declared contract data for one sector: the raw
// attributes the anonymized demand record is projected from.
type Profile struct {
	CustomerID id.CustomerID
	Sector     id.Sector
	Attributes demand.Attributes
	UpdatedAt  time.Time
}

// Clone returns a deep copy of the profile.
func (p Profile) Clone() Profile {
	out := p
	values := make(map[string]float64, len(p.Attributes.Values))
	for k, v := range p.Attributes.Values {
		values[k] = v
	}
	out.Attributes.Values = values
	return out
}

// ValidateAttributes checks declared attributes against the sector schema.
// The current provider, when declared, must come from the sector's incumbent
// catalog so the demand projection stays filterable by a closed vocabulary.
//
// Errors: CodeInvalidInput for a missing or unknown region or an unknown
// current provider, CodeInvalidFieldReference for a value outside the
// sector schema.
func ValidateAttributes(sector id.Sector, attrs demand.Attributes) error {
	sectorSchema, err := schema.SchemaFor(sector)
	if err != nil {
		return err
	}
	if attrs.Region == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "region is required")
	}
	if !validRegion(attrs.Region) {
		return dErrors.New(dErrors.CodeInvalidInput, "unknown region: "+attrs.Region)
	}
	if attrs.CurrentProviderID != "" && !knownProvider(sector, attrs.CurrentProviderID) {
		return dErrors.New(dErrors.CodeInvalidInput,
			"unknown provider for "+sector.String()+": "+attrs.CurrentProviderID)
	}
	for field := range attrs.Values {
		if _, ok := sectorSchema.Field(field); !ok {
			return dErrors.New(dErrors.CodeInvalidFieldReference,
				"field not in "+sector.String()+" schema: "+field)
		}
	}
	return nil
}

func validRegion(region string) bool {
	for _, r := range schema.AllRegions() {
		if r == region {
			return true
		}
	}
	return false
}

func knownProvider(sector id.Sector, provider string) bool {
	for _, p := range schema.ProviderCatalog(sector) {
		if p == provider {
			return true
		}
	}
	return false
}
