package access

import (
	"time"

	"github.com/tomassolanoprieto/subprice/internal/demand"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// Policy is a provider's entitlement record: which sectors it subscribes to,
// which fields it may see per sector, which regions it covers, and the
// subscription validity interval [ValidFrom, ValidUntil).
//
// Invariants:
//   - entitled field names per sector are a subset of that sector's schema
//   - a provider with no subscribed sectors has no query rights
//   - an empty region set means no coverage; "all regions" must list them
//     explicitly (schema.AllRegions gives admins the expansion)
type Policy struct {
	ProviderID     id.ProviderID
	Sectors        []id.Sector
	EntitledFields map[id.Sector][]string
	Regions        []string
	ValidFrom      time.Time
	ValidUntil     time.Time
	UpdatedAt      time.Time
}

// SubscribesTo reports whether the provider subscribes to the sector.
func (p Policy) SubscribesTo(sector id.Sector) bool {
	for _, s := range p.Sectors {
		if s == sector {
			return true
		}
	}
	return false
}

// CoversRegion reports whether the region is inside the coverage set.
func (p Policy) CoversRegion(region string) bool {
	for _, r := range p.Regions {
		if r == region {
			return true
		}
	}
	return false
}

// IsActiveAt reports whether t falls within [ValidFrom, ValidUntil).
func (p Policy) IsActiveAt(t time.Time) bool {
	if t.Before(p.ValidFrom) {
		return false
	}
	return t.Before(p.ValidUntil)
}

// CanQuery reports whether the provider may query the sector in the region
// at the given time. Expired or not-yet-active policies yield false, not an
// error, so entitlement boundaries never leak through error responses.
func (p Policy) CanQuery(sector id.Sector, region string, at time.Time) bool {
	return p.SubscribesTo(sector) && p.CoversRegion(region) && p.IsActiveAt(at)
}

// EntitledTo reports whether the provider may see the named sector field.
// Shared fields are visible to every subscribed provider.
func (p Policy) EntitledTo(sector id.Sector, field string) bool {
	if schema.IsSharedField(field) {
		return true
	}
	for _, f := range p.EntitledFields[sector] {
		if f == field {
			return true
		}
	}
	return false
}

// Redact returns a copy of the demand record retaining only shared fields
// plus the sector fields the policy entitles. Unentitled fields are omitted
// entirely, so a provider cannot distinguish "hidden" from "not applicable".
// Redacting an already-redacted record is a no-op.
func (p Policy) Redact(record demand.Record) demand.Record {
	out := record.Clone()
	for field := range out.Values {
		if !p.EntitledTo(record.Sector, field) {
			delete(out.Values, field)
		}
	}
	return out
}

// EntitlementUpdate is the full replacement payload for a policy's
// entitlements. Partial toggles are expressed by the caller reading the
// current policy and submitting the adjusted whole.
type EntitlementUpdate struct {
	Sectors        []id.Sector
	EntitledFields map[id.Sector][]string
	Regions        []string
	ValidFrom      time.Time
	ValidUntil     time.Time
}

// Validate checks the update against the sector schema registry.
//
// Errors: CodeUnknownSector for a sector outside the closed set,
// CodeInvalidFieldReference for an entitled field missing from its sector's
// schema, CodeInvalidInput for an inverted validity interval.
func (u EntitlementUpdate) Validate() error {
	for _, sector := range u.Sectors {
		if _, err := schema.SchemaFor(sector); err != nil {
			return err
		}
	}
	for sector, fields := range u.EntitledFields {
		sectorSchema, err := schema.SchemaFor(sector)
		if err != nil {
			return err
		}
		for _, field := range fields {
			if _, ok := sectorSchema.Field(field); !ok {
				return dErrors.New(dErrors.CodeInvalidFieldReference,
					"field not in "+sector.String()+" schema: "+field)
			}
		}
	}
	if !u.ValidUntil.After(u.ValidFrom) {
		return dErrors.New(dErrors.CodeInvalidInput, "validity interval must be non-empty")
	}
	return nil
}

// Apply produces the updated policy. Call Validate first; Apply assumes a
// valid update.
func (p Policy) Apply(u EntitlementUpdate, now time.Time) Policy {
	out := p
	out.Sectors = append([]id.Sector{}, u.Sectors...)
	out.EntitledFields = make(map[id.Sector][]string, len(u.EntitledFields))
	for sector, fields := range u.EntitledFields {
		out.EntitledFields[sector] = append([]string{}, fields...)
	}
	out.Regions = append([]string{}, u.Regions...)
	out.ValidFrom = u.ValidFrom
	out.ValidUntil = u.ValidUntil
	out.UpdatedAt = now
	return out
}

// Clone returns a deep copy of the policy.
func (p Policy) Clone() Policy {
	out := p
	out.Sectors = append([]id.Sector{}, p.Sectors...)
	out.EntitledFields = make(map[id.Sector][]string, len(p.EntitledFields))
	for sector, fields := range p.EntitledFields {
		out.EntitledFields[sector] = append([]string{}, fields...)
	}
	out.Regions = append([]string{}, p.Regions...)
	return out
}
