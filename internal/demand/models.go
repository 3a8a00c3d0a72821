package demand

import (
	"time"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

// Record is the anonymized projection of a customer's profile for one sector.
//
// Invariants:
//   - AnonymousID is opaque; it never encodes the customer identity
//   - Values holds sector-schema fields only; shared fields are explicit
//   - Records are regenerated when the underlying profile changes, never
//     mutated by a provider
type Record struct {
	AnonymousID       id.AnonymousID
	Sector            id.Sector
	Region            string
	CurrentProviderID string

	DesiredSavingsPercent float64
	MaxContractMonths     float64
	LastBillAmount        float64

	// Values carries the sector-specific fields keyed by schema field name.
	// Redaction removes keys entirely so an unentitled provider cannot
	// distinguish "hidden" from "not applicable".
	Values map[string]float64

	GeneratedAt time.Time
}

// Shared numeric field names, mirrored in the schema registry's shared set.
const (
	FieldDesiredSavingsPercent = "desiredSavingsPercent"
	FieldMaxContractMonths     = "maxContractMonths"
	FieldLastBillAmount        = "lastBillAmount"
)

// Value resolves a numeric field by name, covering both the shared fields
// and the sector-specific values. The bool reports presence.
func (r Record) Value(field string) (float64, bool) {
	switch field {
	case FieldDesiredSavingsPercent:
		return r.DesiredSavingsPercent, true
	case FieldMaxContractMonths:
		return r.MaxContractMonths, true
	case FieldLastBillAmount:
		return r.LastBillAmount, true
	}
	v, ok := r.Values[field]
	return v, ok
}

// Clone returns a deep copy so callers can redact without aliasing the
// stored record.
func (r Record) Clone() Record {
	out := r
	out.Values = make(map[string]float64, len(r.Values))
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}
