// Package schema is the static catalog of per-sector field definitions.
//
// The registry is the single abstraction point for sector-specific fields:
// access policies validate entitlements against it, condition profiles
// validate thresholds against it, and the matching and evaluation engines
// consume it uniformly. Adding a sector means adding a registry row here,
// not a code branch in every consumer.
package schema

import (
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

// FieldType describes the value kind a field carries.
type FieldType string

const (
	FieldNumber FieldType = "number"
	FieldString FieldType = "string"
)

// Comparator is an operation a condition or filter may apply to a field.
type Comparator string

const (
	ComparatorMinimum Comparator = "minimum"
	ComparatorMaximum Comparator = "maximum"
	ComparatorEquals  Comparator = "equals"
)

// ParseComparator constructs a Comparator from external input.
// Errors: CodeInvalidComparator when the value is empty or unsupported.
func ParseComparator(s string) (Comparator, error) {
	switch Comparator(s) {
	case ComparatorMinimum, ComparatorMaximum, ComparatorEquals:
		return Comparator(s), nil
	}
	return "", dErrors.New(dErrors.CodeInvalidComparator, "unknown comparator: "+s)
}

// FieldDef describes one field of a sector schema.
type FieldDef struct {
	Name        string
	Type        FieldType
	Unit        string
	Comparators []Comparator
}

// Supports reports whether the field accepts the given comparator.
func (f FieldDef) Supports(c Comparator) bool {
	for _, supported := range f.Comparators {
		if supported == c {
			return true
		}
	}
	return false
}

// Schema is the full field catalog for one sector.
type Schema struct {
	Sector id.Sector
	Fields []FieldDef
}

// Field looks up a sector field definition by name.
func (s Schema) Field(name string) (FieldDef, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// FieldNames returns the sector field names in registry order.
func (s Schema) FieldNames() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

var numericComparators = []Comparator{ComparatorMinimum, ComparatorMaximum, ComparatorEquals}

func numberField(name, unit string) FieldDef {
	return FieldDef{Name: name, Type: FieldNumber, Unit: unit, Comparators: numericComparators}
}

// registry holds the per-sector field catalogs. This data table replaces the
// switch-on-sector branches that would otherwise spread across consumers.
var registry = map[id.Sector]Schema{
	id.SectorEnergy: {
		Sector: id.SectorEnergy,
		Fields: []FieldDef{
			numberField("consumption", "kWh"),
			numberField("renewablePercentage", "%"),
			numberField("powerCapacity", "kW"),
			numberField("peakHoursPercent", "%"),
		},
	},
	id.SectorCommunications: {
		Sector: id.SectorCommunications,
		Fields: []FieldDef{
			numberField("mobileLines", "lines"),
			numberField("internetSpeedMbps", "Mbps"),
			numberField("mobileDataGB", "GB"),
			numberField("tvChannels", "channels"),
		},
	},
	id.SectorAlarms: {
		Sector: id.SectorAlarms,
		Fields: []FieldDef{
			numberField("cameraCount", "cameras"),
			numberField("sensorCount", "sensors"),
			numberField("responseTimeSeconds", "s"),
		},
	},
}

// sharedFields are the sector-agnostic numeric fields every demand record
// carries. They are always visible and always filterable regardless of
// entitlement.
var sharedFields = []FieldDef{
	numberField("desiredSavingsPercent", "%"),
	numberField("maxContractMonths", "months"),
	numberField("lastBillAmount", "EUR"),
}

// sharedAttributes are the non-numeric shared record attributes; they admit
// exact matching only.
var sharedAttributes = []FieldDef{
	{Name: "region", Type: FieldString, Comparators: []Comparator{ComparatorEquals}},
	{Name: "currentProviderId", Type: FieldString, Comparators: []Comparator{ComparatorEquals}},
}

// SchemaFor returns the field catalog for a sector.
// Errors: CodeUnknownSector for anything outside the closed sector set.
func SchemaFor(sector id.Sector) (Schema, error) {
	s, ok := registry[sector]
	if !ok {
		return Schema{}, dErrors.New(dErrors.CodeUnknownSector, "no schema for sector: "+sector.String())
	}
	return s, nil
}

// SharedFields returns the sector-agnostic numeric fields.
func SharedFields() []FieldDef {
	return append([]FieldDef{}, sharedFields...)
}

// SharedField looks up a shared field or attribute by name.
func SharedField(name string) (FieldDef, bool) {
	for _, f := range sharedFields {
		if f.Name == name {
			return f, true
		}
	}
	for _, f := range sharedAttributes {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// IsSharedField reports whether the name is a sector-agnostic field or
// attribute present on every demand record.
func IsSharedField(name string) bool {
	_, ok := SharedField(name)
	return ok
}
