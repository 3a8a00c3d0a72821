package domain

import dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"

// Sector identifies one of the service domains the marketplace covers.
// Invariant: the value must be one of the supported sectors.
//
// Usage: construct via ParseSector at trust boundaries to enforce the
// allowlist; direct casting bypasses validation.
type Sector string

const (
	SectorEnergy         Sector = "energy"
	SectorCommunications Sector = "communications"
	SectorAlarms         Sector = "alarms"
)

// validSectors is the single source of truth for the closed sector set.
var validSectors = map[Sector]bool{
	SectorEnergy:         true,
	SectorCommunications: true,
	SectorAlarms:         true,
}

// ParseSector constructs a Sector from external input.
//
// Errors: returns CodeUnknownSector when the value is empty or unsupported.
func ParseSector(s string) (Sector, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeUnknownSector, "sector cannot be empty")
	}
	sec := Sector(s)
	if !sec.IsValid() {
		return "", dErrors.New(dErrors.CodeUnknownSector, "unknown sector: "+s)
	}
	return sec, nil
}

// IsValid checks if the sector is one of the supported enum values.
func (s Sector) IsValid() bool {
	return validSectors[s]
}

func (s Sector) String() string {
	return string(s)
}

// Sectors returns the closed sector set in a stable order.
func Sectors() []Sector {
	return []Sector{SectorEnergy, SectorCommunications, SectorAlarms}
}
