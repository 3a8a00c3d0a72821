package schema

import id "github.com/tomassolanoprieto/subprice/pkg/domain"

// spanishProvinces is the region vocabulary for geographic coverage. A policy
// covering "all" regions must list them explicitly; AllRegions gives admins
// that expansion so an empty coverage set stays distinct from full coverage.
var spanishProvinces = []string{
	"Álava", "Albacete", "Alicante", "Almería", "Asturias", "Ávila", "Badajoz", "Barcelona",
	"Burgos", "Cáceres", "Cádiz", "Cantabria", "Castellón", "Ciudad Real", "Córdoba", "Cuenca",
	"Gerona", "Granada", "Guadalajara", "Guipúzcoa", "Huelva", "Huesca", "Islas Baleares",
	"Jaén", "La Coruña", "La Rioja", "Las Palmas", "León", "Lérida", "Lugo", "Madrid", "Málaga",
	"Murcia", "Navarra", "Orense", "Palencia", "Pontevedra", "Salamanca", "Santa Cruz de Tenerife",
	"Segovia", "Sevilla", "Soria", "Tarragona", "Teruel", "Toledo", "Valencia", "Valladolid",
	"Vizcaya", "Zamora", "Zaragoza",
}

// AllRegions returns every region in the coverage vocabulary.
func AllRegions() []string {
	return append([]string{}, spanishProvinces...)
}

// providerCatalog lists the incumbent providers per sector, used to seed
// demo data and populate the currentProviderId vocabulary.
var providerCatalog = map[id.Sector][]string{
	id.SectorEnergy:         {"iberdrola", "endesa", "naturgy", "repsol"},
	id.SectorCommunications: {"movistar", "vodafone", "orange", "yoigo"},
	id.SectorAlarms:         {"securitas", "prosegur", "tyco"},
}

// ProviderCatalog returns the known incumbent providers for a sector.
func ProviderCatalog(sector id.Sector) []string {
	return append([]string{}, providerCatalog[sector]...)
}
