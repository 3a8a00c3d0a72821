package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

func TestSchemaFor(t *testing.T) {
	t.Run("every sector has a registry row", func(t *testing.T) {
		for _, sector := range id.Sectors() {
			s, err := SchemaFor(sector)
			require.NoError(t, err, sector)
			assert.Equal(t, sector, s.Sector)
			assert.NotEmpty(t, s.Fields)
		}
	})

	t.Run("unknown sector fails", func(t *testing.T) {
		_, err := SchemaFor(id.Sector("water"))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownSector))
	})

	t.Run("energy catalog matches the sector contract", func(t *testing.T) {
		s, err := SchemaFor(id.SectorEnergy)
		require.NoError(t, err)
		assert.Equal(t,
			[]string{"consumption", "renewablePercentage", "powerCapacity", "peakHoursPercent"},
			s.FieldNames(),
		)
	})
}

func TestFieldLookup(t *testing.T) {
	s, err := SchemaFor(id.SectorCommunications)
	require.NoError(t, err)

	f, ok := s.Field("internetSpeedMbps")
	require.True(t, ok)
	assert.Equal(t, FieldNumber, f.Type)
	assert.Equal(t, "Mbps", f.Unit)
	assert.True(t, f.Supports(ComparatorMinimum))
	assert.True(t, f.Supports(ComparatorEquals))

	_, ok = s.Field("consumption")
	assert.False(t, ok, "energy field must not leak into communications")
}

func TestSharedFields(t *testing.T) {
	t.Run("shared numeric fields support all comparators", func(t *testing.T) {
		for _, f := range SharedFields() {
			assert.Equal(t, FieldNumber, f.Type, f.Name)
			assert.True(t, f.Supports(ComparatorMinimum), f.Name)
		}
	})

	t.Run("string attributes admit equals only", func(t *testing.T) {
		for _, name := range []string{"region", "currentProviderId"} {
			f, ok := SharedField(name)
			require.True(t, ok, name)
			assert.Equal(t, FieldString, f.Type)
			assert.False(t, f.Supports(ComparatorMinimum))
			assert.True(t, f.Supports(ComparatorEquals))
		}
	})

	t.Run("sector fields are not shared", func(t *testing.T) {
		assert.False(t, IsSharedField("consumption"))
		assert.True(t, IsSharedField("desiredSavingsPercent"))
	})
}

func TestParseComparator(t *testing.T) {
	for _, valid := range []string{"minimum", "maximum", "equals"} {
		_, err := ParseComparator(valid)
		assert.NoError(t, err, valid)
	}

	_, err := ParseComparator("greater_than")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidComparator))
}

func TestRegionsAndCatalog(t *testing.T) {
	regions := AllRegions()
	assert.Len(t, regions, 50)
	assert.Contains(t, regions, "Madrid")

	assert.Contains(t, ProviderCatalog(id.SectorEnergy), "iberdrola")
	assert.Contains(t, ProviderCatalog(id.SectorAlarms), "securitas")
	assert.Empty(t, ProviderCatalog(id.Sector("water")))
}
