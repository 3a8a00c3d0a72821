package conditions

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
	dErrors "github.com/tomassolanoprieto/subprice/pkg/domain-errors"
)

func TestConditionHolds(t *testing.T) {
	tests := []struct {
		name      string
		condition Condition
		proposed  float64
		want      bool
	}{
		{"minimum met", Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50}, 75, true},
		{"minimum at threshold", Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50}, 50, true},
		{"minimum missed", Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50}, 30, false},
		{"maximum met", Condition{Field: "maxContractMonths", Comparator: schema.ComparatorMaximum, Threshold: 12}, 12, true},
		{"maximum missed", Condition{Field: "maxContractMonths", Comparator: schema.ComparatorMaximum, Threshold: 12}, 24, false},
		{"equals exact", Condition{Field: "mobileLines", Comparator: schema.ComparatorEquals, Threshold: 3}, 3, true},
		{"equals off by one", Condition{Field: "mobileLines", Comparator: schema.ComparatorEquals, Threshold: 3}, 4, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.condition.Holds(tt.proposed))
		})
	}
}

func TestValidateConditions(t *testing.T) {
	t.Run("sector field with numeric comparator", func(t *testing.T) {
		err := ValidateConditions(id.SectorEnergy, []Condition{
			{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50},
		})
		require.NoError(t, err)
	})

	t.Run("shared field is valid in any sector", func(t *testing.T) {
		err := ValidateConditions(id.SectorAlarms, []Condition{
			{Field: "desiredSavingsPercent", Comparator: schema.ComparatorMinimum, Threshold: 10},
		})
		require.NoError(t, err)
	})

	t.Run("repeated field ANDs and stays valid", func(t *testing.T) {
		err := ValidateConditions(id.SectorCommunications, []Condition{
			{Field: "internetSpeedMbps", Comparator: schema.ComparatorMinimum, Threshold: 300},
			{Field: "internetSpeedMbps", Comparator: schema.ComparatorMaximum, Threshold: 1000},
		})
		require.NoError(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		err := ValidateConditions(id.SectorEnergy, []Condition{
			{Field: "mobileLines", Comparator: schema.ComparatorMinimum, Threshold: 2},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFieldReference))
	})

	t.Run("unsupported comparator for field type", func(t *testing.T) {
		err := ValidateConditions(id.SectorEnergy, []Condition{
			{Field: "consumption", Comparator: schema.Comparator("between"), Threshold: 100},
		})
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidComparator))
	})

	t.Run("unknown sector", func(t *testing.T) {
		err := ValidateConditions(id.Sector("water"), nil)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnknownSector))
	})
}

func TestProfileIsEmpty(t *testing.T) {
	var p Profile
	assert.True(t, p.IsEmpty())

	p.Conditions = []Condition{{Field: "consumption", Comparator: schema.ComparatorMaximum, Threshold: 400}}
	assert.False(t, p.IsEmpty())
}
