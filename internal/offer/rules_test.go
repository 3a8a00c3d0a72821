package offer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomassolanoprieto/subprice/internal/conditions"
	"github.com/tomassolanoprieto/subprice/internal/schema"
	id "github.com/tomassolanoprieto/subprice/pkg/domain"
)

func energyProfile(conds ...conditions.Condition) conditions.Profile {
	return conditions.Profile{Sector: id.SectorEnergy, Conditions: conds}
}

func TestEvaluate(t *testing.T) {
	renewableMin := conditions.Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMinimum, Threshold: 50}
	savingsMin := conditions.Condition{Field: "desiredSavingsPercent", Comparator: schema.ComparatorMinimum, Threshold: 10}

	tests := []struct {
		name       string
		proposed   map[string]float64
		profile    conditions.Profile
		qualified  bool
		failFields []string
	}{
		{
			name:      "empty profile auto-qualifies",
			proposed:  map[string]float64{"consumption": 300},
			profile:   energyProfile(),
			qualified: true,
		},
		{
			name:      "condition met",
			proposed:  map[string]float64{"renewablePercentage": 75},
			profile:   energyProfile(renewableMin),
			qualified: true,
		},
		{
			name:       "condition failed names the field",
			proposed:   map[string]float64{"renewablePercentage": 30},
			profile:    energyProfile(renewableMin),
			qualified:  false,
			failFields: []string{"renewablePercentage"},
		},
		{
			name:       "missing proposed field fails the condition",
			proposed:   map[string]float64{"consumption": 300},
			profile:    energyProfile(renewableMin),
			qualified:  false,
			failFields: []string{"renewablePercentage"},
		},
		{
			name:       "all failing fields reported, sorted",
			proposed:   map[string]float64{"renewablePercentage": 30, "desiredSavingsPercent": 5},
			profile:    energyProfile(renewableMin, savingsMin),
			qualified:  false,
			failFields: []string{"desiredSavingsPercent", "renewablePercentage"},
		},
		{
			name:     "same field twice ANDs, one failure one report",
			proposed: map[string]float64{"renewablePercentage": 30},
			profile: energyProfile(renewableMin,
				conditions.Condition{Field: "renewablePercentage", Comparator: schema.ComparatorMaximum, Threshold: 90}),
			qualified:  false,
			failFields: []string{"renewablePercentage"},
		},
		{
			name:      "threshold is inclusive for minimum",
			proposed:  map[string]float64{"renewablePercentage": 50},
			profile:   energyProfile(renewableMin),
			qualified: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verdict := Evaluate(tt.proposed, tt.profile)
			assert.Equal(t, tt.qualified, verdict.Qualified)
			assert.Equal(t, tt.failFields, verdict.FailedFields)
		})
	}
}
