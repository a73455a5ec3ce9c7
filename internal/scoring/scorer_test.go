package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/specfoundry/design-orchestrator/internal/spec"
)

func TestScore_TablePromptScenario(t *testing.T) {
	// Table with two known materials, a default purpose, no dimensions.
	s := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
		Materials:  []string{"glass", "steel"},
		Purpose:    "dining",
	}

	b := Score(s, "Create a table with glass top and steel legs")

	assert.Equal(t, 3, b.Completeness)
	assert.Equal(t, 3, b.MaterialRealism)
	assert.Equal(t, 0, b.DimensionValidity)
	assert.Equal(t, 1, b.TypeMatch)
	assert.Equal(t, 7, b.FormatScore)
}

func TestScore_CompleteBuildingIsPerfect(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "office building"},
		Materials:  []string{"steel", "concrete", "glass"},
		Dimensions: map[string]string{"stories": "5", "area_m2": "2000"},
		Features:   []string{"elevator", "hvac"},
		Purpose:    "office",
	}

	b := Score(s, "Design a 5-story office building")
	assert.Equal(t, 10, b.FormatScore)
	assert.Equal(t, 4, b.Completeness)
}

func TestScore_EmptySpecification(t *testing.T) {
	b := Score(spec.Specification{DesignType: spec.TypeGeneric}, "")

	assert.Equal(t, 0, b.Completeness)
	assert.Equal(t, 0, b.MaterialRealism)
	assert.Equal(t, 0, b.DimensionValidity)
	assert.Equal(t, 1, b.TypeMatch, "type match defaults to granted with no prompt")
	assert.Equal(t, 1, b.FormatScore)
}

func TestScore_FormatIsExactSum(t *testing.T) {
	specs := []spec.Specification{
		{DesignType: spec.TypeGeneric},
		{
			DesignType: spec.TypeFurniture,
			Fields:     map[string]string{"subtype": "chair"},
			Materials:  []string{"wood", "unobtanium"},
			Dimensions: map[string]string{"height_ft": "3", "width_ft": "bogus"},
			Purpose:    "office",
		},
		{
			DesignType: spec.TypeVehicle,
			Fields:     map[string]string{"subtype": "drone", "performance_specs": "30min flight"},
			Materials:  []string{"carbon fiber"},
			Dimensions: map[string]string{"length_ft": "1"},
			Features:   []string{"camera"},
			Purpose:    "aerial",
		},
	}

	for _, s := range specs {
		b := Score(s, "some prompt mentioning a drone and a chair")
		assert.Equal(t, b.Completeness+b.MaterialRealism+b.DimensionValidity+b.TypeMatch, b.FormatScore)
		assert.GreaterOrEqual(t, b.FormatScore, 0)
		assert.LessOrEqual(t, b.FormatScore, 10)
	}
}

func TestScore_NoPromptKeepsTypeMatch(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
	}

	assert.Equal(t, 1, Score(s, "").TypeMatch)
	assert.Equal(t, 0, Score(s, "Design a skyscraper").TypeMatch)
}

func TestScore_MaterialRealismTiers(t *testing.T) {
	tests := []struct {
		name      string
		materials []string
		want      int
	}{
		{"all known", []string{"wood", "steel"}, 3},
		{"half known", []string{"wood", "mystery"}, 2},
		{"one of three known", []string{"wood", "mystery", "puzzle"}, 1},
		{"none known", []string{"mystery"}, 0},
		{"empty", nil, 0},
		{"blank entries only", []string{" ", ""}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec.Specification{DesignType: spec.TypeGeneric, Materials: tt.materials}
			assert.Equal(t, tt.want, Score(s, "").MaterialRealism)
		})
	}
}

func TestScore_DimensionValidityTiers(t *testing.T) {
	tests := []struct {
		name string
		dims map[string]string
		want int
	}{
		{"absent", nil, 0},
		{"all valid", map[string]string{"stories": "5"}, 2},
		{"one parses but out of range", map[string]string{"stories": "500"}, 1},
		{"mixed parse", map[string]string{"stories": "5", "area_m2": "big"}, 1},
		{"nothing parses", map[string]string{"stories": "tall"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec.Specification{DesignType: spec.TypeBuilding, Dimensions: tt.dims}
			assert.Equal(t, tt.want, Score(s, "").DimensionValidity)
		})
	}
}
