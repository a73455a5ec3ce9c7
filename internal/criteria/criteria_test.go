package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specfoundry/design-orchestrator/internal/spec"
)

func codes(issues []spec.Issue) []string {
	out := make([]string, 0, len(issues))
	for _, i := range issues {
		out = append(out, i.Code)
	}
	return out
}

func severityOf(t *testing.T, issues []spec.Issue, code string) spec.Severity {
	t.Helper()
	for _, i := range issues {
		if i.Code == code {
			return i.Severity
		}
	}
	t.Fatalf("issue %q not found in %v", code, codes(issues))
	return spec.SeverityNone
}

func TestForType_FallsBackToGeneric(t *testing.T) {
	set := ForType(spec.DesignType("spaceship"))
	require.NotNil(t, set)
	assert.Equal(t, spec.TypeGeneric, set.Type)

	assert.Equal(t, spec.TypeBuilding, ForType(spec.TypeBuilding).Type)
}

func TestCheck_CompleteBuildingHasNoIssues(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "office building"},
		Materials:  []string{"steel", "concrete", "glass"},
		Dimensions: map[string]string{"stories": "5", "area_m2": "2000"},
		Features:   []string{"elevator", "solar panels"},
		Purpose:    "office",
	}

	issues := ForType(s.DesignType).Check(s)
	assert.Empty(t, issues)
}

func TestCheck_DimensionsMissingSeverityDependsOnCategory(t *testing.T) {
	tests := []struct {
		name       string
		designType spec.DesignType
		expected   spec.Severity
	}{
		{"building is load-bearing", spec.TypeBuilding, spec.SeverityMajor},
		{"vehicle is load-bearing", spec.TypeVehicle, spec.SeverityMajor},
		{"furniture is not", spec.TypeFurniture, spec.SeverityMinor},
		{"electronics is not", spec.TypeElectronics, spec.SeverityMinor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := spec.Specification{
				DesignType: tt.designType,
				Fields:     map[string]string{"subtype": "thing", "performance_specs": "fast", "components": "many"},
				Materials:  []string{"steel"},
				Purpose:    "testing",
			}
			issues := ForType(tt.designType).Check(s)
			assert.Equal(t, tt.expected, severityOf(t, issues, CodeDimensionsMissing))
		})
	}
}

func TestCheck_GlassOnlyBuildingIsMajor(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "tower"},
		Materials:  []string{"glass"},
		Dimensions: map[string]string{"stories": "10"},
		Features:   []string{"observation deck"},
		Purpose:    "tourism",
	}

	issues := ForType(s.DesignType).Check(s)
	assert.Equal(t, spec.SeverityMajor, severityOf(t, issues, CodeMaterialUnsuitable))
	assert.Equal(t, spec.SeverityMajor, spec.MaxSeverity(issues))
}

func TestCheck_UnrecognizedMaterialIsMinorOnce(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
		Materials:  []string{"oak", "unobtanium", "dreamstuff"},
		Dimensions: map[string]string{"length_ft": "6"},
		Features:   []string{"foldable"},
		Purpose:    "dining",
	}

	issues := ForType(s.DesignType).Check(s)
	require.Equal(t, []string{CodeMaterialUnrecognized}, codes(issues))
	assert.Equal(t, spec.SeverityMinor, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "unobtanium")
	assert.Contains(t, issues[0].Message, "dreamstuff")
}

func TestCheck_MissingMaterialsReportsOnlyMissing(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "chair"},
		Dimensions: map[string]string{"height_ft": "3"},
		Features:   []string{"cushioned"},
		Purpose:    "office",
	}

	issues := ForType(s.DesignType).Check(s)
	got := codes(issues)
	assert.Contains(t, got, CodeMaterialMissing)
	assert.NotContains(t, got, CodeMaterialUnrecognized)
	assert.NotContains(t, got, CodeMaterialUnsuitable)
}

func TestCheck_DimensionValues(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "warehouse"},
		Materials:  []string{"steel"},
		Dimensions: map[string]string{
			"stories": "200",  // out of range
			"area_m2": "tall", // unparseable
			"width_m": "40",   // fine
		},
		Features: []string{"loading dock"},
		Purpose:  "storage",
	}

	issues := ForType(s.DesignType).Check(s)
	got := codes(issues)
	assert.Contains(t, got, CodeDimensionOutOfRange)
	assert.Contains(t, got, CodeDimensionUnparseable)
	assert.NotContains(t, got, CodeDimensionsMissing)
}

func TestCheck_VehicleRequiredFields(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeVehicle,
		Fields:     map[string]string{"subtype": "drone"},
		Materials:  []string{"carbon fiber"},
		Dimensions: map[string]string{"length_ft": "1"},
		Features:   []string{"camera"},
		Purpose:    "aerial",
	}

	issues := ForType(s.DesignType).Check(s)
	var required int
	for _, i := range issues {
		if i.Code == CodeRequiredFieldMissing {
			required++
			assert.Equal(t, spec.SeverityMajor, i.Severity)
		}
	}
	assert.Equal(t, 2, required, "performance_specs and components are both required")
}

func TestCheck_Deterministic(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeGeneric,
		Dimensions: map[string]string{"b": "-1", "a": "0", "c": "x"},
	}

	first := ForType(s.DesignType).Check(s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, codes(first), codes(ForType(s.DesignType).Check(s)))
	}
}

func TestParseDimension(t *testing.T) {
	tests := []struct {
		in    string
		want  float64
		valid bool
	}{
		{"6", 6, true},
		{"6.5", 6.5, true},
		{" 42 ", 42, true},
		{"6 ft", 6, true},
		{"12feet", 12, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"tall", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDimension(tt.in)
			assert.Equal(t, tt.valid, ok)
			if tt.valid {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestKnownMaterial(t *testing.T) {
	assert.True(t, KnownMaterial("steel"))
	assert.True(t, KnownMaterial("Oak"))
	assert.True(t, KnownMaterial("reclaimed oak"))
	assert.False(t, KnownMaterial("unobtanium"))
	assert.False(t, KnownMaterial(""))
}

func TestTypeMatches(t *testing.T) {
	table := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
		Purpose:    "dining",
	}
	set := ForType(spec.TypeFurniture)

	assert.True(t, set.TypeMatches(table, "Create a table with glass top and steel legs"))
	assert.True(t, set.TypeMatches(table, ""), "empty prompt gets benefit of the doubt")
	assert.False(t, set.TypeMatches(table, "Design a two-story house with a garden"))

	generic := ForType(spec.TypeGeneric)
	assert.True(t, generic.TypeMatches(spec.Specification{DesignType: spec.TypeGeneric}, "anything at all"))
}

func TestPurposeFor_SubtypeOverrides(t *testing.T) {
	tests := []struct {
		designType spec.DesignType
		subtype    string
		want       string
	}{
		{spec.TypeVehicle, "drone", "aerial"},
		{spec.TypeFurniture, "throne", "ceremonial"},
		{spec.TypeBuilding, "library", "library"},
		{spec.TypeFurniture, "table", "dining"},
		{spec.TypeFurniture, "chair", "office"},
		{spec.TypeFurniture, "cabinet", "storage"},
		{spec.TypeFurniture, "bookcase", "dining"}, // no override, category default
		{spec.TypeBuilding, "warehouse", "commercial"},
	}

	for _, tt := range tests {
		t.Run(tt.subtype, func(t *testing.T) {
			s := spec.Specification{
				DesignType: tt.designType,
				Fields:     map[string]string{"subtype": tt.subtype},
			}
			assert.Equal(t, tt.want, ForType(tt.designType).PurposeFor(s))
		})
	}
}
