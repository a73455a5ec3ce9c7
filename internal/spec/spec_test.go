package spec

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Ordering(t *testing.T) {
	assert.True(t, SeverityNone < SeverityMinor)
	assert.True(t, SeverityMinor < SeverityMajor)
}

func TestSeverity_JSONRoundTrip(t *testing.T) {
	names := map[Severity]string{
		SeverityNone:  `"none"`,
		SeverityMinor: `"minor"`,
		SeverityMajor: `"major"`,
	}

	for sev, want := range names {
		data, err := json.Marshal(sev)
		require.NoError(t, err)
		assert.Equal(t, want, string(data))

		var back Severity
		require.NoError(t, json.Unmarshal(data, &back))
		assert.Equal(t, sev, back)
	}

	// Severity is nested inside persisted issues; the whole struct must
	// read back losslessly.
	issue := Issue{Code: "material_missing", Message: "no materials", Severity: SeverityMajor}
	data, err := json.Marshal(issue)
	require.NoError(t, err)
	var back Issue
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, issue, back)

	var bad Severity
	assert.Error(t, json.Unmarshal([]byte(`"catastrophic"`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`2`), &bad))
}

func TestMaxSeverity(t *testing.T) {
	tests := []struct {
		name     string
		issues   []Issue
		expected Severity
	}{
		{
			name:     "empty list is none",
			issues:   nil,
			expected: SeverityNone,
		},
		{
			name: "minor only",
			issues: []Issue{
				{Code: "dimensions_missing", Severity: SeverityMinor},
			},
			expected: SeverityMinor,
		},
		{
			name: "major dominates minor",
			issues: []Issue{
				{Code: "dimensions_missing", Severity: SeverityMinor},
				{Code: "material_missing", Severity: SeverityMajor},
				{Code: "purpose_missing", Severity: SeverityMinor},
			},
			expected: SeverityMajor,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, MaxSeverity(tt.issues))
		})
	}
}

func TestSpecification_Clone(t *testing.T) {
	original := Specification{
		DesignType: TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
		Materials:  []string{"wood"},
		Dimensions: map[string]string{"length_ft": "6"},
		Features:   []string{"foldable"},
		Purpose:    "dining",
	}

	clone := original.Clone()
	assert.True(t, original.Equal(clone))

	// Mutating the clone must not leak into the original.
	clone.Fields["subtype"] = "chair"
	clone.Materials[0] = "metal"
	clone.Dimensions["length_ft"] = "2"
	clone.Features[0] = "stackable"

	assert.Equal(t, "table", original.Fields["subtype"])
	assert.Equal(t, "wood", original.Materials[0])
	assert.Equal(t, "6", original.Dimensions["length_ft"])
	assert.Equal(t, "foldable", original.Features[0])
}

func TestSpecification_Equal(t *testing.T) {
	base := Specification{
		DesignType: TypeBuilding,
		Materials:  []string{"steel", "glass"},
		Dimensions: map[string]string{"stories": "5"},
		Features:   []string{"elevator"},
		Purpose:    "office",
	}

	assert.True(t, base.Equal(base.Clone()))

	changed := base.Clone()
	changed.Materials = append(changed.Materials, "wood")
	assert.False(t, base.Equal(changed))

	changed = base.Clone()
	changed.Purpose = "residential"
	assert.False(t, base.Equal(changed))
}

func TestSpecification_Presence(t *testing.T) {
	empty := Specification{DesignType: TypeGeneric}
	assert.False(t, empty.HasMaterials())
	assert.False(t, empty.HasDimensions())
	assert.False(t, empty.HasFeatures())

	blank := Specification{
		DesignType: TypeGeneric,
		Materials:  []string{"  ", ""},
		Features:   []string{"\t"},
	}
	assert.False(t, blank.HasMaterials())
	assert.False(t, blank.HasFeatures())
}

func TestSpecification_DimensionNamesSorted(t *testing.T) {
	s := Specification{
		DesignType: TypeBuilding,
		Dimensions: map[string]string{"width_m": "10", "area_m2": "200", "stories": "3"},
	}
	assert.Equal(t, []string{"area_m2", "stories", "width_m"}, s.DimensionNames())
}

func TestDesignType_IsKnown(t *testing.T) {
	assert.True(t, TypeBuilding.IsKnown())
	assert.True(t, TypeGeneric.IsKnown())
	assert.False(t, DesignType("spaceship").IsKnown())
}
