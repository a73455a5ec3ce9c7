package helpers

import (
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Prompts used across integration tests.
const (
	TablePrompt    = "Create a table with glass top and steel legs"
	BuildingPrompt = "Design a 3 story eco-friendly office building"
)

// CompleteBuildingSpec returns a specification that evaluates clean.
func CompleteBuildingSpec() spec.Specification {
	return spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "office"},
		Materials:  []string{"concrete", "steel", "glass"},
		Dimensions: map[string]string{"stories": "3", "area_m2": "400"},
		Features:   []string{"solar panels", "open floor plan"},
		Purpose:    "commercial",
	}
}

// MalformedSpec returns a specification with no design type.
func MalformedSpec() spec.Specification {
	return spec.Specification{}
}
