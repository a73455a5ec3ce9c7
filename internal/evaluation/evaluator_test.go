package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specfoundry/design-orchestrator/internal/spec"
)

func completeBuilding() spec.Specification {
	return spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "office building"},
		Materials:  []string{"steel", "concrete", "glass"},
		Dimensions: map[string]string{"stories": "5", "area_m2": "2000"},
		Features:   []string{"elevator", "solar panels"},
		Purpose:    "office",
	}
}

func TestEvaluate_CompleteBuilding(t *testing.T) {
	result := New().Evaluate(completeBuilding(), "Design a 5-story office building")

	assert.Empty(t, result.Issues)
	assert.Equal(t, spec.SeverityNone, result.Severity)
	assert.Equal(t, FeedbackComplete, result.Feedback)
	assert.Equal(t, 10, result.Breakdown.FormatScore)
	assert.InDelta(t, 100.0, result.Score, 1e-9)
	for axis, v := range result.CriteriaBreakdown {
		assert.InDelta(t, 10.0, v, 1e-9, axis)
	}
}

func TestEvaluate_MalformedSpecification(t *testing.T) {
	result := New().Evaluate(spec.Specification{Materials: []string{"steel"}}, "anything")

	assert.Zero(t, result.Score)
	assert.Equal(t, spec.SeverityMajor, result.Severity)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, CodeMalformedSpecification, result.Issues[0].Code)
	assert.Zero(t, result.Breakdown.FormatScore, "degenerate path carries a zero breakdown")
	for _, v := range result.CriteriaBreakdown {
		assert.Zero(t, v)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeFurniture,
		Fields:     map[string]string{"subtype": "table"},
		Materials:  []string{"glass", "steel"},
		Purpose:    "dining",
	}
	prompt := "Create a table with glass top and steel legs"

	first := New().Evaluate(s, prompt)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, New().Evaluate(s, prompt))
	}
}

func TestEvaluate_ScoreMonotoneInMajorIssues(t *testing.T) {
	// Same breakdown, one extra major issue: required vehicle fields are
	// progressively removed while materials/dimensions stay untouched.
	base := spec.Specification{
		DesignType: spec.TypeVehicle,
		Fields: map[string]string{
			"subtype":           "truck",
			"performance_specs": "500hp",
			"components":        "engine, chassis",
		},
		Materials:  []string{"steel"},
		Dimensions: map[string]string{"length_ft": "20"},
		Features:   []string{"towing"},
		Purpose:    "transport",
	}

	oneMajor := base.Clone()
	delete(oneMajor.Fields, "performance_specs")

	twoMajor := oneMajor.Clone()
	delete(twoMajor.Fields, "components")

	e := New()
	s0 := e.Evaluate(base, "").Score
	s1 := e.Evaluate(oneMajor, "").Score
	s2 := e.Evaluate(twoMajor, "").Score

	assert.GreaterOrEqual(t, s0, s1)
	assert.GreaterOrEqual(t, s1, s2)
}

func TestEvaluate_FeedbackOrderedBySeverity(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.TypeBuilding,
		Fields:     map[string]string{"subtype": "tower"},
		Materials:  []string{"glass"}, // unsuitable alone, major
		Dimensions: map[string]string{"stories": "900"},
		Purpose:    "tourism",
	}

	result := New().Evaluate(s, "")
	require.NotEmpty(t, result.Issues)
	assert.Equal(t, spec.SeverityMajor, result.Issues[0].Severity, "majors come first")
	for i := 1; i < len(result.Issues); i++ {
		assert.LessOrEqual(t, result.Issues[i].Severity, result.Issues[i-1].Severity)
	}
	assert.Equal(t, result.Issues[0].Message, result.Feedback[:len(result.Issues[0].Message)])
}

func TestEvaluate_EcoPromptWithoutEcoFeatures(t *testing.T) {
	s := completeBuilding()
	s.Features = []string{"elevator", "hvac"}

	result := New().Evaluate(s, "Design a sustainable office building")
	var found bool
	for _, i := range result.Issues {
		if i.Code == CodeEcoFeaturesMissing {
			found = true
			assert.Equal(t, spec.SeverityMinor, i.Severity)
		}
	}
	assert.True(t, found)

	// Matching feature satisfies the demand.
	withEco := New().Evaluate(completeBuilding(), "Design a sustainable office building")
	for _, i := range withEco.Issues {
		assert.NotEqual(t, CodeEcoFeaturesMissing, i.Code)
	}
}

func TestEvaluate_UnknownTypeFallsBackToGeneric(t *testing.T) {
	s := spec.Specification{
		DesignType: spec.DesignType("spaceship"),
		Materials:  []string{"titanium"},
		Dimensions: map[string]string{"length_m": "30"},
		Features:   []string{"life support"},
	}

	result := New().Evaluate(s, "")
	assert.NotZero(t, result.Score, "generic fallback evaluates instead of failing")
	for _, i := range result.Issues {
		assert.NotEqual(t, CodeMalformedSpecification, i.Code)
	}
}

func TestSuggestions_MirrorIssueMessages(t *testing.T) {
	result := New().Evaluate(spec.Specification{DesignType: spec.TypeGeneric}, "")
	suggestions := result.Suggestions()
	require.Len(t, suggestions, len(result.Issues))
	for i, s := range suggestions {
		assert.Equal(t, result.Issues[i].Message, s)
	}
}
