// Package improve repairs specifications mechanically, driven by issue
// codes. Repairs fill gaps with documented category defaults and never
// invent values; issue codes the engine does not recognize are no-ops.
package improve

import (
	"strconv"
	"strings"

	"github.com/specfoundry/design-orchestrator/internal/criteria"
	"github.com/specfoundry/design-orchestrator/internal/evaluation"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Engine applies issue-code-driven repairs. Stateless and safe for
// concurrent use.
type Engine struct{}

// New returns an Engine.
func New() *Engine {
	return &Engine{}
}

// Improve returns a new Specification with every recognized issue repaired.
// The input is never mutated. Improve is deterministic and idempotent:
// with no issues the clone equals the input, and re-running it on an
// already repaired specification changes nothing.
func (e *Engine) Improve(sp spec.Specification, issues []spec.Issue) spec.Specification {
	out := sp.Clone()
	for _, issue := range issues {
		e.apply(&out, issue)
	}
	return out
}

func (e *Engine) apply(sp *spec.Specification, issue spec.Issue) {
	if issue.Code == evaluation.CodeMalformedSpecification {
		if sp.DesignType == "" {
			sp.DesignType = spec.TypeGeneric
		}
		return
	}

	set := criteria.ForType(sp.DesignType)
	switch issue.Code {
	case criteria.CodeTypeUnclear:
		if sp.Field("subtype") == "" {
			setField(sp, "subtype", string(set.Type))
		}
	case criteria.CodeMaterialMissing:
		if !sp.HasMaterials() {
			sp.Materials = append(sp.Materials, set.DefaultMaterial)
		}
	case criteria.CodeMaterialUnsuitable:
		if len(set.StructuralMaterials) > 0 && !hasAnyOf(sp.Materials, set.StructuralMaterials) {
			sp.Materials = append(sp.Materials, set.StructuralMaterials[0])
		}
	case criteria.CodeDimensionsMissing:
		if !sp.HasDimensions() {
			sp.Dimensions = make(map[string]string, len(set.DefaultDimensions))
			for k, v := range set.DefaultDimensions {
				sp.Dimensions[k] = v
			}
		}
	case criteria.CodeDimensionUnparseable, criteria.CodeDimensionOutOfRange:
		repairDimensions(sp, set)
	case criteria.CodeRequiredFieldMissing:
		for field, value := range set.DefaultFields {
			if sp.Field(field) == "" {
				setField(sp, field, value)
			}
		}
	case criteria.CodePurposeMissing:
		if !set.GroupSatisfied(*sp, criteria.FieldGroup{Name: criteria.GroupPurpose}) {
			sp.Purpose = set.PurposeFor(*sp)
		}
	case criteria.CodeFeaturesMissing:
		if !sp.HasFeatures() {
			sp.Features = append(sp.Features, set.DefaultFeature)
		}
	case evaluation.CodeEcoFeaturesMissing:
		if !hasEcoFeature(sp.Features) {
			sp.Features = append(sp.Features, "energy efficient design")
		}
	}
	// Anything else: no applicable fix, leave the specification alone.
}

// repairDimensions replaces values that do not parse or fall outside the
// plausible range. The replacement is the category default for that
// dimension name when one exists, otherwise the nearest documented range
// bound.
func repairDimensions(sp *spec.Specification, set *criteria.Set) {
	for _, name := range sp.DimensionNames() {
		v, ok := criteria.ParseDimension(sp.Dimensions[name])
		r, found := set.DimensionRanges[name]
		if !found {
			r = set.DefaultRange
		}
		if ok && r.Contains(v) {
			continue
		}
		if def, has := set.DefaultDimensions[name]; has {
			sp.Dimensions[name] = def
			continue
		}
		bound := r.Min
		if ok && v > r.Max {
			bound = r.Max
		}
		sp.Dimensions[name] = strconv.FormatFloat(bound, 'f', -1, 64)
	}
}

func setField(sp *spec.Specification, name, value string) {
	if sp.Fields == nil {
		sp.Fields = make(map[string]string)
	}
	sp.Fields[name] = value
}

func hasEcoFeature(features []string) bool {
	for _, f := range features {
		if strings.Contains(strings.ToLower(f), "eco") || strings.Contains(strings.ToLower(f), "energy") ||
			strings.Contains(strings.ToLower(f), "solar") || strings.Contains(strings.ToLower(f), "sustainab") {
			return true
		}
	}
	return false
}

func hasAnyOf(materials, wanted []string) bool {
	for _, m := range materials {
		for _, w := range wanted {
			if m == w {
				return true
			}
		}
	}
	return false
}
