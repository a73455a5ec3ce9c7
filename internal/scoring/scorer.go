// Package scoring turns a Specification into its format-quality breakdown.
// Scoring is pure and deterministic: the same specification and prompt
// always produce the same breakdown.
package scoring

import (
	"strings"

	"github.com/specfoundry/design-orchestrator/internal/criteria"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Breakdown carries the four format sub-scores and their exact sum.
//
//	Completeness       0-4  populated required-field groups
//	MaterialRealism    0-3  share of materials in the known vocabulary
//	DimensionValidity  0-2  dimensions parse and fall in plausible ranges
//	TypeMatch          0-1  prompt vocabulary agrees with the design type
//	FormatScore        0-10 Completeness + MaterialRealism + DimensionValidity + TypeMatch
type Breakdown struct {
	Completeness      int `json:"completeness"`
	MaterialRealism   int `json:"material_realism"`
	DimensionValidity int `json:"dimension_validity"`
	TypeMatch         int `json:"type_match"`
	FormatScore       int `json:"format_score"`
}

// Score computes the breakdown for a specification against the originating
// prompt. An empty prompt leaves the type-match point granted: absent
// context never penalizes the specification.
func Score(sp spec.Specification, prompt string) Breakdown {
	set := criteria.ForType(sp.DesignType)

	b := Breakdown{
		Completeness:      completeness(set, sp),
		MaterialRealism:   materialRealism(sp),
		DimensionValidity: dimensionValidity(set, sp),
	}
	if set.TypeMatches(sp, prompt) {
		b.TypeMatch = 1
	}
	b.FormatScore = b.Completeness + b.MaterialRealism + b.DimensionValidity + b.TypeMatch
	return b
}

func completeness(set *criteria.Set, sp spec.Specification) int {
	n := 0
	for _, g := range set.Groups {
		if set.GroupSatisfied(sp, g) {
			n++
		}
	}
	return n
}

// materialRealism grades the material list against the known vocabulary:
// 3 when every entry is recognized, 2 when at least half are, 1 when at
// least one is, 0 when the list is empty or nothing is recognized.
func materialRealism(sp spec.Specification) int {
	total := 0
	known := 0
	for _, m := range sp.Materials {
		if strings.TrimSpace(m) == "" {
			continue
		}
		total++
		if criteria.KnownMaterial(m) {
			known++
		}
	}
	switch {
	case total == 0 || known == 0:
		return 0
	case known == total:
		return 3
	case known*2 >= total:
		return 2
	default:
		return 1
	}
}

// dimensionValidity grades the dimension map: 2 when every value parses and
// sits in its plausible range, 1 when at least one value parses, 0 when no
// dimensions are present or nothing parses.
func dimensionValidity(set *criteria.Set, sp spec.Specification) int {
	if !sp.HasDimensions() {
		return 0
	}
	total := 0
	parsed := 0
	valid := 0
	for _, name := range sp.DimensionNames() {
		total++
		v, ok := criteria.ParseDimension(sp.Dimensions[name])
		if !ok {
			continue
		}
		parsed++
		r, found := set.DimensionRanges[name]
		if !found {
			r = set.DefaultRange
		}
		if r.Contains(v) {
			valid++
		}
	}
	switch {
	case valid == total:
		return 2
	case parsed > 0:
		return 1
	default:
		return 0
	}
}
