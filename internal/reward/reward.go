// Package reward derives the scalar training signal from an evaluation
// verdict. The policy is rule-based and deterministic; there are no
// learned parameters.
package reward

import (
	"math"

	"github.com/specfoundry/design-orchestrator/internal/evaluation"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Base rewards per overall severity.
const (
	BaseClean = 1.0
	BaseMinor = 0.2
	BaseMajor = -1.0
)

// Compute maps an evaluation result to a reward in [-1, 1].
//
// The base reward picked by severity is scaled multiplicatively by
// format_score/10, so a format score of 0 always yields exactly 0 and a
// major-severity result can never be rewarded positively.
func Compute(result evaluation.Result) float64 {
	var base float64
	switch result.Severity {
	case spec.SeverityNone:
		base = BaseClean
	case spec.SeverityMinor:
		base = BaseMinor
	default:
		base = BaseMajor
	}
	v := round4(base * float64(result.Breakdown.FormatScore) / 10)
	if v == 0 {
		return 0 // never IEEE -0 on the wire
	}
	return v
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
