// Package evaluation combines criteria checks, format scoring, and
// prompt-aware checks into a single evaluation verdict with a 0-100
// composite score and per-axis breakdown.
package evaluation

import (
	"math"
	"sort"
	"strings"

	"github.com/specfoundry/design-orchestrator/internal/criteria"
	"github.com/specfoundry/design-orchestrator/internal/scoring"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Issue codes owned by the evaluator rather than the criteria tables.
const (
	CodeMalformedSpecification = "malformed_specification"
	CodeEcoFeaturesMissing     = "eco_features_missing"
)

// Axis names of the criteria breakdown. Fixed set, each scored 0-10.
const (
	AxisStructuralIntegrity = "structural_integrity"
	AxisCostEfficiency      = "cost_efficiency"
	AxisSustainability      = "sustainability"
	AxisFeasibility         = "feasibility"
)

// FeedbackComplete is returned when an evaluation finds nothing to fix.
const FeedbackComplete = "Specification looks complete and well-formed."

// Result is the full evaluation verdict for one specification.
type Result struct {
	Score             float64            `json:"score"`
	CriteriaBreakdown map[string]float64 `json:"criteria_breakdown"`
	Issues            []spec.Issue       `json:"issues"`
	Severity          spec.Severity      `json:"severity"`
	Feedback          string             `json:"feedback"`
	Breakdown         scoring.Breakdown  `json:"score_breakdown"`
}

// Suggestions renders the issue messages as actionable suggestion strings,
// in the same severity-then-discovery order as the feedback text.
func (r Result) Suggestions() []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Message)
	}
	return out
}

var ecoKeywords = []string{"eco", "sustainab", "green", "solar", "energy-efficient", "energy efficient", "recycl"}

// Evaluator runs the full check-score-classify pipeline. It is stateless
// and safe for concurrent use.
type Evaluator struct{}

// New returns an Evaluator.
func New() *Evaluator {
	return &Evaluator{}
}

// Evaluate produces the verdict for a specification in the context of its
// originating prompt. It never fails: malformed input becomes a zero-score
// major result, and a panicking criteria check contributes no issues
// instead of aborting the evaluation.
func (e *Evaluator) Evaluate(sp spec.Specification, prompt string) Result {
	if strings.TrimSpace(string(sp.DesignType)) == "" {
		return malformedResult()
	}

	set := criteria.ForType(sp.DesignType)
	issues := runCheck(func() []spec.Issue { return set.Check(sp) })
	issues = append(issues, runCheck(func() []spec.Issue { return promptChecks(sp, prompt) })...)
	sortIssues(issues)

	breakdown := scoring.Score(sp, prompt)
	axes := criteriaBreakdown(breakdown, issues)

	return Result{
		Score:             composite(axes),
		CriteriaBreakdown: axes,
		Issues:            issues,
		Severity:          spec.MaxSeverity(issues),
		Feedback:          feedback(issues),
		Breakdown:         breakdown,
	}
}

func malformedResult() Result {
	issues := []spec.Issue{{
		Code:     CodeMalformedSpecification,
		Message:  "specification is malformed: design_type is missing",
		Severity: spec.SeverityMajor,
	}}
	return Result{
		Score: 0,
		CriteriaBreakdown: map[string]float64{
			AxisStructuralIntegrity: 0,
			AxisCostEfficiency:      0,
			AxisSustainability:      0,
			AxisFeasibility:         0,
		},
		Issues:   issues,
		Severity: spec.SeverityMajor,
		Feedback: feedback(issues),
	}
}

// runCheck isolates one check: a panic inside it yields zero issues rather
// than aborting the evaluation.
func runCheck(check func() []spec.Issue) (issues []spec.Issue) {
	defer func() {
		if recover() != nil {
			issues = nil
		}
	}()
	return check()
}

// promptChecks covers requirements stated in the prompt that the criteria
// tables cannot see. Currently: sustainability vocabulary in the prompt
// demands at least one matching feature.
func promptChecks(sp spec.Specification, prompt string) []spec.Issue {
	lower := strings.ToLower(prompt)
	wantsEco := false
	for _, kw := range ecoKeywords {
		if strings.Contains(lower, kw) {
			wantsEco = true
			break
		}
	}
	if !wantsEco {
		return nil
	}
	for _, f := range sp.Features {
		lf := strings.ToLower(f)
		for _, kw := range ecoKeywords {
			if strings.Contains(lf, kw) {
				return nil
			}
		}
	}
	return []spec.Issue{{
		Code:     CodeEcoFeaturesMissing,
		Message:  "prompt asks for sustainability but no eco features are specified",
		Severity: spec.SeverityMinor,
	}}
}

// sortIssues orders by descending severity, stable within a severity band
// so discovery order is preserved.
func sortIssues(issues []spec.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		return issues[i].Severity > issues[j].Severity
	})
}

func countBySeverity(issues []spec.Issue) (minor, major int) {
	for _, i := range issues {
		switch i.Severity {
		case spec.SeverityMinor:
			minor++
		case spec.SeverityMajor:
			major++
		}
	}
	return minor, major
}

// criteriaBreakdown derives the four named axes from the format sub-scores
// and the issue counts. Every axis is non-increasing in the major issue
// count, which keeps the composite score monotone.
func criteriaBreakdown(b scoring.Breakdown, issues []spec.Issue) map[string]float64 {
	minor, major := countBySeverity(issues)

	structural := 5*float64(b.MaterialRealism)/3 + 5*float64(b.DimensionValidity)/2
	cost := clamp10(10*float64(b.Completeness)/4 - float64(major))
	sustainability := clamp10(float64(b.FormatScore) - float64(minor) - 2*float64(major))
	feasibility := clamp10(10 - 2*float64(major) - float64(minor))

	return map[string]float64{
		AxisStructuralIntegrity: structural,
		AxisCostEfficiency:      cost,
		AxisSustainability:      sustainability,
		AxisFeasibility:         feasibility,
	}
}

// axisOrder fixes the summation order so the composite is bit-identical
// across runs regardless of map iteration.
var axisOrder = []string{
	AxisStructuralIntegrity,
	AxisCostEfficiency,
	AxisSustainability,
	AxisFeasibility,
}

func composite(axes map[string]float64) float64 {
	sum := 0.0
	for _, name := range axisOrder {
		sum += axes[name]
	}
	return round2(sum / float64(len(axisOrder)) * 10)
}

func feedback(issues []spec.Issue) string {
	if len(issues) == 0 {
		return FeedbackComplete
	}
	msgs := make([]string, 0, len(issues))
	for _, i := range issues {
		msgs = append(msgs, i.Message)
	}
	return strings.Join(msgs, "; ")
}

func clamp10(v float64) float64 {
	return math.Min(10, math.Max(0, v))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
