// Package extraction turns a natural-language prompt into a first-draft
// Specification using keyword and pattern heuristics. The output is a
// best-effort draft: the evaluation pipeline treats every field as
// potentially missing or malformed.
package extraction

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/specfoundry/design-orchestrator/internal/criteria"
	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// ErrEmptyPrompt reports a prompt with no extractable content.
var ErrEmptyPrompt = errors.New("prompt is empty")

// materialSynonyms maps canonical material names to prompt vocabulary, in
// fixed scan order so extraction stays deterministic.
var materialSynonyms = []struct {
	canonical string
	words     []string
}{
	{"steel", []string{"steel", "iron"}},
	{"metal", []string{"metal"}},
	{"aluminum", []string{"aluminum", "aluminium"}},
	{"concrete", []string{"concrete", "cement"}},
	{"wood", []string{"wood", "wooden", "timber", "lumber", "oak", "pine"}},
	{"glass", []string{"glass", "glazed"}},
	{"plastic", []string{"plastic", "polymer", "acrylic"}},
	{"carbon fiber", []string{"carbon fiber", "carbon fibre"}},
	{"leather", []string{"leather"}},
	{"fabric", []string{"fabric", "cloth", "upholster"}},
	{"stone", []string{"stone", "marble", "granite"}},
	{"ceramic", []string{"ceramic", "porcelain"}},
}

var featureWords = []string{
	"facade", "balcony", "terrace", "parking", "elevator", "stairs", "roof",
	"basement", "garden", "pool", "camera", "gps", "touchscreen", "foldable",
	"adjustable", "solar panels", "energy efficient", "waterproof",
}

var purposeWords = []string{
	"residential", "commercial", "office", "industrial", "retail", "dining",
	"storage", "aerial", "ceremonial", "transport", "gaming", "household",
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

var (
	storiesDigits = regexp.MustCompile(`(\d+)[-\s]*(?:story|storey|stories|floor|level)`)
	dimsMeters    = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m|meter|metre)s?\s*(?:x|by|\*)\s*(\d+(?:\.\d+)?)\s*(?:m|meter|metre)s?`)
	dimsFeet      = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:ft|feet|foot)\s*(?:x|by|\*)\s*(\d+(?:\.\d+)?)\s*(?:ft|feet|foot)`)
	heightMeters  = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:m|meter|metre)s?\s*(?:tall|high|height)`)
)

// Extractor is the rule-based prompt-to-specification generator. Stateless
// and safe for concurrent use.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Generate satisfies the training loop's generator contract.
func (e *Extractor) Generate(ctx context.Context, prompt string) (spec.Specification, error) {
	return e.Extract(prompt)
}

// Extract builds a draft Specification from the prompt. The only failure
// is a blank prompt; everything else yields a (possibly sparse) draft for
// the evaluator to critique.
func (e *Extractor) Extract(prompt string) (spec.Specification, error) {
	if strings.TrimSpace(prompt) == "" {
		return spec.Specification{}, ErrEmptyPrompt
	}
	lower := strings.ToLower(prompt)

	designType, subtype := detectType(lower)
	out := spec.Specification{
		DesignType: designType,
		Fields:     map[string]string{},
		Materials:  extractMaterials(lower),
		Dimensions: extractDimensions(lower, designType),
		Features:   extractFeatures(lower),
		Purpose:    extractPurpose(lower),
	}
	if subtype != "" {
		out.Fields["subtype"] = subtype
	}
	applyFallbacks(&out)
	return out, nil
}

// detectType scans the category keyword tables in fixed order and returns
// the first matching category plus the keyword that triggered it as the
// subtype. No match means generic with no subtype.
func detectType(lower string) (spec.DesignType, string) {
	for _, t := range spec.KnownTypes {
		set := criteria.ForType(t)
		for _, kw := range set.Keywords {
			if containsWord(lower, kw) {
				return t, kw
			}
		}
	}
	return spec.TypeGeneric, ""
}

// containsWord matches kw on word boundaries so "cart" never triggers
// "car".
func containsWord(lower, kw string) bool {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `s?\b`)
	return re.MatchString(lower)
}

func extractMaterials(lower string) []string {
	var out []string
	for _, entry := range materialSynonyms {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				out = append(out, entry.canonical)
				break
			}
		}
	}
	return out
}

func extractDimensions(lower string, designType spec.DesignType) map[string]string {
	dims := map[string]string{}

	if designType == spec.TypeBuilding {
		for word, n := range numberWords {
			if strings.Contains(lower, word+"-story") || strings.Contains(lower, word+" story") ||
				strings.Contains(lower, word+"-floor") || strings.Contains(lower, word+" floor") {
				dims["stories"] = fmt.Sprintf("%d", n)
				break
			}
		}
		if _, ok := dims["stories"]; !ok {
			if m := storiesDigits.FindStringSubmatch(lower); m != nil {
				dims["stories"] = m[1]
			}
		}
	}

	if m := dimsMeters.FindStringSubmatch(lower); m != nil {
		dims["length_m"] = m[1]
		dims["width_m"] = m[2]
	} else if m := dimsFeet.FindStringSubmatch(lower); m != nil {
		dims["length_ft"] = m[1]
		dims["width_ft"] = m[2]
	}
	if m := heightMeters.FindStringSubmatch(lower); m != nil {
		dims["height_m"] = m[1]
	}

	if len(dims) == 0 {
		return nil
	}
	return dims
}

func extractFeatures(lower string) []string {
	var out []string
	for _, f := range featureWords {
		if strings.Contains(lower, f) {
			out = append(out, f)
		}
	}
	return out
}

func extractPurpose(lower string) string {
	for _, p := range purposeWords {
		if containsWord(lower, p) {
			return p
		}
	}
	return ""
}

// applyFallbacks fills the purpose when the prompt stated none: the
// subtype override table first, then the category default for known
// categories. A generic draft keeps its purpose empty so the training loop
// repairs it explicitly.
func applyFallbacks(out *spec.Specification) {
	if out.Purpose != "" {
		return
	}
	if out.DesignType == spec.TypeGeneric {
		return
	}
	out.Purpose = criteria.ForType(out.DesignType).PurposeFor(*out)
}
