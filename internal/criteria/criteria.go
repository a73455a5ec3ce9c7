// Package criteria holds the per-design-type rule tables and validation
// checks. Every check is a pure function over a Specification; checks never
// fail and unknown design types fall back to the generic criteria set.
package criteria

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/specfoundry/design-orchestrator/internal/spec"
)

// Issue codes emitted by criteria checks. The improvement engine dispatches
// on these, so they are part of the internal contract.
const (
	CodeTypeUnclear          = "type_unclear"
	CodeMaterialMissing      = "material_missing"
	CodeMaterialUnrecognized = "material_unrecognized"
	CodeMaterialUnsuitable   = "material_unsuitable"
	CodeDimensionsMissing    = "dimensions_missing"
	CodeDimensionUnparseable = "dimension_unparseable"
	CodeDimensionOutOfRange  = "dimension_out_of_range"
	CodeRequiredFieldMissing = "required_field_missing"
	CodePurposeMissing       = "purpose_missing"
	CodeFeaturesMissing      = "features_missing"
)

// Range bounds a plausible dimension value for a category.
type Range struct {
	Min float64
	Max float64
}

// Contains reports whether v lies within the range, inclusive.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// FieldGroup is one required-field group counted by the completeness score.
// A group with Fields set is satisfied when any listed field is non-empty;
// otherwise Name selects a builtin presence check.
type FieldGroup struct {
	Name   string
	Fields []string
}

// Builtin group names.
const (
	GroupIdentity   = "identity"
	GroupMaterials  = "materials"
	GroupDimensions = "dimensions"
	GroupFeatures   = "features"
	GroupPurpose    = "purpose"
)

// Set is the criteria record for one design type: completeness groups,
// validation rules, prompt keywords, and the repair defaults used by the
// improvement engine. Sets are selected once per Specification and are
// read-only after construction.
type Set struct {
	Type spec.DesignType

	// Groups are the four required-field groups worth one completeness
	// point each.
	Groups []FieldGroup

	// RequiredFields lists category fields whose absence is a major issue
	// (e.g. performance_specs for vehicles). Fields already covered by a
	// group still appear here when the category demands them outright.
	RequiredFields []string

	// LoadBearing marks categories where structure matters: missing
	// dimensions and missing or unsuitable materials are major issues
	// instead of minor ones.
	LoadBearing bool

	// StructuralMaterials is the family of materials acceptable as the
	// primary material for a load-bearing category. Empty for categories
	// where any known material will do.
	StructuralMaterials []string

	// DimensionRanges bounds named dimensions; anything unnamed uses
	// DefaultRange.
	DimensionRanges map[string]Range
	DefaultRange    Range

	// Keywords associate the design type with prompt vocabulary for the
	// type-match score. An empty list always matches.
	Keywords []string

	// Repair defaults applied by the improvement engine.
	DefaultMaterial   string
	DefaultDimensions map[string]string
	DefaultFields     map[string]string
	DefaultPurpose    string
	DefaultFeature    string
}

// knownMaterials is the curated material vocabulary, grouped by family.
var knownMaterials = map[string][]string{
	"wood":      {"wood", "wooden", "oak", "pine", "mahogany", "cedar", "birch", "maple"},
	"metal":     {"metal", "steel", "aluminum", "iron", "copper", "brass", "stainless steel", "titanium"},
	"glass":     {"glass", "crystal", "tempered glass", "laminated glass"},
	"plastic":   {"plastic", "polymer", "acrylic", "polycarbonate", "pvc"},
	"fabric":    {"fabric", "cloth", "textile", "cotton", "linen", "silk", "wool"},
	"leather":   {"leather", "hide", "suede", "faux leather"},
	"concrete":  {"concrete", "cement", "reinforced concrete", "brick"},
	"composite": {"carbon fiber", "carbon fibre", "fiberglass", "composite"},
	"stone":     {"marble", "granite", "limestone", "sandstone", "slate"},
	"ceramic":   {"ceramic", "porcelain", "tile", "clay"},
}

var allMaterials = func() map[string]struct{} {
	out := make(map[string]struct{})
	for _, family := range knownMaterials {
		for _, m := range family {
			out[m] = struct{}{}
		}
	}
	return out
}()

// KnownMaterial reports whether name appears in the curated material
// vocabulary. Matching is case-insensitive and tolerates qualified names
// such as "reclaimed oak" by falling back to a substring check.
func KnownMaterial(name string) bool {
	clean := strings.ToLower(strings.TrimSpace(name))
	if clean == "" {
		return false
	}
	if _, ok := allMaterials[clean]; ok {
		return true
	}
	for m := range allMaterials {
		if strings.Contains(clean, m) || strings.Contains(m, clean) {
			return true
		}
	}
	return false
}

// ParseDimension extracts a positive numeric value from a dimension entry.
// Values like "6", "6.5", "6 ft" and "6feet" parse; negative, zero, and
// non-numeric values do not. A failed parse is a score outcome, never an
// error.
func ParseDimension(value string) (float64, bool) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return 0, false
	}
	end := 0
	seenDigit := false
	for end < len(clean) {
		c := clean[end]
		if c >= '0' && c <= '9' {
			seenDigit = true
			end++
			continue
		}
		if c == '.' || (c == '-' && end == 0) {
			end++
			continue
		}
		break
	}
	if !seenDigit {
		return 0, false
	}
	v, err := strconv.ParseFloat(clean[:end], 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}

// subtypePurposes maps concrete object subtypes to their canonical purpose,
// used when repairing a missing or mismatched purpose.
var subtypePurposes = map[string]string{
	"drone":   "aerial",
	"throne":  "ceremonial",
	"library": "library",
	"cabinet": "storage",
	"table":   "dining",
	"chair":   "office",
}

// PurposeFor returns the repair purpose for a specification: the subtype
// override when one exists, the category default otherwise.
func (s *Set) PurposeFor(sp spec.Specification) string {
	if p, ok := subtypePurposes[strings.ToLower(sp.Field("subtype"))]; ok {
		return p
	}
	return s.DefaultPurpose
}

var sets = map[spec.DesignType]*Set{
	spec.TypeBuilding: {
		Type: spec.TypeBuilding,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: GroupDimensions},
			{Name: GroupPurpose},
		},
		LoadBearing:         true,
		StructuralMaterials: []string{"concrete", "cement", "steel", "metal", "wood", "brick", "stone", "granite", "marble", "iron"},
		DimensionRanges: map[string]Range{
			"stories":   {Min: 1, Max: 50},
			"floors":    {Min: 1, Max: 50},
			"height_m":  {Min: 1, Max: 1000},
			"area_m2":   {Min: 0.1, Max: 10000},
			"area_sqft": {Min: 1, Max: 100000},
			"length_m":  {Min: 0.1, Max: 500},
			"width_m":   {Min: 0.1, Max: 500},
		},
		DefaultRange:      Range{Min: 0.1, Max: 100000},
		Keywords:          []string{"building", "house", "library", "office", "structure", "tower", "warehouse", "garage", "skyscraper", "apartment"},
		DefaultMaterial:   "concrete",
		DefaultDimensions: map[string]string{"stories": "1", "area_m2": "100"},
		DefaultPurpose:    "commercial",
		DefaultFeature:    "natural lighting",
	},
	spec.TypeVehicle: {
		Type: spec.TypeVehicle,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: GroupDimensions},
			{Name: "performance", Fields: []string{"performance_specs", "components"}},
		},
		RequiredFields:      []string{"performance_specs", "components"},
		LoadBearing:         true,
		StructuralMaterials: []string{"metal", "steel", "aluminum", "titanium", "carbon fiber", "carbon fibre", "composite", "fiberglass"},
		DimensionRanges: map[string]Range{
			"length_ft":      {Min: 0.3, Max: 300},
			"width_ft":       {Min: 0.3, Max: 100},
			"length_m":       {Min: 0.1, Max: 100},
			"wheel_diameter": {Min: 0.1, Max: 5},
			"weight_kg":      {Min: 0.1, Max: 100000},
		},
		DefaultRange:      Range{Min: 0.1, Max: 1000},
		Keywords:          []string{"vehicle", "car", "truck", "drone", "aircraft", "uav", "bike", "motorcycle", "boat"},
		DefaultMaterial:   "aluminum",
		DefaultDimensions: map[string]string{"length_ft": "1", "width_ft": "1"},
		DefaultFields:     map[string]string{"performance_specs": "standard performance profile", "components": "frame, drive assembly"},
		DefaultPurpose:    "transport",
		DefaultFeature:    "impact protection",
	},
	spec.TypeElectronics: {
		Type: spec.TypeElectronics,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: "components", Fields: []string{"components", "power"}},
			{Name: GroupFeatures},
		},
		RequiredFields: []string{"components"},
		DimensionRanges: map[string]Range{
			"width_cm":  {Min: 0.1, Max: 500},
			"height_cm": {Min: 0.1, Max: 500},
			"depth_cm":  {Min: 0.1, Max: 500},
			"weight_g":  {Min: 1, Max: 100000},
		},
		DefaultRange:      Range{Min: 0.01, Max: 10000},
		Keywords:          []string{"electronics", "device", "gadget", "phone", "laptop", "circuit", "robot", "sensor", "speaker"},
		DefaultMaterial:   "plastic",
		DefaultDimensions: map[string]string{"width_cm": "10", "height_cm": "5"},
		DefaultFields:     map[string]string{"components": "mainboard, battery"},
		DefaultPurpose:    "consumer",
		DefaultFeature:    "low power mode",
	},
	spec.TypeAppliance: {
		Type: spec.TypeAppliance,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: GroupDimensions},
			{Name: "power", Fields: []string{"power", "capacity"}},
		},
		DimensionRanges: map[string]Range{
			"width_cm":  {Min: 10, Max: 300},
			"height_cm": {Min: 10, Max: 300},
			"depth_cm":  {Min: 10, Max: 300},
		},
		DefaultRange:      Range{Min: 0.1, Max: 1000},
		Keywords:          []string{"appliance", "refrigerator", "fridge", "oven", "washer", "dishwasher", "dryer", "microwave"},
		DefaultMaterial:   "steel",
		DefaultDimensions: map[string]string{"width_cm": "60", "height_cm": "85"},
		DefaultPurpose:    "household",
		DefaultFeature:    "energy efficient",
	},
	spec.TypeFurniture: {
		Type: spec.TypeFurniture,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: GroupDimensions},
			{Name: GroupPurpose},
		},
		DimensionRanges: map[string]Range{
			"length_ft":      {Min: 0.3, Max: 30},
			"width_ft":       {Min: 0.3, Max: 30},
			"height_ft":      {Min: 0.3, Max: 15},
			"seat_height_in": {Min: 6, Max: 60},
		},
		DefaultRange:      Range{Min: 0.1, Max: 100},
		Keywords:          []string{"furniture", "table", "chair", "desk", "sofa", "bed", "shelf", "cabinet", "stool", "bookcase", "bench", "throne", "wardrobe"},
		DefaultMaterial:   "wood",
		DefaultDimensions: map[string]string{"length_ft": "4", "width_ft": "2"},
		DefaultPurpose:    "dining",
		DefaultFeature:    "smooth finish",
	},
	spec.TypeGeneric: {
		Type: spec.TypeGeneric,
		Groups: []FieldGroup{
			{Name: GroupIdentity},
			{Name: GroupMaterials},
			{Name: GroupDimensions},
			{Name: GroupFeatures},
		},
		DefaultRange:      Range{Min: 0.01, Max: 100000},
		Keywords:          nil, // generic matches any prompt
		DefaultMaterial:   "metal",
		DefaultDimensions: map[string]string{"length_m": "1"},
		DefaultPurpose:    "utility",
		DefaultFeature:    "durable construction",
	},
}

// ForType returns the criteria set for a design type. Unknown types get the
// generic set; the caller never sees an error (the fallback is the recovery
// for what would otherwise be an unknown-category failure).
func ForType(t spec.DesignType) *Set {
	if s, ok := sets[t]; ok {
		return s
	}
	return sets[spec.TypeGeneric]
}

// GroupSatisfied reports whether one completeness group is populated.
// Partial population counts: any non-empty member satisfies the group.
func (s *Set) GroupSatisfied(sp spec.Specification, g FieldGroup) bool {
	if len(g.Fields) > 0 {
		for _, f := range g.Fields {
			if sp.Field(f) != "" {
				return true
			}
		}
		return false
	}
	switch g.Name {
	case GroupIdentity:
		return sp.Field("subtype") != ""
	case GroupMaterials:
		return sp.HasMaterials()
	case GroupDimensions:
		return sp.HasDimensions()
	case GroupFeatures:
		return sp.HasFeatures()
	case GroupPurpose:
		p := strings.ToLower(strings.TrimSpace(sp.Purpose))
		return p != "" && p != "general" && p != "unspecified"
	default:
		return false
	}
}

// TypeMatches reports whether the prompt vocabulary agrees with the
// declared design type or purpose. An empty prompt matches by default:
// absent context is treated as benefit of the doubt, preserved deliberately
// for scoring parity.
func (s *Set) TypeMatches(sp spec.Specification, prompt string) bool {
	if strings.TrimSpace(prompt) == "" {
		return true
	}
	if len(s.Keywords) == 0 {
		return true
	}
	lower := strings.ToLower(prompt)
	for _, kw := range s.Keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if p := strings.ToLower(strings.TrimSpace(sp.Purpose)); p != "" && strings.Contains(lower, p) {
		return true
	}
	if sub := strings.ToLower(sp.Field("subtype")); sub != "" && strings.Contains(lower, sub) {
		return true
	}
	return false
}

// severityFor picks minor or major depending on whether the category is
// load-bearing.
func (s *Set) severityFor(loadBearingSeverity bool) spec.Severity {
	if loadBearingSeverity && s.LoadBearing {
		return spec.SeverityMajor
	}
	return spec.SeverityMinor
}

// Check runs every category rule against the specification and returns the
// findings in a fixed, deterministic order. When several rules could fire
// for the same root cause only the most specific one reports, so a missing
// material list yields material_missing but never material_unrecognized on
// top of it.
func (s *Set) Check(sp spec.Specification) []spec.Issue {
	var issues []spec.Issue

	if sp.Field("subtype") == "" {
		issues = append(issues, spec.Issue{
			Code:     CodeTypeUnclear,
			Message:  "object type is missing or unclear",
			Severity: spec.SeverityMinor,
		})
	}

	issues = append(issues, s.checkMaterials(sp)...)
	issues = append(issues, s.checkDimensions(sp)...)

	for _, field := range s.RequiredFields {
		if sp.Field(field) == "" {
			issues = append(issues, spec.Issue{
				Code:     CodeRequiredFieldMissing,
				Message:  fmt.Sprintf("required field %q is missing for %s designs", field, s.Type),
				Severity: spec.SeverityMajor,
			})
		}
	}

	if !s.GroupSatisfied(sp, FieldGroup{Name: GroupPurpose}) {
		issues = append(issues, spec.Issue{
			Code:     CodePurposeMissing,
			Message:  "purpose or intended use is not specified",
			Severity: spec.SeverityMinor,
		})
	}

	if !sp.HasFeatures() {
		issues = append(issues, spec.Issue{
			Code:     CodeFeaturesMissing,
			Message:  "no features are specified",
			Severity: spec.SeverityMinor,
		})
	}

	return issues
}

func (s *Set) checkMaterials(sp spec.Specification) []spec.Issue {
	if !sp.HasMaterials() {
		return []spec.Issue{{
			Code:     CodeMaterialMissing,
			Message:  "no materials are specified",
			Severity: s.severityFor(true),
		}}
	}

	var issues []spec.Issue
	var unrecognized []string
	for _, m := range sp.Materials {
		if strings.TrimSpace(m) == "" {
			continue
		}
		if !KnownMaterial(m) {
			unrecognized = append(unrecognized, m)
		}
	}
	if len(unrecognized) > 0 {
		issues = append(issues, spec.Issue{
			Code:     CodeMaterialUnrecognized,
			Message:  "unrecognized materials: " + strings.Join(unrecognized, ", "),
			Severity: spec.SeverityMinor,
		})
	}

	if s.LoadBearing && len(s.StructuralMaterials) > 0 && !s.hasStructuralMaterial(sp) {
		issues = append(issues, spec.Issue{
			Code:     CodeMaterialUnsuitable,
			Message:  fmt.Sprintf("materials are not suitable for a load-bearing %s design", s.Type),
			Severity: spec.SeverityMajor,
		})
	}
	return issues
}

func (s *Set) hasStructuralMaterial(sp spec.Specification) bool {
	for _, m := range sp.Materials {
		clean := strings.ToLower(strings.TrimSpace(m))
		for _, structural := range s.StructuralMaterials {
			if clean == structural || strings.Contains(clean, structural) {
				return true
			}
		}
	}
	return false
}

func (s *Set) checkDimensions(sp spec.Specification) []spec.Issue {
	if !sp.HasDimensions() {
		return []spec.Issue{{
			Code:     CodeDimensionsMissing,
			Message:  "dimensions are missing",
			Severity: s.severityFor(true),
		}}
	}

	var issues []spec.Issue
	for _, name := range sp.DimensionNames() {
		value := sp.Dimensions[name]
		v, ok := ParseDimension(value)
		if !ok {
			issues = append(issues, spec.Issue{
				Code:     CodeDimensionUnparseable,
				Message:  fmt.Sprintf("dimension %q (%s) is not a positive number", name, value),
				Severity: spec.SeverityMinor,
			})
			continue
		}
		r, found := s.DimensionRanges[name]
		if !found {
			r = s.DefaultRange
		}
		if !r.Contains(v) {
			issues = append(issues, spec.Issue{
				Code:     CodeDimensionOutOfRange,
				Message:  fmt.Sprintf("dimension %q (%g) is outside the plausible range %g-%g", name, v, r.Min, r.Max),
				Severity: spec.SeverityMinor,
			})
		}
	}
	return issues
}
