// Package spec defines the immutable value objects shared by the
// evaluation-scoring-reward pipeline: the design Specification under
// evaluation, the Issue findings produced by criteria checks, and the
// ordered Severity classification.
package spec

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// DesignType discriminates which criteria table applies to a Specification.
// It is fixed at creation time and never changes across improvement
// iterations.
type DesignType string

const (
	TypeBuilding    DesignType = "building"
	TypeVehicle     DesignType = "vehicle"
	TypeElectronics DesignType = "electronics"
	TypeAppliance   DesignType = "appliance"
	TypeFurniture   DesignType = "furniture"
	TypeGeneric     DesignType = "generic"
)

// KnownTypes lists every design type with a dedicated criteria set, in
// stable order. Anything else falls back to the generic set.
var KnownTypes = []DesignType{
	TypeBuilding,
	TypeVehicle,
	TypeElectronics,
	TypeAppliance,
	TypeFurniture,
	TypeGeneric,
}

// IsKnown reports whether t has a dedicated criteria set.
func (t DesignType) IsKnown() bool {
	for _, known := range KnownTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Severity classifies the worst finding of an evaluation. The ordering
// none < minor < major is load-bearing: feedback text is sorted by it and
// the overall severity of a result is the maximum across issues.
type Severity int

const (
	SeverityNone Severity = iota
	SeverityMinor
	SeverityMajor
)

func (s Severity) String() string {
	switch s {
	case SeverityMinor:
		return "minor"
	case SeverityMajor:
		return "major"
	default:
		return "none"
	}
}

// MarshalJSON encodes severity as its string name, matching the wire
// contract of the HTTP layer.
func (s Severity) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON decodes the string names written by MarshalJSON, so
// persisted payloads read back losslessly.
func (s *Severity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "none":
		*s = SeverityNone
	case "minor":
		*s = SeverityMinor
	case "major":
		*s = SeverityMajor
	default:
		return fmt.Errorf("unknown severity %q", name)
	}
	return nil
}

// Issue is a discrete evaluation finding.
type Issue struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// MaxSeverity returns the maximum severity across issues, or SeverityNone
// for an empty list.
func MaxSeverity(issues []Issue) Severity {
	max := SeverityNone
	for _, issue := range issues {
		if issue.Severity > max {
			max = issue.Severity
		}
	}
	return max
}

// Specification is the structured design artifact under evaluation and
// improvement. Instances are treated as immutable value objects: the
// improvement engine returns a new Specification rather than mutating its
// input, so iteration history stays consistent.
type Specification struct {
	DesignType DesignType        `json:"design_type"`
	Fields     map[string]string `json:"fields,omitempty"`
	Materials  []string          `json:"materials"`
	Dimensions map[string]string `json:"dimensions"`
	Features   []string          `json:"features"`
	Purpose    string            `json:"purpose,omitempty"`
}

// Clone returns a deep copy. Maps and slices are copied so the original is
// never aliased by the returned value.
func (s Specification) Clone() Specification {
	out := Specification{
		DesignType: s.DesignType,
		Purpose:    s.Purpose,
	}
	if s.Fields != nil {
		out.Fields = make(map[string]string, len(s.Fields))
		for k, v := range s.Fields {
			out.Fields[k] = v
		}
	}
	if s.Dimensions != nil {
		out.Dimensions = make(map[string]string, len(s.Dimensions))
		for k, v := range s.Dimensions {
			out.Dimensions[k] = v
		}
	}
	if s.Materials != nil {
		out.Materials = append([]string(nil), s.Materials...)
	}
	if s.Features != nil {
		out.Features = append([]string(nil), s.Features...)
	}
	return out
}

// Field returns the named field value, trimmed, or "" when absent.
func (s Specification) Field(name string) string {
	if s.Fields == nil {
		return ""
	}
	return strings.TrimSpace(s.Fields[name])
}

// HasMaterials reports whether at least one non-blank material is present.
func (s Specification) HasMaterials() bool {
	for _, m := range s.Materials {
		if strings.TrimSpace(m) != "" {
			return true
		}
	}
	return false
}

// HasDimensions reports whether at least one dimension entry is present.
func (s Specification) HasDimensions() bool {
	return len(s.Dimensions) > 0
}

// HasFeatures reports whether at least one non-blank feature is present.
func (s Specification) HasFeatures() bool {
	for _, f := range s.Features {
		if strings.TrimSpace(f) != "" {
			return true
		}
	}
	return false
}

// DimensionNames returns the dimension keys in sorted order. Criteria checks
// iterate dimensions through this so issue ordering is deterministic.
func (s Specification) DimensionNames() []string {
	names := make([]string, 0, len(s.Dimensions))
	for name := range s.Dimensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Equal reports whether two specifications carry identical content. Used by
// the iteration loop to detect the improvement fixed point.
func (s Specification) Equal(other Specification) bool {
	if s.DesignType != other.DesignType || s.Purpose != other.Purpose {
		return false
	}
	if len(s.Fields) != len(other.Fields) ||
		len(s.Dimensions) != len(other.Dimensions) ||
		len(s.Materials) != len(other.Materials) ||
		len(s.Features) != len(other.Features) {
		return false
	}
	for k, v := range s.Fields {
		if other.Fields[k] != v {
			return false
		}
	}
	for k, v := range s.Dimensions {
		if other.Dimensions[k] != v {
			return false
		}
	}
	for i, m := range s.Materials {
		if other.Materials[i] != m {
			return false
		}
	}
	for i, f := range s.Features {
		if other.Features[i] != f {
			return false
		}
	}
	return true
}
