package semtok

import (
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrInvalidCapture reports a malformed (empty) capture name.
var ErrInvalidCapture = errors.New("invalid capture name")

// MappingTarget is the replacement classification for a remapped
// capture. Modifiers default to empty when omitted.
type MappingTarget struct {
	Type      string   `yaml:"targetTokenType" json:"targetTokenType"`
	Modifiers []string `yaml:"targetTokenModifiers,omitempty" json:"targetTokenModifiers,omitempty"`
}

// TypeMapping remaps source capture identifiers to target token
// classifications. Keys may be either a full dotted capture name or
// just its base type; the full name takes precedence on lookup.
type TypeMapping map[string]MappingTarget

// Candidate is a classified capture awaiting a range.
type Candidate struct {
	Type      string
	Modifiers []string
}

// Classify parses a dotted capture name into a token classification.
//
// The first dot-separated segment is the base type and the remaining
// segments are modifiers, in their original order. A mapping entry for
// the full capture name wins over one for the base type. The candidate
// is accepted only when its resulting type is in the legend; captures
// that classify outside the legend (for example @injection.content)
// are dropped silently. Modifiers outside the legend are dropped
// individually and the token survives without them.
func Classify(capture string, mapping TypeMapping, legend *Legend) (Candidate, bool, error) {
	if capture == "" {
		return Candidate{}, false, errors.Errorf("classifying capture: %w", ErrInvalidCapture)
	}

	segments := strings.Split(capture, ".")
	tokenType := segments[0]
	modifiers := segments[1:]

	if target, ok := mapping[capture]; ok {
		tokenType = target.Type
		modifiers = target.Modifiers
	} else if target, ok := mapping[tokenType]; ok {
		tokenType = target.Type
		modifiers = target.Modifiers
	}

	if !legend.HasType(tokenType) {
		return Candidate{}, false, nil
	}

	kept := make([]string, 0, len(modifiers))
	for _, m := range modifiers {
		if legend.HasModifier(m) {
			kept = append(kept, m)
		}
	}

	return Candidate{Type: tokenType, Modifiers: kept}, true, nil
}
