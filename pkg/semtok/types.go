package semtok

import (
	"github.com/walteh/treehl/pkg/position"
)

// Token is a classified, single-line text range emitted for rendering.
type Token struct {
	// Range is the token's position in the source
	Range position.Range

	// Type is the token's semantic classification, drawn from the
	// legend's type vocabulary
	Type string

	// Modifiers are additional characteristics, order-preserving,
	// drawn from the legend's modifier vocabulary
	Modifiers []string
}

// Injection carries the token stream produced by an embedded language,
// already translated into parent-document coordinates.
type Injection struct {
	// Range is the injected region in parent coordinates
	Range position.Range

	// Tokens are the embedded language's tokens, normalized and
	// coordinate-shifted into the parent document
	Tokens []Token
}

// Legend is the closed, positionally-addressed vocabulary of token
// types and modifiers shared between producer and renderer. Consumers
// address types and modifiers by index, so the legend handed to the
// renderer must match this one exactly.
type Legend struct {
	TokenTypes     []string
	TokenModifiers []string

	typeIndex map[string]int
	modIndex  map[string]int
}

func NewLegend(tokenTypes, tokenModifiers []string) *Legend {
	l := &Legend{
		TokenTypes:     tokenTypes,
		TokenModifiers: tokenModifiers,
		typeIndex:      make(map[string]int, len(tokenTypes)),
		modIndex:       make(map[string]int, len(tokenModifiers)),
	}
	for i, t := range tokenTypes {
		l.typeIndex[t] = i
	}
	for i, m := range tokenModifiers {
		l.modIndex[m] = i
	}
	return l
}

// DefaultLegend returns the standard LSP semantic token legend.
func DefaultLegend() *Legend {
	return NewLegend(
		[]string{
			"namespace", "type", "class", "enum", "interface", "struct",
			"typeParameter", "parameter", "variable", "property",
			"enumMember", "event", "function", "method", "macro",
			"keyword", "modifier", "comment", "string", "number",
			"regexp", "operator", "decorator",
		},
		[]string{
			"declaration", "definition", "readonly", "static",
			"deprecated", "abstract", "async", "modification",
			"documentation", "defaultLibrary",
		},
	)
}

func (l *Legend) HasType(name string) bool {
	_, ok := l.typeIndex[name]
	return ok
}

func (l *Legend) HasModifier(name string) bool {
	_, ok := l.modIndex[name]
	return ok
}

// TypeIndex returns the legend position of a token type.
func (l *Legend) TypeIndex(name string) (int, bool) {
	i, ok := l.typeIndex[name]
	return i, ok
}

// ModifierMask returns the bitmask addressing the given modifiers by
// their legend positions. Modifiers outside the legend are ignored.
func (l *Legend) ModifierMask(modifiers []string) uint32 {
	var mask uint32
	for _, m := range modifiers {
		if i, ok := l.modIndex[m]; ok {
			mask |= 1 << uint(i)
		}
	}
	return mask
}
