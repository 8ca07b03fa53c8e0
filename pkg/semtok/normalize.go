package semtok

import (
	"sort"

	"github.com/walteh/treehl/pkg/position"
	"gitlab.com/tozd/go/errors"
)

// ErrInvalidRange reports a token whose end position precedes its
// start, which indicates a contract violation in the matching layer.
var ErrInvalidRange = errors.New("invalid token range")

// RestOfLine is the sentinel end column for line fragments that run to
// the end of their line. It is deliberately finite: some renderers
// mishandle true integer maxima.
const RestOfLine = 100000

// Normalize resolves containment among tokens of a single grammar pass
// and splits multi-line tokens into per-line fragments. The result
// contains no two overlapping tokens and no token spanning more than
// one line.
//
// Containment is resolved in a single pass over the full token set,
// computed independently per token. Deeper nesting flattens correctly
// because every enclosing token sees all tokens inside it, not just
// its immediate children.
func Normalize(tokens []Token) ([]Token, error) {
	resolved := resolveContainment(tokens)

	out := make([]Token, 0, len(resolved))
	for _, t := range resolved {
		if t.Range.End.Line < t.Range.Start.Line {
			return nil, errors.Errorf("token %q at %s ends before it starts: %w", t.Type, t.Range, ErrInvalidRange)
		}
		if t.Range.SingleLine() {
			out = append(out, t)
			continue
		}
		out = append(out, splitLines(t)...)
	}
	return out, nil
}

// resolveContainment replaces every token that strictly contains other
// tokens with fragments covering only the portions its contained
// tokens do not. Tokens with identical ranges do not contain each
// other and pass through unchanged.
func resolveContainment(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	for i, t := range tokens {
		var contained []position.Range
		for j, other := range tokens {
			if i == j {
				continue
			}
			if t.Range.Contains(other.Range) {
				contained = append(contained, other.Range)
			}
		}
		if len(contained) == 0 {
			out = append(out, t)
			continue
		}

		sort.Slice(contained, func(a, b int) bool {
			return contained[a].Start.Before(contained[b].Start)
		})

		cursor := t.Range.Start
		for _, c := range contained {
			if cursor.Before(c.Start) {
				out = append(out, fragment(t, cursor, c.Start))
			}
			if cursor.Before(c.End) {
				cursor = c.End
			}
		}
		if cursor.Before(t.Range.End) {
			out = append(out, fragment(t, cursor, t.Range.End))
		}
	}
	return out
}

// splitLines breaks a multi-line token into one fragment per covered
// line. The first fragment keeps the original start column, middle
// fragments span their whole line, and the last fragment keeps the
// original end column.
func splitLines(t Token) []Token {
	out := make([]Token, 0, t.Range.End.Line-t.Range.Start.Line+1)
	for line := t.Range.Start.Line; line <= t.Range.End.Line; line++ {
		startChar := 0
		endChar := RestOfLine
		if line == t.Range.Start.Line {
			startChar = t.Range.Start.Character
		}
		if line == t.Range.End.Line {
			endChar = t.Range.End.Character
		}
		if startChar >= endChar {
			// a token ending at column 0 owns nothing on its last line
			continue
		}
		out = append(out, fragment(t,
			position.NewPoint(line, startChar),
			position.NewPoint(line, endChar),
		))
	}
	return out
}

func fragment(t Token, start, end position.Point) Token {
	return Token{
		Range:     position.NewRange(start, end),
		Type:      t.Type,
		Modifiers: t.Modifiers,
	}
}
