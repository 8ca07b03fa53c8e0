package position

import "strings"

// Mapper converts the byte-oriented coordinates produced by a parser
// (row + byte column) into UTF-16 Points for a fixed document text.
type Mapper struct {
	lines []string
}

func NewMapper(text string) *Mapper {
	return &Mapper{lines: strings.Split(text, "\n")}
}

// LineCount returns the number of lines in the mapped text.
func (m *Mapper) LineCount() int {
	return len(m.lines)
}

// Line returns the text of the given 0-based line, without its trailing
// newline. Out-of-range lines map to the empty string.
func (m *Mapper) Line(i int) string {
	if i < 0 || i >= len(m.lines) {
		return ""
	}
	return m.lines[i]
}

// PointAt converts a (row, byte column) pair to a Point. Byte columns
// past the end of the line clamp to the line's full UTF-16 width.
func (m *Mapper) PointAt(row, byteColumn int) Point {
	line := m.Line(row)
	if byteColumn > len(line) {
		byteColumn = len(line)
	}
	if byteColumn < 0 {
		byteColumn = 0
	}
	return Point{Line: row, Character: UTF16Len(line[:byteColumn])}
}

// UTF16Len returns the number of UTF-16 code units needed to encode s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if r > 0xFFFF {
			n += 2
		} else {
			n++
		}
	}
	return n
}
