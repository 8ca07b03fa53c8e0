// Package position provides document coordinates for semantic tokens.
//
// All positions are 0-based. Character offsets count UTF-16 code units,
// matching the addressing scheme LSP clients use on the wire.
package position

import "fmt"

// Point is a single location in a document.
type Point struct {
	// Line is the 0-based line number
	Line int
	// Character is the 0-based column in UTF-16 code units
	Character int
}

func NewPoint(line, character int) Point {
	return Point{Line: line, Character: character}
}

// Compare orders points lexicographically by (line, character).
func (p Point) Compare(o Point) int {
	if p.Line != o.Line {
		if p.Line < o.Line {
			return -1
		}
		return 1
	}
	if p.Character != o.Character {
		if p.Character < o.Character {
			return -1
		}
		return 1
	}
	return 0
}

func (p Point) Before(o Point) bool {
	return p.Compare(o) < 0
}

func (p Point) After(o Point) bool {
	return p.Compare(o) > 0
}

func (p Point) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Character)
}

// Range is a half-open span [Start, End) between two points.
type Range struct {
	Start Point
	End   Point
}

func NewRange(start, end Point) Range {
	return Range{Start: start, End: end}
}

// IsValid reports whether Start <= End.
func (r Range) IsValid() bool {
	return !r.Start.After(r.End)
}

// IsEmpty reports whether the range covers no characters.
func (r Range) IsEmpty() bool {
	return r.Start.Compare(r.End) == 0
}

// SingleLine reports whether the range starts and ends on the same line.
func (r Range) SingleLine() bool {
	return r.Start.Line == r.End.Line
}

func (r Range) Equal(o Range) bool {
	return r.Start.Compare(o.Start) == 0 && r.End.Compare(o.End) == 0
}

// Contains reports whether o lies entirely within r. A range does not
// contain an identical range.
func (r Range) Contains(o Range) bool {
	if r.Equal(o) {
		return false
	}
	return !r.Start.After(o.Start) && !o.End.After(r.End)
}

// Intersects reports whether r and o share at least one position.
func (r Range) Intersects(o Range) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// CutBefore returns the portion of r that lies before o's start. The
// second return value is false when no such portion exists.
func (r Range) CutBefore(o Range) (Range, bool) {
	if !r.Start.Before(o.Start) {
		return Range{}, false
	}
	end := r.End
	if o.Start.Before(end) {
		end = o.Start
	}
	return Range{Start: r.Start, End: end}, true
}

// CutAfter returns the portion of r that lies after o's end. The second
// return value is false when no such portion exists.
func (r Range) CutAfter(o Range) (Range, bool) {
	if !o.End.Before(r.End) {
		return Range{}, false
	}
	start := r.Start
	if start.Before(o.End) {
		start = o.End
	}
	return Range{Start: start, End: r.End}, true
}

func (r Range) String() string {
	return fmt.Sprintf("%s-%s", r.Start, r.End)
}
