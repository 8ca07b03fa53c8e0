package position_test

import (
	"testing"

	"github.com/walteh/treehl/pkg/position"
)

func TestPointCompare(t *testing.T) {
	tests := []struct {
		name string
		a    position.Point
		b    position.Point
		want int
	}{
		{
			name: "equal points",
			a:    position.NewPoint(2, 5),
			b:    position.NewPoint(2, 5),
			want: 0,
		},
		{
			name: "earlier line",
			a:    position.NewPoint(1, 50),
			b:    position.NewPoint(2, 0),
			want: -1,
		},
		{
			name: "same line earlier character",
			a:    position.NewPoint(3, 4),
			b:    position.NewPoint(3, 9),
			want: -1,
		},
		{
			name: "later line",
			a:    position.NewPoint(4, 0),
			b:    position.NewPoint(3, 99),
			want: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Compare(tt.b); got != tt.want {
				t.Errorf("Compare() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRangeContains(t *testing.T) {
	tests := []struct {
		name  string
		outer position.Range
		inner position.Range
		want  bool
	}{
		{
			name:  "strictly inside",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20)),
			inner: position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 10)),
			want:  true,
		},
		{
			name:  "identical ranges do not contain each other",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20)),
			inner: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20)),
			want:  false,
		},
		{
			name:  "shared start",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20)),
			inner: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 10)),
			want:  true,
		},
		{
			name:  "shared end",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20)),
			inner: position.NewRange(position.NewPoint(1, 10), position.NewPoint(1, 20)),
			want:  true,
		},
		{
			name:  "multi-line containment",
			outer: position.NewRange(position.NewPoint(0, 0), position.NewPoint(4, 0)),
			inner: position.NewRange(position.NewPoint(1, 3), position.NewPoint(2, 7)),
			want:  true,
		},
		{
			name:  "overlap is not containment",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 10)),
			inner: position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 15)),
			want:  false,
		},
		{
			name:  "disjoint",
			outer: position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 5)),
			inner: position.NewRange(position.NewPoint(2, 0), position.NewPoint(2, 5)),
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outer.Contains(tt.inner); got != tt.want {
				t.Errorf("Contains() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeIntersects(t *testing.T) {
	tests := []struct {
		name string
		a    position.Range
		b    position.Range
		want bool
	}{
		{
			name: "partial overlap",
			a:    position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 10)),
			b:    position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 15)),
			want: true,
		},
		{
			name: "touching at boundary does not intersect",
			a:    position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 5)),
			b:    position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 10)),
			want: false,
		},
		{
			name: "containment intersects",
			a:    position.NewRange(position.NewPoint(0, 0), position.NewPoint(3, 0)),
			b:    position.NewRange(position.NewPoint(1, 2), position.NewPoint(1, 4)),
			want: true,
		},
		{
			name: "disjoint lines",
			a:    position.NewRange(position.NewPoint(0, 0), position.NewPoint(0, 8)),
			b:    position.NewRange(position.NewPoint(2, 0), position.NewPoint(2, 8)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Intersects(tt.b); got != tt.want {
				t.Errorf("Intersects() = %v, want %v", got, tt.want)
			}
			if got := tt.b.Intersects(tt.a); got != tt.want {
				t.Errorf("Intersects() reversed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRangeCut(t *testing.T) {
	token := position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 20))
	injection := position.NewRange(position.NewPoint(1, 5), position.NewPoint(1, 10))

	before, ok := token.CutBefore(injection)
	if !ok {
		t.Fatal("CutBefore() returned no range")
	}
	want := position.NewRange(position.NewPoint(1, 0), position.NewPoint(1, 5))
	if !before.Equal(want) {
		t.Errorf("CutBefore() = %s, want %s", before, want)
	}

	after, ok := token.CutAfter(injection)
	if !ok {
		t.Fatal("CutAfter() returned no range")
	}
	want = position.NewRange(position.NewPoint(1, 10), position.NewPoint(1, 20))
	if !after.Equal(want) {
		t.Errorf("CutAfter() = %s, want %s", after, want)
	}

	// A range fully inside the other has nothing left on either side.
	inner := position.NewRange(position.NewPoint(1, 6), position.NewPoint(1, 9))
	if _, ok := inner.CutBefore(injection); ok {
		t.Error("CutBefore() produced a range for a fully covered token")
	}
	if _, ok := inner.CutAfter(injection); ok {
		t.Error("CutAfter() produced a range for a fully covered token")
	}
}

func TestMapperPointAt(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		row     int
		byteCol int
		want    position.Point
	}{
		{
			name:    "ascii line",
			text:    "hello world",
			row:     0,
			byteCol: 6,
			want:    position.NewPoint(0, 6),
		},
		{
			name:    "second line",
			text:    "first\nsecond line",
			row:     1,
			byteCol: 7,
			want:    position.NewPoint(1, 7),
		},
		{
			name:    "two-byte rune counts as one unit",
			text:    "héllo",
			row:     0,
			byteCol: 3, // past the 2-byte é
			want:    position.NewPoint(0, 2),
		},
		{
			name:    "astral rune counts as two units",
			text:    "a\U0001F600b",
			row:     0,
			byteCol: 5, // past the 4-byte emoji
			want:    position.NewPoint(0, 3),
		},
		{
			name:    "column clamped to line width",
			text:    "ab",
			row:     0,
			byteCol: 99,
			want:    position.NewPoint(0, 2),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := position.NewMapper(tt.text)
			if got := m.PointAt(tt.row, tt.byteCol); got.Compare(tt.want) != 0 {
				t.Errorf("PointAt(%d, %d) = %s, want %s", tt.row, tt.byteCol, got, tt.want)
			}
		})
	}
}
