// Package music scores rows against a set of configured music patterns.
// spec.md treats the details of what counts as "musical" as opaque to the
// graph builder and optimiser; they only need a Breakdown's per-type counts
// and scalar total, so that is the surface this package exposes.
package music

import (
	"strings"

	"github.com/kneasle/monument/internal/row"
)

// Pattern matches a row against a fixed template: a sequence of required
// bells (by 0-indexed value) at specific places, with -1 meaning "any bell".
// This covers the common music patterns (runs, specific front/back
// combinations) without needing a full pattern-matching DSL.
type Pattern []int

// Matches reports whether r satisfies the pattern.
func (p Pattern) Matches(r row.Row) bool {
	if len(p) != len(r) {
		return false
	}
	for i, want := range p {
		if want >= 0 && int(r[i]) != want {
			return false
		}
	}
	return true
}

func (p Pattern) String() string {
	var sb strings.Builder
	for _, v := range p {
		if v < 0 {
			sb.WriteByte('x')
		} else {
			sb.WriteByte(byte('1' + v))
		}
	}
	return sb.String()
}

// MusicType is one named scoring rule: every row matching any of Patterns
// adds one to this type's count and Weight to the running total.
type MusicType struct {
	Name     string
	Patterns []Pattern
	Weight   float64
}

// Score evaluates how many points a single row contributes to this music
// type, and whether it counted at all (for the per-type Counts tally).
func (mt MusicType) Score(r row.Row) (count int, points float64) {
	for _, p := range mt.Patterns {
		if p.Matches(r) {
			return 1, mt.Weight
		}
	}
	return 0, 0
}

// Breakdown is the per-music-type tally accumulated over a set of rows:
// Counts[i] is how many rows matched MusicTypes[i], and Total is the sum of
// every matched row's weighted score.
type Breakdown struct {
	Counts []int
	Total  float64
}

// Zero returns an all-zero Breakdown sized for n music types.
func Zero(n int) Breakdown {
	return Breakdown{Counts: make([]int, n)}
}

// FromRows computes the Breakdown of a sequence of untransposed rows, each
// first transposed by `by` (typically a course head, or a part-head times a
// course head), against the given music types.
func FromRows(rows []row.Row, by row.Row, types []MusicType) Breakdown {
	b := Zero(len(types))
	for _, r := range rows {
		transposed := r
		if by != nil {
			transposed = by.Transpose(r)
		}
		for i, mt := range types {
			c, pts := mt.Score(transposed)
			b.Counts[i] += c
			b.Total += pts
		}
	}
	return b
}

// Add accumulates other into b in place, used when summing a range's music
// across every part of a multi-part composition.
func (b *Breakdown) Add(other Breakdown) {
	if len(b.Counts) == 0 && len(other.Counts) > 0 {
		b.Counts = make([]int, len(other.Counts))
	}
	for i, c := range other.Counts {
		b.Counts[i] += c
	}
	b.Total += other.Total
}

// Clone returns an independent copy of b.
func (b Breakdown) Clone() Breakdown {
	out := Breakdown{Counts: make([]int, len(b.Counts)), Total: b.Total}
	copy(out.Counts, b.Counts)
	return out
}
