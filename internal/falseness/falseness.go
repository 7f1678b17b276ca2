// Package falseness computes the Falseness Table: for any two row-ranges of
// a Layout, which course-head transpositions make them share a row.
package falseness

import (
	"sort"

	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/row"
)

// rangeKey identifies a range by its start RowIdx and length, so the table
// holds one entry per pair of distinct ranges (duplicate ranges passed to
// Build collapse onto the same key).
type rangeKey struct {
	start layout.RowIdx
	len   int
}

// Table answers, for any two RowRanges, the set of course-head
// transpositions under which they share a row.
type Table struct {
	// entries[r1][r2] is the sorted, deduplicated list of transpositions
	// that make r1 false against r2.
	entries map[rangeKey]map[rangeKey][]row.Row
}

// Build computes the falseness table for every pair in ranges (including a
// range against itself, since every node is reflexively false). Ranges
// should be the distinct set of RowRange shapes used across the graph's
// nodes.
func Build(l *layout.Layout, ranges []layout.RowRange) *Table {
	keys := make([]rangeKey, len(ranges))
	for i, rr := range ranges {
		keys[i] = rangeKey{start: rr.Start, len: rr.Len}
	}
	// Sort so the table's internal construction order does not depend on
	// the caller's iteration order.
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].start != keys[j].start {
			return keys[i].start.Less(keys[j].start)
		}
		return keys[i].len < keys[j].len
	})

	t := &Table{entries: make(map[rangeKey]map[rangeKey][]row.Row)}
	for i, k1 := range keys {
		rr1 := layout.RowRange{Start: k1.start, Len: k1.len}
		rows1 := l.Rows(rr1)
		for j := i; j < len(keys); j++ {
			k2 := keys[j]
			rr2 := layout.RowRange{Start: k2.start, Len: k2.len}
			rows2 := l.Rows(rr2)

			trans := transpositionsBetween(rows1, rows2)
			if len(trans) == 0 {
				continue
			}
			t.set(k1, k2, trans)
			if k1 != k2 {
				t.set(k2, k1, inverseAll(trans))
			}
		}
	}
	return t
}

func (t *Table) set(from, to rangeKey, trans []row.Row) {
	if t.entries[from] == nil {
		t.entries[from] = make(map[rangeKey][]row.Row)
	}
	t.entries[from][to] = trans
}

// transpositionsBetween computes { row(r2,j) . row(r1,i)^-1 | i, j }, the
// set of course-head offsets that map some row of r1 onto some row of r2,
// deduplicated and sorted for determinism.
func transpositionsBetween(rows1, rows2 []row.Row) []row.Row {
	seen := make(map[string]row.Row)
	for _, r1 := range rows1 {
		inv := r1.Inverse()
		for _, r2 := range rows2 {
			t := r2.Transpose(inv)
			seen[t.String()] = t
		}
	}
	return sortedValues(seen)
}

func inverseAll(in []row.Row) []row.Row {
	seen := make(map[string]row.Row, len(in))
	for _, r := range in {
		inv := r.Inverse()
		seen[inv.String()] = inv
	}
	return sortedValues(seen)
}

func sortedValues(m map[string]row.Row) []row.Row {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]row.Row, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

// FalseRange pairs a RowRange with the transposition that makes it false
// against the range queried for.
type FalseRange struct {
	Range          layout.RowRange
	Transposition  row.Row
}

// FalseCourseHeads returns, for the given range, every (other range,
// transposition) pair recorded in the table.
func (t *Table) FalseCourseHeads(rr layout.RowRange) []FalseRange {
	k := rangeKey{start: rr.Start, len: rr.Len}
	byTo := t.entries[k]
	if byTo == nil {
		return nil
	}
	toKeys := make([]rangeKey, 0, len(byTo))
	for to := range byTo {
		toKeys = append(toKeys, to)
	}
	sort.Slice(toKeys, func(i, j int) bool {
		if toKeys[i].start != toKeys[j].start {
			return toKeys[i].start.Less(toKeys[j].start)
		}
		return toKeys[i].len < toKeys[j].len
	})

	var out []FalseRange
	for _, to := range toKeys {
		otherRange := layout.RowRange{Start: to.start, Len: to.len}
		for _, trans := range byTo[to] {
			out = append(out, FalseRange{Range: otherRange, Transposition: trans})
		}
	}
	return out
}
