package falseness

import (
	"testing"

	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/row"
)

func twoLeadLayout() *layout.Layout {
	rounds := row.Rounds(4)
	// Lead 1: rounds, then a row that repeats in lead 2 under the identity
	// transposition, making the two one-row ranges false against each
	// other.
	lead1 := []row.Row{rounds, row.MustParse("2143")}
	lead2 := []row.Row{row.MustParse("2143"), row.MustParse("3412")}
	return &layout.Layout{
		Blocks:   [][]row.Row{lead1, lead2},
		PartHead: rounds,
		Stage:    4,
	}
}

func TestTranspositionsBetweenIdenticalRangesIncludesIdentity(t *testing.T) {
	l := twoLeadLayout()
	rr := layout.RowRange{Start: layout.RowIdx{Block: 0, Row: 0}, Len: 2}
	tbl := Build(l, []layout.RowRange{rr})

	found := tbl.FalseCourseHeads(rr)
	var sawIdentity bool
	for _, fr := range found {
		if fr.Transposition.IsRounds() {
			sawIdentity = true
		}
	}
	if !sawIdentity {
		t.Fatal("a range is always false against itself under the identity transposition")
	}
}

func TestFalseCourseHeadsIsSymmetric(t *testing.T) {
	l := twoLeadLayout()
	rr1 := layout.RowRange{Start: layout.RowIdx{Block: 0, Row: 1}, Len: 1}
	rr2 := layout.RowRange{Start: layout.RowIdx{Block: 1, Row: 0}, Len: 1}
	tbl := Build(l, []layout.RowRange{rr1, rr2})

	forward := tbl.FalseCourseHeads(rr1)
	backward := tbl.FalseCourseHeads(rr2)

	if len(forward) == 0 || len(backward) == 0 {
		t.Fatal("rows at (0,1) and (1,0) are identical, so the ranges must be mutually false")
	}
}

func TestFalseCourseHeadsDeterministicRegardlessOfInputOrder(t *testing.T) {
	l := twoLeadLayout()
	rr1 := layout.RowRange{Start: layout.RowIdx{Block: 0, Row: 0}, Len: 2}
	rr2 := layout.RowRange{Start: layout.RowIdx{Block: 1, Row: 0}, Len: 2}

	a := Build(l, []layout.RowRange{rr1, rr2}).FalseCourseHeads(rr1)
	b := Build(l, []layout.RowRange{rr2, rr1}).FalseCourseHeads(rr1)

	if len(a) != len(b) {
		t.Fatalf("len(a)=%d len(b)=%d, want equal regardless of input order", len(a), len(b))
	}
	for i := range a {
		if !a[i].Transposition.Equal(b[i].Transposition) || a[i].Range != b[i].Range {
			t.Fatalf("entry %d differs between orderings: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestDistinctSingleRowsAreNeverFalseUnderIdentity(t *testing.T) {
	rounds := row.Rounds(4)
	l := &layout.Layout{
		Blocks: [][]row.Row{{rounds, row.MustParse("2143"), row.MustParse("2413"), row.MustParse("4231")}},
		Stage:  4,
	}
	rr1 := layout.RowRange{Start: layout.RowIdx{Block: 0, Row: 0}, Len: 1}
	rr2 := layout.RowRange{Start: layout.RowIdx{Block: 0, Row: 2}, Len: 1}

	tbl := Build(l, []layout.RowRange{rr1, rr2})
	for _, fr := range tbl.FalseCourseHeads(rr1) {
		if fr.Range == rr2 && fr.Transposition.IsRounds() {
			t.Fatal("two distinct rows can never be false under the identity transposition")
		}
	}
}
