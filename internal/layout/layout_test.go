package layout

import (
	"testing"

	"github.com/kneasle/monument/internal/row"
)

func plainBobMinorLayout() *Layout {
	// A tiny fictional layout: a single block of 12 placeholder rows (all
	// rounds) standing in for one lead, a lead-end link from row 11 back to
	// row 0 under any course head, and a start anchor and an end anchor both
	// at row 0 in rounds.
	rounds := row.Rounds(6)
	block := make([]row.Row, 12)
	for i := range block {
		block[i] = rounds
	}
	return &Layout{
		Blocks: [][]row.Row{block},
		Links: []Link{
			{
				FromRowIdx:              RowIdx{Block: 0, Row: 11},
				ToRowIdx:                RowIdx{Block: 0, Row: 0},
				CourseHeadMask:          Mask{-1, -1, -1, -1, -1, -1},
				CourseHeadTransposition: row.Rounds(6),
				Label:                   "lead end",
			},
		},
		Starts: []Anchor{
			{CourseHead: rounds, RowIdx: RowIdx{Block: 0, Row: 0}, Label: "start"},
		},
		Ends: []Anchor{
			{CourseHead: rounds, RowIdx: RowIdx{Block: 0, Row: 0}, Label: "rounds"},
		},
		PartHead: rounds,
		Stage:    6,
	}
}

func TestMaskMatches(t *testing.T) {
	m := Mask{0, -1, -1, -1, -1, -1}
	if !m.Matches(row.Rounds(6)) {
		t.Fatal("expected mask to match rounds (bell 1 at place 0)")
	}
	other := row.MustParse("214365")
	if m.Matches(other) {
		t.Fatal("expected mask not to match a row with a different bell at place 0")
	}
}

func TestNumPartsOfRoundsPartHeadIsOne(t *testing.T) {
	l := plainBobMinorLayout()
	if got := l.NumParts(); got != 1 {
		t.Errorf("NumParts() = %d, want 1", got)
	}
}

func TestNumPartsFromNontrivialPartHead(t *testing.T) {
	l := plainBobMinorLayout()
	l.PartHead = row.MustParse("531642") // a single 6-cycle on all 6 bells: order 6
	if got := l.NumParts(); got != 6 {
		t.Errorf("NumParts() = %d, want 6", got)
	}
}

func TestForwardCandidatesFindsLinkAndEnd(t *testing.T) {
	l := plainBobMinorLayout()
	cands := l.ForwardCandidates(RowIdx{Block: 0, Row: 0}, row.Rounds(6))

	var sawLink, sawEnd bool
	for _, c := range cands {
		if c.IsEnd {
			sawEnd = true
			if c.Offset != 0 {
				t.Errorf("end candidate offset = %d, want 0", c.Offset)
			}
		} else {
			sawLink = true
			if c.Offset != 11 {
				t.Errorf("link candidate offset = %d, want 11", c.Offset)
			}
		}
	}
	if !sawLink {
		t.Error("expected a link candidate")
	}
	if !sawEnd {
		t.Error("expected an end candidate at row 0 itself")
	}
}

func TestRowRangeRows(t *testing.T) {
	l := plainBobMinorLayout()
	rr := RowRange{Start: RowIdx{Block: 0, Row: 0}, Len: 12}
	rows := l.Rows(rr)
	if len(rows) != 12 {
		t.Fatalf("len(Rows) = %d, want 12", len(rows))
	}
	if rr.End() != (RowIdx{Block: 0, Row: 12}) {
		t.Errorf("End() = %v, want (0,12)", rr.End())
	}
}

func TestNodeIdKeyDistinguishesStartFlag(t *testing.T) {
	base := NodeId{Standard: true, CourseHead: row.Rounds(6), RowIdx: RowIdx{Block: 0, Row: 0}}
	withStart := base
	withStart.IsStart = true

	if base.Key() == withStart.Key() {
		t.Error("NodeId.Key() must distinguish IsStart, since a round block may both start and end at the same row")
	}
}

func TestNodeIdKeyNonStandard(t *testing.T) {
	a := NodeId{NonStandardTag: "sentinel-a"}
	b := NodeId{NonStandardTag: "sentinel-b"}
	if a.Key() == b.Key() {
		t.Error("distinct non-standard tags must produce distinct keys")
	}
}
