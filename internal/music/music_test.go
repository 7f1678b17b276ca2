package music

import (
	"testing"

	"github.com/kneasle/monument/internal/row"
)

func runsOfFourType() MusicType {
	return MusicType{
		Name: "4-bell runs off the front",
		Patterns: []Pattern{
			{0, 1, 2, 3, -1, -1},
			{3, 2, 1, 0, -1, -1},
		},
		Weight: 1,
	}
}

func TestPatternMatches(t *testing.T) {
	p := Pattern{0, 1, 2, 3, -1, -1}
	if !p.Matches(row.MustParse("123456")) {
		t.Fatal("expected pattern to match 123456")
	}
	if p.Matches(row.MustParse("214365")) {
		t.Fatal("expected pattern not to match 214365")
	}
}

func TestFromRowsAccumulatesCounts(t *testing.T) {
	rows := []row.Row{
		row.MustParse("123456"),
		row.MustParse("432165"),
		row.MustParse("531642"),
	}
	b := FromRows(rows, row.Rounds(6), []MusicType{runsOfFourType()})
	if b.Counts[0] != 2 {
		t.Errorf("Counts[0] = %d, want 2", b.Counts[0])
	}
	if b.Total != 2 {
		t.Errorf("Total = %v, want 2", b.Total)
	}
}

func TestZeroBreakdownHasNoScore(t *testing.T) {
	b := Zero(3)
	if b.Total != 0 || len(b.Counts) != 3 {
		t.Fatalf("Zero(3) = %+v", b)
	}
}

func TestAddAccumulates(t *testing.T) {
	a := Zero(2)
	a.Counts[0] = 1
	a.Total = 5
	other := Breakdown{Counts: []int{2, 3}, Total: 7}
	a.Add(other)
	if a.Counts[0] != 3 || a.Counts[1] != 3 || a.Total != 12 {
		t.Errorf("Add result = %+v", a)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	a := Breakdown{Counts: []int{1, 2}, Total: 3}
	b := a.Clone()
	b.Counts[0] = 99
	if a.Counts[0] == 99 {
		t.Error("Clone should not alias the original Counts slice")
	}
}
