package render

import (
	"testing"

	"github.com/kneasle/monument/internal/compact"
	"github.com/kneasle/monument/internal/graph"
	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/row"
	"github.com/kneasle/monument/internal/search"
)

func twoNodeChainLayout() *layout.Layout {
	rounds := row.Rounds(4)
	block := []row.Row{rounds, row.MustParse("2143"), row.MustParse("2413"), row.MustParse("4231")}
	return &layout.Layout{
		Blocks: [][]row.Row{block},
		Links: []layout.Link{
			{
				FromRowIdx:              layout.RowIdx{Block: 0, Row: 1},
				ToRowIdx:                layout.RowIdx{Block: 0, Row: 3},
				CourseHeadMask:          layout.Mask{-1, -1, -1, -1},
				CourseHeadTransposition: rounds,
				Label:                   "bridge",
			},
		},
		Starts:   []layout.Anchor{{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 0}, Label: "start"}},
		Ends:     []layout.Anchor{{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 3}, Label: "end"}},
		PartHead: rounds,
		Stage:    4,
	}
}

func TestTraceRecoversStartIdxAndCallString(t *testing.T) {
	l := twoNodeChainLayout()
	pg, err := graph.Build(l, nil, 100)
	if err != nil {
		t.Fatalf("graph.Build: %v", err)
	}
	cg := compact.Build(pg, nil)
	start := cg.Start()[0]
	end := start.Successors[0]

	r := search.Result{Path: []*compact.Node{start, end}, Length: start.TotalLength + end.TotalLength, Score: 0}
	comp := Trace(r, cg.Start(), cg.NumParts(), l)

	if comp.StartIdx != 0 {
		t.Errorf("StartIdx = %d, want 0", comp.StartIdx)
	}
	if len(comp.SuccessionIndices) != 1 || comp.SuccessionIndices[0] != 0 {
		t.Errorf("SuccessionIndices = %v, want [0]", comp.SuccessionIndices)
	}
	if comp.CallString != "bridge" {
		t.Errorf("CallString = %q, want %q", comp.CallString, "bridge")
	}
	if comp.Length != r.Length {
		t.Errorf("Length = %d, want %d", comp.Length, r.Length)
	}
}
