package optimise

import (
	"testing"

	"github.com/kneasle/monument/internal/config"
	"github.com/kneasle/monument/internal/graph"
	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/logger"
	"github.com/kneasle/monument/internal/music"
	"github.com/kneasle/monument/internal/row"
)

func chainLayout() *layout.Layout {
	rounds := row.Rounds(4)
	block := []row.Row{rounds, row.MustParse("2143"), row.MustParse("2413"), row.MustParse("4231")}
	links := []layout.Link{
		{
			FromRowIdx:              layout.RowIdx{Block: 0, Row: 1},
			ToRowIdx:                layout.RowIdx{Block: 0, Row: 2},
			CourseHeadMask:          layout.Mask{-1, -1, -1, -1},
			CourseHeadTransposition: rounds,
			Label:                   "a",
		},
	}
	ends := []layout.Anchor{{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 2}, Label: "end"}}
	return &layout.Layout{
		Blocks:   [][]row.Row{block},
		Links:    links,
		Starts:   []layout.Anchor{{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 0}, Label: "start"}},
		Ends:     ends,
		PartHead: rounds,
		Stage:    4,
	}
}

func TestOptimiseReachesFixedPointWithoutError(t *testing.T) {
	l := chainLayout()
	g, err := graph.Build(l, nil, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	passes := []Pass{
		RecomputeDistanceFromRounds,
		RecomputeDistanceToRounds,
		DistanceBoundedPruning(100),
		ReachabilityPruning,
		StripDanglingReferences,
	}
	Optimise(g, passes, logger.NopLogger{}, 0)

	if g.NumNodes() == 0 {
		t.Fatal("optimisation should not remove every node from a fully reachable, in-budget graph")
	}
}

func TestDistanceBoundedPruningRemovesOverLongNodes(t *testing.T) {
	l := chainLayout()
	g, err := graph.Build(l, nil, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	RecomputeDistanceFromRounds(g, logger.NopLogger{})
	RecomputeDistanceToRounds(g, logger.NopLogger{})
	DistanceBoundedPruning(1)(g, logger.NopLogger{})

	for _, id := range g.Ids() {
		n, _ := g.Get(id)
		if n.MinCompLength() > 1 {
			t.Errorf("node %v survived pruning with MinCompLength %d > 1", id, n.MinCompLength())
		}
	}
}

func TestStripDanglingReferencesIsIdempotent(t *testing.T) {
	l := chainLayout()
	g, err := graph.Build(l, nil, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	// Delete a node directly (bypassing a pruning pass) to create dangling
	// references, the way a hand-rolled pass might.
	ids := g.Ids()
	g.Delete(ids[0])

	StripDanglingReferences(g, logger.NopLogger{})
	sizeAfterFirst := sizeOf(g)
	StripDanglingReferences(g, logger.NopLogger{})
	sizeAfterSecond := sizeOf(g)

	if sizeAfterFirst != sizeAfterSecond {
		t.Errorf("StripDanglingReferences should be idempotent: %+v != %+v", sizeAfterFirst, sizeAfterSecond)
	}
}

// exactPattern matches only the row s itself, used to pin a specific
// weight onto a specific content row in branchingLayout below.
func exactPattern(s string) music.Pattern {
	r := row.MustParse(s)
	p := make(music.Pattern, len(r))
	for i, b := range r {
		p[i] = int(b)
	}
	return p
}

// branchingLayout starts at row 0, splits into two branches at row 1 (to
// row 2 and row 4), each branch scoring its own row then continuing one
// more hop (to row 6 / row 8) before ending. Own-row weights are set so a
// raw (depth-0) comparison ranks the branches in the OPPOSITE order from a
// one-hop-lookahead (depth-1) comparison: the low-branch's own row (2143,
// weight 10) is outscored by the high-branch's own row (2413, weight 20),
// but the low-branch's single successor (4231, weight 100) dwarfs the
// high-branch's successor (1234, no pattern, weight 0).
func branchingLayout() (*layout.Layout, []music.MusicType, layout.NodeId, layout.NodeId, layout.NodeId) {
	rounds := row.Rounds(4)
	blockRows := []string{
		"1234", // 0: start content
		"1234", // 1: branch point
		"2143", // 2: low-branch's own row, weight 10
		"1234", // 3: low-branch's departure point
		"2413", // 4: high-branch's own row, weight 20
		"1234", // 5: high-branch's departure point
		"4231", // 6: low-branch's successor, weight 100
		"1234", // 7: low-branch's successor's departure point
		"1234", // 8: high-branch's successor, weight 0
		"1234", // 9: high-branch's successor's departure point
		"1234", // 10: end of low-branch's successor
		"1234", // 11: end of high-branch's successor
	}
	block := make([]row.Row, len(blockRows))
	for i, s := range blockRows {
		block[i] = row.MustParse(s)
	}
	mask := layout.Mask{-1, -1, -1, -1}
	link := func(from, to int, label string) layout.Link {
		return layout.Link{
			FromRowIdx:              layout.RowIdx{Block: 0, Row: from},
			ToRowIdx:                layout.RowIdx{Block: 0, Row: to},
			CourseHeadMask:          mask,
			CourseHeadTransposition: rounds,
			Label:                   label,
		}
	}
	l := &layout.Layout{
		Blocks: [][]row.Row{block},
		Links: []layout.Link{
			link(1, 2, "to-low"),
			link(1, 4, "to-high"),
			link(3, 6, "low-onward"),
			link(5, 8, "high-onward"),
			link(7, 10, "low-end"),
			link(9, 11, "high-end"),
		},
		Starts: []layout.Anchor{{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 0}, Label: "start"}},
		Ends: []layout.Anchor{
			{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 10}, Label: "low-end"},
			{CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: 11}, Label: "high-end"},
		},
		PartHead: rounds,
		Stage:    4,
	}
	types := []music.MusicType{
		{Name: "ten", Patterns: []music.Pattern{exactPattern("2143")}, Weight: 10},
		{Name: "twenty", Patterns: []music.Pattern{exactPattern("2413")}, Weight: 20},
		{Name: "hundred", Patterns: []music.Pattern{exactPattern("4231")}, Weight: 100},
	}

	nodeId := func(r int) layout.NodeId {
		return layout.NodeId{Standard: true, CourseHead: rounds, RowIdx: layout.RowIdx{Block: 0, Row: r}}
	}
	startId := nodeId(0)
	startId.IsStart = true
	return l, types, startId, nodeId(2), nodeId(4)
}

func TestSortSuccessorsByReachableMusicOrdersMaxFirst(t *testing.T) {
	l, types, startId, lowId, highId := branchingLayout()
	g, err := graph.Build(l, types, 100)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	SortSuccessorsByReachableMusic(1, config.SuccSortMax)(g, logger.NopLogger{})

	start, ok := g.Get(startId)
	if !ok {
		t.Fatal("start node missing from graph")
	}
	if len(start.Successors) != 2 {
		t.Fatalf("start.Successors = %+v, want 2 entries", start.Successors)
	}
	// With one hop of lookahead, the low branch (own weight 10, successor
	// weight 100) must outrank the high branch (own weight 20, successor
	// weight 0), the opposite of sorting by own weight alone.
	if start.Successors[0].Id.Key() != lowId.Key() {
		t.Errorf("Successors[0] = %s, want the low-own/high-successor branch %s",
			start.Successors[0].Id, lowId)
	}
	if start.Successors[1].Id.Key() != highId.Key() {
		t.Errorf("Successors[1] = %s, want the high-own/low-successor branch %s",
			start.Successors[1].Id, highId)
	}
}
