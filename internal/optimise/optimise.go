// Package optimise repeatedly shrinks a prototype graph.Graph by applying a
// configured sequence of Passes until the graph's Size reaches a fixed
// point or an iteration cap is hit.
package optimise

import (
	"container/heap"

	"github.com/kneasle/monument/internal/config"
	"github.com/kneasle/monument/internal/graph"
	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/logger"
)

// Pass mutates g in place. Passes are free to remove nodes, reorder
// successors, or update the distance bounds; they must never change a
// node's total length, music or method counts.
type Pass func(g *graph.Graph, lgr logger.Logger)

// Size is the 4-tuple the optimiser compares sweeps against (spec.md
// §4.3): number of nodes, links, starts and ends.
type Size struct {
	NumNodes, NumLinks, NumStarts, NumEnds int
}

func sizeOf(g *graph.Graph) Size {
	return Size{
		NumNodes:  g.NumNodes(),
		NumLinks:  g.NumLinks(),
		NumStarts: g.NumStarts(),
		NumEnds:   g.NumEnds(),
	}
}

// ordering is the componentwise partial order over Size: Less if no
// component increased and at least one decreased, Greater symmetrically,
// Equal if none changed, and Incomparable if some grew while others shrank.
type ordering int

const (
	orderLess ordering = iota
	orderEqual
	orderGreater
	orderIncomparable
)

func compareSize(a, b Size) ordering {
	cmps := [4]int{
		a.NumNodes - b.NumNodes,
		a.NumLinks - b.NumLinks,
		a.NumStarts - b.NumStarts,
		a.NumEnds - b.NumEnds,
	}
	anyLess, anyGreater := false, false
	for _, c := range cmps {
		if c < 0 {
			anyLess = true
		} else if c > 0 {
			anyGreater = true
		}
	}
	switch {
	case anyLess && !anyGreater:
		return orderLess
	case anyGreater && !anyLess:
		return orderGreater
	case !anyLess && !anyGreater:
		return orderEqual
	default:
		return orderIncomparable
	}
}

// DefaultIterLimit is the sweep cap used when the caller doesn't override
// it (spec.md §4.3).
const DefaultIterLimit = 20

// Optimise runs passes repeatedly, stopping when a sweep fails to make
// strict progress (Equal or Greater) or when limit sweeps have run. limit
// <= 0 means DefaultIterLimit.
func Optimise(g *graph.Graph, passes []Pass, lgr logger.Logger, limit int) {
	if limit <= 0 {
		limit = DefaultIterLimit
	}
	last := sizeOf(g)
	for i := 0; i < limit; i++ {
		for _, p := range passes {
			p(g, lgr)
		}
		next := sizeOf(g)
		switch compareSize(next, last) {
		case orderEqual, orderGreater:
			return
		}
		last = next
	}
}

// RecomputeDistanceFromRounds is pass 1: Dijkstra from every surviving
// start node along successor edges, edge weight = predecessor's
// TotalLength. Distances only ever decrease.
func RecomputeDistanceFromRounds(g *graph.Graph, lgr logger.Logger) {
	type item struct {
		id       layout.NodeId
		distance int
	}
	fh := &distHeap{}
	heap.Init(fh)
	for _, id := range g.StartNodes() {
		heap.Push(fh, distHeapItem{id: id, distance: 0})
	}
	for fh.Len() > 0 {
		it := heap.Pop(fh).(distHeapItem)
		n, ok := g.Get(it.id)
		if !ok {
			continue
		}
		if it.distance >= n.LbDistanceFromRounds {
			continue
		}
		n.LbDistanceFromRounds = it.distance
		after := it.distance + n.TotalLength
		for _, succ := range n.Successors {
			heap.Push(fh, distHeapItem{id: succ.Id, distance: after})
		}
	}
}

// RecomputeDistanceToRounds is pass 2: Dijkstra from every end node along
// predecessor edges, edge weight = the current node's TotalLength. Stored
// per node as the distance from the row immediately after the node to an
// end.
func RecomputeDistanceToRounds(g *graph.Graph, lgr logger.Logger) {
	for _, id := range g.Ids() {
		if n, ok := g.Get(id); ok {
			n.LbDistanceToRounds = graph.InfiniteDistance
		}
	}
	fh := &distHeap{}
	heap.Init(fh)
	for _, id := range g.EndNodes() {
		heap.Push(fh, distHeapItem{id: id, distance: 0})
	}
	for fh.Len() > 0 {
		it := heap.Pop(fh).(distHeapItem)
		n, ok := g.Get(it.id)
		if !ok {
			continue
		}
		if it.distance >= n.LbDistanceToRounds {
			continue
		}
		n.LbDistanceToRounds = it.distance
		distFromStartOfNode := it.distance + n.TotalLength
		for _, pred := range n.Predecessors {
			heap.Push(fh, distHeapItem{id: pred.Id, distance: distFromStartOfNode})
		}
	}
}

type distHeapItem struct {
	id       layout.NodeId
	distance int
}

type distHeap []distHeapItem

func (h distHeap) Len() int            { return len(h) }
func (h distHeap) Less(i, j int) bool  { return h[i].distance < h[j].distance }
func (h distHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *distHeap) Push(x interface{}) { *h = append(*h, x.(distHeapItem)) }
func (h *distHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// DistanceBoundedPruning is pass 3: remove any node whose
// lb_distance_from_rounds + total_length + lb_distance_to_rounds exceeds
// maxLength, or whose lb_distance_to_rounds is still infinite. End nodes
// must always have a finite to-rounds distance.
func DistanceBoundedPruning(maxLength int) Pass {
	return func(g *graph.Graph, lgr logger.Logger) {
		var toRemove []layout.NodeId
		for _, id := range g.Ids() {
			n, ok := g.Get(id)
			if !ok {
				continue
			}
			if n.LbDistanceToRounds == graph.InfiniteDistance {
				if n.IsEnd() {
					lgr.Error("end node cannot reach rounds", logger.F("id", id.String()))
				}
				toRemove = append(toRemove, id)
				continue
			}
			if n.MinCompLength() > maxLength {
				toRemove = append(toRemove, id)
			}
		}
		for _, id := range toRemove {
			g.Delete(id)
		}
	}
}

// ReachabilityPruning is pass 4: DFS from the start nodes along successor
// edges, removing any node never visited. Subsumed in practice by distance
// pruning, kept as a cheap independent check.
func ReachabilityPruning(g *graph.Graph, lgr logger.Logger) {
	visited := make(map[string]bool)
	var stack []layout.NodeId
	stack = append(stack, g.StartNodes()...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		key := id.Key()
		if visited[key] {
			continue
		}
		n, ok := g.Get(id)
		if !ok {
			continue
		}
		visited[key] = true
		for _, succ := range n.Successors {
			if !visited[succ.Id.Key()] {
				stack = append(stack, succ.Id)
			}
		}
	}
	for _, id := range g.Ids() {
		if !visited[id.Key()] {
			g.Delete(id)
		}
	}
}

// StripDanglingReferences is pass 5: remove successor/predecessor/falseness
// references pointing at nodes no longer in the graph, and drop start/end
// ids whose node was removed. Idempotent: running it again on an
// already-stripped graph is a no-op.
func StripDanglingReferences(g *graph.Graph, lgr logger.Logger) {
	present := make(map[string]bool)
	for _, id := range g.Ids() {
		present[id.Key()] = true
	}

	filterStarts := make([]layout.NodeId, 0, len(g.StartNodes()))
	for _, id := range g.StartNodes() {
		if present[id.Key()] {
			filterStarts = append(filterStarts, id)
		}
	}
	g.SetStartNodes(filterStarts)

	filterEnds := make([]layout.NodeId, 0, len(g.EndNodes()))
	for _, id := range g.EndNodes() {
		if present[id.Key()] {
			filterEnds = append(filterEnds, id)
		}
	}
	g.SetEndNodes(filterEnds)

	for _, id := range g.Ids() {
		n, _ := g.Get(id)
		n.Successors = filterLinks(n.Successors, present)
		n.Predecessors = filterLinks(n.Predecessors, present)
		n.FalseNodes = filterIds(n.FalseNodes, present)
	}
}

func filterLinks(links []graph.Link, present map[string]bool) []graph.Link {
	out := links[:0]
	for _, l := range links {
		if present[l.Id.Key()] {
			out = append(out, l)
		}
	}
	return out
}

func filterIds(ids []layout.NodeId, present map[string]bool) []layout.NodeId {
	out := ids[:0]
	for _, id := range ids {
		if present[id.Key()] {
			out = append(out, id)
		}
	}
	return out
}

// SuccessorOrderingStrategy picks how per-successor scores are combined
// when bootstrapping the reachable-music estimate (spec.md §4.3 pass 6).
type SuccessorOrderingStrategy = config.SuccSortStrategy

// SortSuccessorsByReachableMusic is pass 6: reorders each node's successors
// descending by a dynamic-programming estimate of the music reachable
// within `depth` further nodes, so DFS search visits the most promising
// branch first. depth == 0 disables sorting.
func SortSuccessorsByReachableMusic(depth int, strat SuccessorOrderingStrategy) Pass {
	return func(g *graph.Graph, lgr logger.Logger) {
		if depth == 0 {
			return
		}
		ids := g.Ids()
		scoresPrev := make(map[string]float64, len(ids))
		for _, id := range ids {
			n, _ := g.Get(id)
			scoresPrev[id.Key()] = n.Music.Total
		}
		scoresCur := make(map[string]float64, len(ids))

		for i := 1; i <= depth; i++ {
			for _, id := range ids {
				n, _ := g.Get(id)
				succScores := make([]float64, 0, len(n.Successors))
				for _, s := range n.Successors {
					succScores = append(succScores, scoresPrev[s.Id.Key()])
				}
				scoresCur[id.Key()] = n.Music.Total + combine(succScores, strat)
			}
			scoresPrev, scoresCur = scoresCur, scoresPrev
		}

		for _, id := range ids {
			n, _ := g.Get(id)
			succs := n.Successors
			less := func(i, j int) bool {
				return scoresPrev[succs[i].Id.Key()] > scoresPrev[succs[j].Id.Key()]
			}
			insertionSort(succs, less)
		}
	}
}

func combine(scores []float64, strat SuccessorOrderingStrategy) float64 {
	if len(scores) == 0 {
		return 0
	}
	switch strat {
	case config.SuccSortMax:
		max := scores[0]
		for _, s := range scores[1:] {
			if s > max {
				max = s
			}
		}
		return max
	default: // config.SuccSortAverage and the empty-string default
		sum := 0.0
		for _, s := range scores {
			sum += s
		}
		return sum / float64(len(scores))
	}
}

// insertionSort keeps the sort stable and allocation-free; successor lists
// are short (a handful of calls at most), so O(n^2) is not a concern.
func insertionSort(s []graph.Link, less func(i, j int) bool) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && less(j, j-1); j-- {
			s[j], s[j-1] = s[j-1], s[j]
		}
	}
}
