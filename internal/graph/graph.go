// Package graph builds and holds the prototype Graph: a mutable,
// map-of-nodes representation of a Layout's reachable ringing segments,
// cheap to mutate but not optimised for traversal. It is produced by a
// Dijkstra-style expansion of the Layout and then repeatedly shrunk by the
// optimise package before being compacted for search.
package graph

import (
	"container/heap"
	"fmt"

	"github.com/kneasle/monument/internal/falseness"
	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/music"
	"github.com/kneasle/monument/internal/row"
)

// Link is a reference from one node to another: the neighbour's NodeId, the
// index of the Layout link that realises the reference (used later to
// reconstruct a human-readable composition string), and the rotation this
// traversal induces on the part-head.
type Link struct {
	Id       layout.NodeId
	LinkIdx  int
	Rotation int
}

// Node is one indivisible segment of ringing: a prototype graph vertex.
type Node struct {
	IsStart bool
	End     *layout.Anchor
	Label   string

	Successors   []Link
	Predecessors []Link
	FalseNodes   []layout.NodeId

	PerPartLength int
	TotalLength   int
	MethodCounts  map[string]int
	Music         music.Breakdown

	Required bool

	LbDistanceFromRounds int
	LbDistanceToRounds   int
}

// IsEnd reports whether this node terminates a composition.
func (n *Node) IsEnd() bool { return n.End != nil }

// MinCompLength is a lower bound on the length of any composition passing
// through this node.
func (n *Node) MinCompLength() int {
	return n.LbDistanceFromRounds + n.TotalLength + n.LbDistanceToRounds
}

// InfiniteDistance marks a node as unreachable from a start, or unable to
// reach any end, during the optimiser's distance-recompute passes.
const InfiniteDistance = int(^uint(0) >> 1)

// Graph is the prototype node graph built from a Layout.
type Graph struct {
	nodes      map[string]*Node
	ids        map[string]layout.NodeId
	startNodes []layout.NodeId
	endNodes   []layout.NodeId
	numParts   int
}

// NumParts is the order of the Layout's part-head group this graph was
// built against.
func (g *Graph) NumParts() int { return g.numParts }

// Get returns the node at id, if present.
func (g *Graph) Get(id layout.NodeId) (*Node, bool) {
	n, ok := g.nodes[id.Key()]
	return n, ok
}

// StartNodes returns the ids marked as starts (not all may still be
// present in the node map after pruning passes).
func (g *Graph) StartNodes() []layout.NodeId { return g.startNodes }

// EndNodes returns the ids marked as ends.
func (g *Graph) EndNodes() []layout.NodeId { return g.endNodes }

// SetStartNodes replaces the start id list, used by optimisation passes
// that prune dangling starts.
func (g *Graph) SetStartNodes(ids []layout.NodeId) { g.startNodes = ids }

// SetEndNodes replaces the end id list.
func (g *Graph) SetEndNodes(ids []layout.NodeId) { g.endNodes = ids }

// Ids iterates every NodeId currently in the graph.
func (g *Graph) Ids() []layout.NodeId {
	out := make([]layout.NodeId, 0, len(g.ids))
	for _, id := range g.ids {
		out = append(out, id)
	}
	return out
}

// Delete removes a node from the graph entirely.
func (g *Graph) Delete(id layout.NodeId) {
	delete(g.nodes, id.Key())
	delete(g.ids, id.Key())
}

// NumNodes, NumLinks, NumStarts, NumEnds report the components of the
// optimiser's 4-tuple Size measure (spec.md §4.3).
func (g *Graph) NumNodes() int { return len(g.nodes) }

func (g *Graph) NumLinks() int {
	total := 0
	for _, n := range g.nodes {
		total += len(n.Successors)
	}
	return total
}

func (g *Graph) NumStarts() int { return len(g.startNodes) }
func (g *Graph) NumEnds() int   { return len(g.endNodes) }

// frontierItem is a Dijkstra frontier entry: a NodeId at a tentative
// distance from the nearest start.
type frontierItem struct {
	id       layout.NodeId
	distance int
}

type frontierHeap []frontierItem

func (h frontierHeap) Len() int            { return len(h) }
func (h frontierHeap) Less(i, j int) bool  { return h[i].distance < h[j].distance }
func (h frontierHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *frontierHeap) Push(x interface{}) { *h = append(*h, x.(frontierItem)) }
func (h *frontierHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// expandedRange is the result of deriving one node's reachable range: its
// RowRange, the course head it ends in, the successor links found at the
// shortest applicable continuation, and whether it terminates at an End
// anchor instead.
type expandedRange struct {
	id         layout.NodeId
	rowRange   layout.RowRange
	isEnd      bool
	end        layout.Anchor
	successors []layout.Candidate // only populated for non-end ranges, deduplicated
}

// genRange derives the reachable range starting at id: the nearest
// applicable Link(s) or End anchor, per the Phase 1 tie-break rule (shortest
// continuation wins; equal-length links are all kept; an end ties with a
// link of the same length by winning over it; a strictly shorter link beats
// an end). Returns an error if no continuation exists at all (an infinite
// segment, fatal per spec.md §7), or if a start id would realise a
// zero-length start-is-also-end segment.
func genRange(l *layout.Layout, id layout.NodeId) (expandedRange, error) {
	candidates := l.ForwardCandidates(id.RowIdx, id.CourseHead)
	if len(candidates) == 0 {
		return expandedRange{}, fmt.Errorf("infinite segment found at %s: no link or end reachable", id)
	}

	minOffset := candidates[0].Offset
	for _, c := range candidates[1:] {
		if c.Offset < minOffset {
			minOffset = c.Offset
		}
	}

	var shortestEnd *layout.Candidate
	var shortestLinks []layout.Candidate
	for i, c := range candidates {
		if c.Offset != minOffset {
			continue
		}
		if c.IsEnd {
			shortestEnd = &candidates[i]
		} else {
			shortestLinks = append(shortestLinks, c)
		}
	}

	rr := layout.RowRange{Start: id.RowIdx, Len: minOffset}

	if shortestEnd != nil {
		if id.IsStart && minOffset == 0 {
			return expandedRange{}, fmt.Errorf(
				"zero-length start-is-also-end segment forbidden at %s", id)
		}
		return expandedRange{id: id, rowRange: rr, isEnd: true, end: shortestEnd.End}, nil
	}

	dedup := make(map[string]layout.Candidate)
	for _, c := range shortestLinks {
		key := fmt.Sprintf("%s|%s|%s", c.Link.FromRowIdx, c.Link.ToRowIdx, c.Link.CourseHeadTransposition)
		dedup[key] = c
	}
	out := make([]layout.Candidate, 0, len(dedup))
	for _, c := range dedup {
		out = append(out, c)
	}
	return expandedRange{id: id, rowRange: rr, isEnd: false, successors: out}, nil
}

// successorId computes the NodeId reached by taking link c from the
// current course head.
func successorId(c layout.Candidate, currentCourseHead row.Row) layout.NodeId {
	newCh := currentCourseHead.Transpose(c.Link.CourseHeadTransposition)
	return layout.NodeId{
		Standard:   true,
		CourseHead: newCh,
		RowIdx:     c.Link.ToRowIdx,
		IsStart:    false,
	}
}

// Build runs the full Layout -> Graph pipeline (spec.md §4.2 phases 1-4).
func Build(l *layout.Layout, types []music.MusicType, maxLength int) (*Graph, error) {
	numParts := l.NumParts()
	partHeads := make([]row.Row, numParts)
	cur := row.Rounds(l.Stage)
	for i := 0; i < numParts; i++ {
		partHeads[i] = cur
		cur = cur.Transpose(l.PartHead)
	}

	startIds := make([]layout.NodeId, len(l.Starts))
	for i, s := range l.Starts {
		startIds[i] = layout.NodeId{
			Standard:   true,
			CourseHead: s.CourseHead,
			RowIdx:     s.RowIdx,
			IsStart:    true,
		}
	}

	// Phase 1: Dijkstra range enumeration.
	expanded := make(map[string]expandedRangeWithDist)
	fh := &frontierHeap{}
	heap.Init(fh)
	for _, id := range startIds {
		heap.Push(fh, frontierItem{id: id, distance: 0})
	}

	for fh.Len() > 0 {
		item := heap.Pop(fh).(frontierItem)
		key := item.id.Key()
		if _, done := expanded[key]; done {
			continue
		}
		rng, err := genRange(l, item.id)
		if err != nil {
			return nil, err
		}
		newDist := item.distance + rng.rowRange.Len*numParts
		if newDist > maxLength {
			continue
		}
		if !rng.isEnd {
			for _, c := range rng.successors {
				succId := successorId(c, item.id.CourseHead)
				heap.Push(fh, frontierItem{id: succId, distance: newDist})
			}
		}
		expanded[key] = expandedRangeWithDist{rng: rng, dist: item.distance}
	}

	g := &Graph{
		nodes:    make(map[string]*Node),
		ids:      make(map[string]layout.NodeId),
		numParts: numParts,
	}

	var endNodeIds []layout.NodeId
	ranges := make([]layout.RowRange, 0, len(expanded))

	// Phase 2: node materialisation.
	for key, ewd := range expanded {
		rng := ewd.rng
		ranges = append(ranges, rng.rowRange)

		n := &Node{
			IsStart:              rng.id.IsStart,
			PerPartLength:        rng.rowRange.Len,
			LbDistanceFromRounds: ewd.dist,
			LbDistanceToRounds:   0,
			MethodCounts:         map[string]int{},
		}
		if rng.isEnd {
			end := rng.end
			n.End = &end
			endNodeIds = append(endNodeIds, rng.id)
		} else {
			for _, c := range rng.successors {
				succId := successorId(c, rng.id.CourseHead)
				n.Successors = append(n.Successors, Link{
					Id:       succId,
					LinkIdx:  layoutLinkIndex(l, c.Link),
					Rotation: 0, // rotation accounting is a future extension; single-rotation layouts use 0 throughout
				})
			}
		}

		untransposedRows := l.Rows(rng.rowRange)
		n.TotalLength = rng.rowRange.Len * numParts
		breakdown := music.Zero(len(types))
		for _, ph := range partHeads {
			ch := ph.Transpose(rng.id.CourseHead)
			partBreakdown := music.FromRows(untransposedRows, ch, types)
			breakdown.Add(partBreakdown)
		}
		n.Music = breakdown

		g.nodes[key] = n
		g.ids[key] = rng.id
	}

	g.startNodes = startIds
	g.endNodes = endNodeIds

	// Phase 3: falseness.
	ftable := falseness.Build(l, ranges)
	for key, n := range g.nodes {
		id := g.ids[key]
		if !id.Standard {
			continue
		}
		rr := layout.RowRange{Start: id.RowIdx, Len: n.PerPartLength}
		n.FalseNodes = n.FalseNodes[:0]
		for _, fr := range ftable.FalseCourseHeads(rr) {
			// fr.Transposition t satisfies t.Transpose(rows of rr) == rows of
			// fr.Range, so the other node's rows coincide with ours under
			// CourseHead.Transpose(t^-1).
			falseCh := id.CourseHead.Transpose(fr.Transposition.Inverse())
			for _, isStart := range [2]bool{true, false} {
				falseId := layout.NodeId{
					Standard:   true,
					CourseHead: falseCh,
					RowIdx:     fr.Range.Start,
					IsStart:    isStart,
				}
				if _, ok := g.nodes[falseId.Key()]; ok {
					n.FalseNodes = append(n.FalseNodes, falseId)
				}
			}
		}
	}

	// Phase 4: predecessors.
	for key, n := range g.nodes {
		id := g.ids[key]
		for _, succLink := range n.Successors {
			if succNode, ok := g.nodes[succLink.Id.Key()]; ok {
				succNode.Predecessors = append(succNode.Predecessors, Link{
					Id:       id,
					LinkIdx:  succLink.LinkIdx,
					Rotation: (numParts - succLink.Rotation) % numParts,
				})
			}
		}
	}

	return g, nil
}

type expandedRangeWithDist struct {
	rng  expandedRange
	dist int
}

func layoutLinkIndex(l *layout.Layout, lk layout.Link) int {
	for i, candidate := range l.Links {
		if candidate.FromRowIdx == lk.FromRowIdx &&
			candidate.ToRowIdx == lk.ToRowIdx &&
			candidate.CourseHeadTransposition.Equal(lk.CourseHeadTransposition) {
			return i
		}
	}
	return -1
}
