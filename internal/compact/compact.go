// Package compact converts an optimised prototype graph.Graph into an
// immutable, pointer-dense representation built for fast traversal by the
// search engine. Rather than a map keyed on NodeId, every node lives at a
// fixed slot in one pre-sized arena slice; cross-node references are raw
// *Node pointers into that arena, valid for the arena's entire lifetime
// because the arena is allocated once, at its final size, and never grown
// afterwards (Go never relocates slice elements in place, so pointers into
// a slice stay valid as long as nothing appends past its capacity).
package compact

import (
	"github.com/kneasle/monument/internal/graph"
	"github.com/kneasle/monument/internal/layout"
)

// Extras holds the per-node bookkeeping that the search hot path never
// touches: the original NodeId (needed only for diagnostics) and the
// mapping from a successor slot to the Layout link index it realises, used
// later to render a human-readable composition string.
type Extras struct {
	Id          layout.NodeId
	LinkMap     []int // LinkMap[i] is the Layout link index for Successors[i]
	RotationMap []int // RotationMap[i] is the part-head rotation induced by taking Successors[i]
}

// Node is one fixed-shape header in the arena. Successors and FalseNodes
// are raw pointers into the same arena, set once at construction and never
// mutated afterwards.
type Node struct {
	Payload interface{}

	PerPartLength      int
	TotalLength        int
	Score              float64
	LbDistanceToRounds int

	// Index is this node's slot in the owning Graph's arena. The search
	// engine uses it to key a plain []int forbidden-count slice instead of
	// a map keyed on NodeId.
	Index int

	Successors []*Node
	FalseNodes []*Node

	isEnd  bool
	extras Extras
}

// IsEnd reports whether this node completes a composition.
func (n *Node) IsEnd() bool { return n.isEnd }

// Id returns the node's original NodeId, for diagnostics and rendering.
func (n *Node) Id() layout.NodeId { return n.extras.Id }

// LinkIdx returns the Layout link index realised by Successors[slot].
func (n *Node) LinkIdx(slot int) int { return n.extras.LinkMap[slot] }

// RotationIdx returns the part-head rotation induced by taking Successors[slot].
func (n *Node) RotationIdx(slot int) int { return n.extras.RotationMap[slot] }

// Graph is the immutable compact graph: one arena of Nodes plus the start
// index, ready for read-only traversal.
type Graph struct {
	arena    []Node
	starts   []*Node
	numParts int
}

// Start returns the start nodes, in the order the prototype graph recorded
// them (the order the Prefix Partitioner and worker pool assign threads
// against).
func (g *Graph) Start() []*Node { return g.starts }

// Len is the number of nodes in the arena.
func (g *Graph) Len() int { return len(g.arena) }

// NumParts is the order of the part-head group this graph was built
// against, needed to report a composition's net rotation modulo the group.
func (g *Graph) NumParts() int { return g.numParts }

// Build compacts a prototype graph into an arena. payloadOf lets the
// caller attach an arbitrary per-node annotation (e.g. a rendering label)
// without the compact package needing to know its type.
func Build(pg *graph.Graph, payloadOf func(layout.NodeId) interface{}) *Graph {
	ids := pg.Ids()
	g := &Graph{arena: make([]Node, len(ids)), numParts: pg.NumParts()}

	index := make(map[string]*Node, len(ids))
	for i, id := range ids {
		index[id.Key()] = &g.arena[i]
	}

	for i, id := range ids {
		n, _ := pg.Get(id)
		dst := &g.arena[i]
		*dst = Node{
			PerPartLength:      n.PerPartLength,
			TotalLength:        n.TotalLength,
			Score:              n.Music.Total,
			LbDistanceToRounds: n.LbDistanceToRounds,
			Index:              i,
			isEnd:              n.IsEnd(),
			extras: Extras{
				Id:          id,
				LinkMap:     make([]int, 0, len(n.Successors)),
				RotationMap: make([]int, 0, len(n.Successors)),
			},
		}
		if payloadOf != nil {
			dst.Payload = payloadOf(id)
		}
		for _, s := range n.Successors {
			if succ, ok := index[s.Id.Key()]; ok {
				dst.Successors = append(dst.Successors, succ)
				dst.extras.LinkMap = append(dst.extras.LinkMap, s.LinkIdx)
				dst.extras.RotationMap = append(dst.extras.RotationMap, s.Rotation)
			}
		}
		for _, f := range n.FalseNodes {
			if falseNode, ok := index[f.Key()]; ok {
				dst.FalseNodes = append(dst.FalseNodes, falseNode)
			}
		}
	}

	for _, id := range pg.StartNodes() {
		if n, ok := index[id.Key()]; ok {
			g.starts = append(g.starts, n)
		}
	}

	return g
}
