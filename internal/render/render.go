// Package render re-traces a search.Result's node path through the Compact
// Graph to recover the external-facing Comp representation spec.md §6
// describes: start/succession indices into the prototype graph's successor
// lists, plus the derived length/score/rotation figures a caller prints.
package render

import (
	"strings"

	"github.com/kneasle/monument/internal/compact"
	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/search"
)

// Comp is the rendered, external view of one composition (spec.md §6
// Outputs). SuccessionIndices[i] is the successor slot taken at Path[i]; a
// caller with the originating Layout can map each slot through LinkIdx to
// recover the Layout link it realises.
type Comp struct {
	Length            int
	Score             float64
	AvgScore          float64
	Rotation          int
	StartIdx          int
	SuccessionIndices []int
	CallString        string
}

// Trace converts a search.Result into a Comp. starts is the same slice the
// orchestrator partitioned over (compact.Graph.Start()), used to recover
// StartIdx; l is the Layout the graph was built from, used to label each
// step in CallString by its link's Label.
func Trace(r search.Result, starts []*compact.Node, numParts int, l *layout.Layout) Comp {
	c := Comp{
		Length:            r.Length,
		Score:             r.Score,
		AvgScore:          r.AvgScore(),
		SuccessionIndices: make([]int, 0, len(r.Path)-1),
	}

	for i, n := range starts {
		if len(r.Path) > 0 && n == r.Path[0] {
			c.StartIdx = i
			break
		}
	}

	var labels []string
	rotation := 0
	for i := 0; i+1 < len(r.Path); i++ {
		from, to := r.Path[i], r.Path[i+1]
		slot := successorSlot(from, to)
		c.SuccessionIndices = append(c.SuccessionIndices, slot)
		if slot < 0 {
			continue
		}
		rotation += from.RotationIdx(slot)
		if l != nil {
			linkIdx := from.LinkIdx(slot)
			if linkIdx >= 0 && linkIdx < len(l.Links) {
				labels = append(labels, l.Links[linkIdx].Label)
			}
		}
	}
	if numParts > 0 {
		rotation = ((rotation % numParts) + numParts) % numParts
	}
	c.Rotation = rotation
	c.CallString = strings.Join(labels, ".")
	return c
}

// successorSlot finds the index in from.Successors that equals to, or -1 if
// to is not one of from's successors (a precondition violation: Path must
// always be a walk along Successors edges).
func successorSlot(from, to *compact.Node) int {
	for i, s := range from.Successors {
		if s == to {
			return i
		}
	}
	return -1
}
