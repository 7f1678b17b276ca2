// Package layout implements the Layout input structure and the range
// lookups the graph builder drives its Dijkstra expansion from. Layout
// itself is treated as an externally-supplied description of a composition
// structure (spec.md's "ringing-algebra" collaborator): blocks of rows
// joined by labelled, course-head-guarded links, with start and end
// anchors.
package layout

import (
	"fmt"
	"strings"

	"github.com/kneasle/monument/internal/row"
)

// RowIdx identifies a single row within a Layout's blocks.
type RowIdx struct {
	Block int
	Row   int
}

func (idx RowIdx) String() string {
	return fmt.Sprintf("(%d,%d)", idx.Block, idx.Row)
}

// Less orders RowIdx first by block then by row, used to give links and
// ranges within a block a deterministic iteration order.
func (idx RowIdx) Less(other RowIdx) bool {
	if idx.Block != other.Block {
		return idx.Block < other.Block
	}
	return idx.Row < other.Row
}

// Link is a labelled transition between two rows, guarded by a course-head
// mask: the link only applies to a traversal whose current course head
// matches CourseHeadMask, and CourseHeadTransposition is post-multiplied
// onto the course head when the link is taken.
type Link struct {
	FromRowIdx              RowIdx
	ToRowIdx                RowIdx
	CourseHeadMask          Mask
	CourseHeadTransposition row.Row
	Label                   string
}

// Mask is a course-head pattern: a slice the same length as the Layout's
// stage, where a non-negative entry at place i requires the (0-indexed) bell
// at place i to equal that value, and a negative entry means "don't care".
type Mask []int

// Matches reports whether the course head r satisfies the mask.
func (m Mask) Matches(r row.Row) bool {
	if len(m) == 0 {
		return true
	}
	if len(m) != len(r) {
		return false
	}
	for i, want := range m {
		if want >= 0 && int(r[i]) != want {
			return false
		}
	}
	return true
}

func (m Mask) String() string {
	var sb strings.Builder
	for _, v := range m {
		if v < 0 || v >= len(row.BellAlphabet) {
			sb.WriteByte('x')
		} else {
			sb.WriteByte(row.BellAlphabet[v])
		}
	}
	return sb.String()
}

// ParseMask decodes a mask from the same bell alphabet row.Parse uses, with
// 'x' (or any symbol outside the alphabet) meaning "don't care". Inverse of
// Mask.String for masks written back with row's display convention.
func ParseMask(s string) Mask {
	m := make(Mask, len(s))
	for i, c := range s {
		idx := strings.IndexRune(row.BellAlphabet, c)
		if idx < 0 {
			m[i] = -1
		} else {
			m[i] = idx
		}
	}
	return m
}

// Anchor marks a start or end point: a course head at a given row index,
// under a human-readable label (e.g. the method name a composition must
// start or finish in).
type Anchor struct {
	CourseHead row.Row
	RowIdx     RowIdx
	Label      string
}

// Layout is the input structure a composition search runs over: blocks of
// rows connected by Links, with Starts and Ends marking where compositions
// may begin and terminate, under a part-head row defining the cyclic part
// group.
type Layout struct {
	Blocks   [][]row.Row
	Links    []Link
	Starts   []Anchor
	Ends     []Anchor
	PartHead row.Row
	Stage    int
}

// NumParts is the order of the cyclic group generated by the part-head row.
func (l *Layout) NumParts() int {
	if l.PartHead == nil || l.PartHead.IsRounds() {
		return 1
	}
	return l.PartHead.Order()
}

// RowAt returns the row at idx, panicking if it is out of range (an
// out-of-range RowIdx is always a bug in either the Layout or the graph
// builder, never user input once the Layout has been validated).
func (l *Layout) RowAt(idx RowIdx) row.Row {
	return l.Blocks[idx.Block][idx.Row]
}

// BlockLen is the number of rows in the given block.
func (l *Layout) BlockLen(block int) int {
	return len(l.Blocks[block])
}

// RowRange is a contiguous run of rows within a single block, from Start
// for Len rows (inclusive of the row at Start). Ranges never cross block
// boundaries: a range always terminates at a Link or an End anchor before
// the block runs out.
type RowRange struct {
	Start RowIdx
	Len   int
}

// End is the (exclusive) row index one past the range.
func (rr RowRange) End() RowIdx {
	return RowIdx{Block: rr.Start.Block, Row: rr.Start.Row + rr.Len}
}

// Rows returns the rows covered by rr, in order.
func (l *Layout) Rows(rr RowRange) []row.Row {
	block := l.Blocks[rr.Start.Block]
	return block[rr.Start.Row : rr.Start.Row+rr.Len]
}

// NodeId identifies a prototype graph node: either a Standard id anchored
// to a course head and row index, or a non-standard sentinel (used for
// bookkeeping ids that never correspond to a real ringing segment).
type NodeId struct {
	Standard       bool
	CourseHead     row.Row
	RowIdx         RowIdx
	IsStart        bool
	NonStandardTag string
}

// Key returns a comparable, map-safe encoding of the id (row.Row is a
// slice, so NodeId itself cannot be used as a map key directly).
func (id NodeId) Key() string {
	if !id.Standard {
		return "ns:" + id.NonStandardTag
	}
	var sb strings.Builder
	sb.WriteString("s:")
	sb.WriteString(id.CourseHead.String())
	sb.WriteByte(':')
	sb.WriteString(id.RowIdx.String())
	if id.IsStart {
		sb.WriteString(":start")
	}
	return sb.String()
}

func (id NodeId) String() string {
	if !id.Standard {
		return fmt.Sprintf("NonStandard(%s)", id.NonStandardTag)
	}
	return fmt.Sprintf("Std(ch=%s,row=%s,start=%v)", id.CourseHead, id.RowIdx, id.IsStart)
}

// Candidate is a single applicable continuation found while scanning
// forward from a NodeId: either a Link (with the course head it would
// leave the range under) or an End anchor.
type Candidate struct {
	IsEnd      bool
	Offset     int // rows from the id's RowIdx to the candidate, >= 0 (0 when it sits on that row)
	Link       Link
	End        Anchor
}

// ForwardCandidates scans forward from RowIdx within its block, collecting
// every Link whose CourseHeadMask matches courseHead and every End anchor
// whose CourseHead exactly equals courseHead, alongside its Offset (rows
// until the candidate is reached). It does not apply the shortest-wins tie
// break; that is graph.Build's job (§4.2.1), since the tie break also needs
// to know whether the segment is a forbidden zero-length start-is-end.
func (l *Layout) ForwardCandidates(from RowIdx, courseHead row.Row) []Candidate {
	var out []Candidate

	for _, lk := range l.Links {
		if lk.FromRowIdx.Block != from.Block || lk.FromRowIdx.Row < from.Row {
			continue
		}
		if !lk.CourseHeadMask.Matches(courseHead) {
			continue
		}
		out = append(out, Candidate{
			IsEnd:  false,
			Offset: lk.FromRowIdx.Row - from.Row,
			Link:   lk,
		})
	}
	for _, end := range l.Ends {
		if end.RowIdx.Block != from.Block || end.RowIdx.Row < from.Row {
			continue
		}
		if !end.CourseHead.Equal(courseHead) {
			continue
		}
		out = append(out, Candidate{
			IsEnd:  true,
			Offset: end.RowIdx.Row - from.Row,
			End:    end,
		})
	}
	return out
}
