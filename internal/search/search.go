// Package search runs the parallel depth-first, best-first tree search over
// a Compact Graph: workers walk disjoint prefixes produced by the Prefix
// Partitioner, track truth with a per-node forbidden-count array, and
// branch-and-bound on length to emit candidate compositions into a shared
// bounded result collector.
package search

import (
	"container/heap"
	"context"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kneasle/monument/internal/compact"
	"github.com/kneasle/monument/internal/logger"
)

// Bounds is the subset of a query's acceptance criteria the search engine
// enforces while walking the graph. len_range is half-open; LenMax − 1 is
// the inclusive cap used for pruning (spec.md §4.5/§6).
type Bounds struct {
	LenMin, LenMax int
	NumComps       int

	// PerRowScoreCeiling is the highest score any single row can contribute,
	// used by the BestFirst frontier's upper-bound estimate.
	PerRowScoreCeiling float64
}

func (b Bounds) inRange(length int) bool {
	return length >= b.LenMin && length < b.LenMax
}

// Result is one accepted composition path through the Compact Graph, in
// visiting order from a start node to an end node.
type Result struct {
	Path   []*compact.Node
	Length int
	Score  float64
}

// AvgScore is the ranking key compositions are sorted by (spec.md §5
// "Ordering guarantees": ascending by avg_score).
func (r Result) AvgScore() float64 {
	if r.Length == 0 {
		return 0
	}
	return r.Score / float64(r.Length)
}

// worker holds the mutable state of one depth-first branch-and-bound
// traversal: the path taken so far and a forbidden-count per node, indexed
// by compact.Node.Index. A count > 0 means some node already on the path is
// false against it; using a counter rather than a bitset lets independent
// predecessors forbid (and later un-forbid) the same node without
// clobbering each other (spec.md §4.5, §8 "search truth").
type worker struct {
	path      []*compact.Node
	length    int
	score     float64
	forbidden []int
}

func newWorker(numNodes int) *worker {
	return &worker{forbidden: make([]int, numNodes)}
}

// push commits to visiting n: it must already be a legal successor of the
// current path's last node (or a start, for the first call).
func (w *worker) push(n *compact.Node) {
	w.path = append(w.path, n)
	w.length += n.TotalLength
	w.score += n.Score
	for _, f := range n.FalseNodes {
		w.forbidden[f.Index]++
	}
}

// pop undoes the effect of the matching push, symmetrically.
func (w *worker) pop(n *compact.Node) {
	for _, f := range n.FalseNodes {
		w.forbidden[f.Index]--
	}
	w.score -= n.Score
	w.length -= n.TotalLength
	w.path = w.path[:len(w.path)-1]
}

// visit assumes n is already pushed onto the worker's state, and recurses
// into its unforbidden, in-bound successors (spec.md §4.5 "Algorithm").
func (w *worker) visit(n *compact.Node, bounds Bounds, coll *collector) {
	if n.IsEnd() && bounds.inRange(w.length) {
		coll.offer(Result{
			Path:   append([]*compact.Node(nil), w.path...),
			Length: w.length,
			Score:  w.score,
		})
	}

	for _, succ := range n.Successors {
		if w.forbidden[succ.Index] > 0 {
			continue
		}
		// len + successor.total_length + successor.lb_distance_to_rounds <
		// len_min is "still viable, no prune yet" — nothing to do.
		if w.length+succ.TotalLength > bounds.LenMax-1 {
			continue
		}
		w.push(succ)
		w.visit(succ, bounds, coll)
		w.pop(succ)
	}
}

// runPrefix marks every node of a Prefix Partitioner prefix onto the
// worker's state once, continues the depth-first search from the prefix's
// last node, then unwinds in reverse. Prefixes are produced without a truth
// check (§4.6), so an infeasible one simply contributes nothing once its
// own forbidden marks are applied: a prefix node already forbidden by an
// earlier one stops the prefix before any search runs.
func (w *worker) runPrefix(prefix []*compact.Node, bounds Bounds, coll *collector) {
	if len(prefix) == 0 {
		return
	}
	pushed := 0
	for _, n := range prefix {
		if w.forbidden[n.Index] > 0 {
			break
		}
		w.push(n)
		pushed++
	}
	if pushed == len(prefix) {
		w.visit(prefix[len(prefix)-1], bounds, coll)
	}
	for i := pushed - 1; i >= 0; i-- {
		w.pop(prefix[i])
	}
}

// pathScore and pathLength replay a prefix's accumulated totals without
// mutating any worker state, for seeding a BestFirst frontier entry.
func pathScore(path []*compact.Node) float64 {
	total := 0.0
	for _, n := range path {
		total += n.Score
	}
	return total
}

func pathLength(path []*compact.Node) int {
	total := 0
	for _, n := range path {
		total += n.TotalLength
	}
	return total
}

// upperBoundScore estimates the best score reachable along a branch: its
// score so far, plus every remaining row scoring at the ceiling.
func upperBoundScore(scoreSoFar float64, lengthSoFar int, bounds Bounds) float64 {
	remaining := bounds.LenMax - lengthSoFar
	if remaining < 0 {
		remaining = 0
	}
	return scoreSoFar + float64(remaining)*bounds.PerRowScoreCeiling
}

// frontierEntry is one unexpanded branch in a BestFirst frontier: a prefix
// path plus its upper-bound score estimate.
type frontierEntry struct {
	path       []*compact.Node
	upperBound float64
}

// BestFirst is a bounded priority queue of frontier entries, ordered by
// descending upper-bound score estimate. Pushing past capacity evicts the
// single worst entry (spec.md §4.5 "Frontier strategy"): the queue never
// grows past the capacity it was built with.
type BestFirst struct {
	capacity int
	items    bestFirstHeap
}

// NewBestFirst builds a BestFirst frontier bounded to capacity entries.
// capacity <= 0 means unbounded.
func NewBestFirst(capacity int) *BestFirst {
	return &BestFirst{capacity: capacity}
}

// Len is the number of entries currently queued.
func (f *BestFirst) Len() int { return f.items.Len() }

// Push adds an entry. If the queue is at capacity, the entry with the
// lowest upper bound (possibly the one just pushed) is evicted.
func (f *BestFirst) Push(path []*compact.Node, upperBound float64) {
	heap.Push(&f.items, frontierEntry{path: path, upperBound: upperBound})
	if f.capacity > 0 && f.items.Len() > f.capacity {
		worst := 0
		for i := 1; i < f.items.Len(); i++ {
			if f.items[i].upperBound < f.items[worst].upperBound {
				worst = i
			}
		}
		heap.Remove(&f.items, worst)
	}
}

// Pop removes and returns the entry with the highest upper bound. ok is
// false if the frontier is empty.
func (f *BestFirst) Pop() (path []*compact.Node, ok bool) {
	if f.items.Len() == 0 {
		return nil, false
	}
	return heap.Pop(&f.items).(frontierEntry).path, true
}

// bestFirstHeap is a max-heap on upperBound, so the root (what Pop returns)
// is always the most promising branch. Eviction of the single worst entry
// when Push overflows capacity is a linear scan followed by heap.Remove,
// acceptable since per-worker frontiers are capped at queue_limit/num_threads
// entries.
type bestFirstHeap []frontierEntry

func (h bestFirstHeap) Len() int            { return len(h) }
func (h bestFirstHeap) Less(i, j int) bool  { return h[i].upperBound > h[j].upperBound }
func (h bestFirstHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *bestFirstHeap) Push(x interface{}) { *h = append(*h, x.(frontierEntry)) }
func (h *bestFirstHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// collector is the mutex-guarded, bounded ranked result set shared by every
// worker (spec.md §4.5 "Parallelism", §5 "Shared resources"). It keeps the
// NumComps compositions with the highest average score.
type collector struct {
	mu       sync.Mutex
	capacity int
	results  resultHeap
}

func newCollector(capacity int) *collector {
	return &collector{capacity: capacity}
}

func (c *collector) offer(r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()
	heap.Push(&c.results, r)
	if c.capacity > 0 && c.results.Len() > c.capacity {
		heap.Pop(&c.results)
	}
}

// sorted returns the collected results ascending by AvgScore (spec.md §5
// "Ordering guarantees").
func (c *collector) sorted() []Result {
	c.mu.Lock()
	out := append([]Result(nil), c.results...)
	c.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].AvgScore() < out[j].AvgScore() })
	return out
}

// resultHeap is a min-heap on AvgScore, so the worst composition is always
// at the root and cheapest to evict when the collector is over capacity.
type resultHeap []Result

func (h resultHeap) Len() int            { return len(h) }
func (h resultHeap) Less(i, j int) bool  { return h[i].AvgScore() < h[j].AvgScore() }
func (h resultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *resultHeap) Push(x interface{}) { *h = append(*h, x.(Result)) }
func (h *resultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// frontierCapacity is queue_limit divided evenly across num_threads, the
// bound spec.md §4.5 places on each worker's BestFirst frontier.
func frontierCapacity(queueLimit, numThreads int) int {
	if numThreads <= 0 {
		numThreads = 1
	}
	n := queueLimit / numThreads
	if n <= 0 {
		n = 1
	}
	return n
}

// shardPrefixes deals prefixes round-robin across numThreads shards, so
// every worker gets an interleaved share of independent work (spec.md §4.5
// "Correctness of parallel partitioning": exactly one prefix per
// composition, so sharding never duplicates or drops one).
func shardPrefixes(prefixes [][]*compact.Node, numThreads int) [][][]*compact.Node {
	shards := make([][][]*compact.Node, numThreads)
	for i, p := range prefixes {
		shards[i%numThreads] = append(shards[i%numThreads], p)
	}
	return shards
}

// Run spawns numThreads workers over the Prefix Partitioner's output and
// joins them, returning the collected compositions sorted ascending by
// AvgScore (spec.md §4.7's search phase, §5 "Scheduling model"). fanout
// controls how many prefixes the partitioner generates per thread.
func Run(ctx context.Context, g *compact.Graph, bounds Bounds, numThreads, queueLimit, fanout int, lgr logger.Logger) ([]Result, error) {
	if numThreads <= 0 {
		numThreads = runtime.NumCPU()
	}
	if fanout <= 0 {
		fanout = 1
	}
	numPrefixes := numThreads * fanout
	prefixes := Partition(g.Start(), numPrefixes)
	shards := shardPrefixes(prefixes, numThreads)
	coll := newCollector(bounds.NumComps)
	frontierCap := frontierCapacity(queueLimit, numThreads)

	// Cancellation is not supported in the core (spec.md §5); errgroup is
	// used purely for its spawn/join/first-error semantics, and the derived
	// context is not threaded further.
	eg, _ := errgroup.WithContext(ctx)
	for i := 0; i < numThreads; i++ {
		shard := shards[i]
		eg.Go(func() error {
			w := newWorker(g.Len())
			bf := NewBestFirst(frontierCap)
			for _, p := range shard {
				bf.Push(p, upperBoundScore(pathScore(p), pathLength(p), bounds))
			}
			for {
				p, ok := bf.Pop()
				if !ok {
					break
				}
				w.runPrefix(p, bounds, coll)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	lgr.Debug("search complete", logger.F("numThreads", numThreads), logger.F("numPrefixes", len(prefixes)))
	return coll.sorted(), nil
}

// Partition is the Prefix Partitioner (spec.md §4.6): BFS from every start
// node, expanding the shortest prefix in the frontier until the frontier
// holds at least numPrefixes disjoint prefixes or no prefix can be extended
// further. It does not check truth — infeasible prefixes simply discover
// nothing once a worker's incremental truth tracking rejects their nodes.
func Partition(starts []*compact.Node, numPrefixes int) [][]*compact.Node {
	queue := prefixesFromStarts(starts)
	var done [][]*compact.Node

	for len(queue)+len(done) < numPrefixes && len(queue) > 0 {
		prefix := queue[0]
		queue = queue[1:]
		last := prefix[len(prefix)-1]
		if len(last.Successors) == 0 {
			// A dead end can't be extended; it's already a terminal prefix.
			done = append(done, prefix)
			continue
		}
		for _, succ := range last.Successors {
			extended := make([]*compact.Node, len(prefix)+1)
			copy(extended, prefix)
			extended[len(prefix)] = succ
			queue = append(queue, extended)
		}
	}
	return append(done, queue...)
}

func prefixesFromStarts(starts []*compact.Node) [][]*compact.Node {
	out := make([][]*compact.Node, len(starts))
	for i, s := range starts {
		out[i] = []*compact.Node{s}
	}
	return out
}
