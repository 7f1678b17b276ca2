// Package orchestrator runs the full pipeline from a parsed Query to a
// ranked list of rendered compositions: build the prototype graph, optimise
// it to a fixed point, compact it for traversal, partition it into
// per-worker prefixes, run the parallel search, and render the results.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/kneasle/monument/internal/compact"
	"github.com/kneasle/monument/internal/config"
	"github.com/kneasle/monument/internal/graph"
	"github.com/kneasle/monument/internal/music"
	"github.com/kneasle/monument/internal/optimise"
	"github.com/kneasle/monument/internal/queryfile"
	"github.com/kneasle/monument/internal/render"
	"github.com/kneasle/monument/internal/search"

	"github.com/kneasle/monument/internal/logger"
)

// defaultPrefixFanout is the fanout factor search.Run multiplies num_threads
// by to size the Prefix Partitioner's output (spec.md §4.5 "num_threads ×
// fanout"); not itself a Configuration field, so a fixed value is used.
const defaultPrefixFanout = 4

// passByName maps the optimisation_passes descriptors (spec.md §6
// Configuration) to the concrete optimise.Pass each names.
func passByName(name string, maxLength int, cfg config.SearchConfig) (optimise.Pass, error) {
	switch name {
	case "distance_from_rounds":
		return optimise.RecomputeDistanceFromRounds, nil
	case "distance_to_rounds":
		return optimise.RecomputeDistanceToRounds, nil
	case "distance_pruning":
		return optimise.DistanceBoundedPruning(maxLength), nil
	case "reachability_pruning":
		return optimise.ReachabilityPruning, nil
	case "strip_refs":
		return optimise.StripDanglingReferences, nil
	case "successor_sort":
		return optimise.SortSuccessorsByReachableMusic(cfg.SuccessorLinkSortDepth, cfg.SuccessorLinkSortStrat), nil
	default:
		return nil, fmt.Errorf("unknown optimisation pass %q", name)
	}
}

// defaultPasses is the canonical pass sequence spec.md §4.3 lists, used when
// the Configuration doesn't override it.
var defaultPasses = []string{
	"distance_from_rounds",
	"distance_to_rounds",
	"distance_pruning",
	"reachability_pruning",
	"strip_refs",
	"successor_sort",
}

// RunQuery executes the full pipeline. It returns an empty, non-error result
// when the query is infeasible after optimisation (no surviving starts or
// ends), per spec.md §7's "Query infeasible" error kind.
func RunQuery(ctx context.Context, q *queryfile.Query, cfg config.SearchConfig, lgr logger.Logger) ([]render.Comp, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}
	l, musicTypes, _, err := q.Build()
	if err != nil {
		return nil, fmt.Errorf("building query: %w", err)
	}

	maxLength := q.LenRange.Max - 1

	pg, err := graph.Build(l, musicTypes, maxLength)
	if err != nil {
		return nil, fmt.Errorf("building graph: %w", err)
	}
	lgr.Debug("prototype graph built",
		logger.F("numNodes", pg.NumNodes()),
		logger.F("numLinks", pg.NumLinks()),
		logger.F("numStarts", pg.NumStarts()),
		logger.F("numEnds", pg.NumEnds()),
	)

	passNames := cfg.OptimisationPasses
	if len(passNames) == 0 {
		passNames = defaultPasses
	}
	passes := make([]optimise.Pass, 0, len(passNames))
	for _, name := range passNames {
		p, err := passByName(name, maxLength, cfg)
		if err != nil {
			return nil, err
		}
		passes = append(passes, p)
	}
	optimise.Optimise(pg, passes, lgr, cfg.OptimisationIterLimit)
	lgr.Debug("graph optimised",
		logger.F("numNodes", pg.NumNodes()),
		logger.F("numLinks", pg.NumLinks()),
		logger.F("numStarts", pg.NumStarts()),
		logger.F("numEnds", pg.NumEnds()),
	)

	if cfg.DebugOutput == config.DebugGraph {
		return nil, nil
	}

	if pg.NumStarts() == 0 || pg.NumEnds() == 0 {
		lgr.Info("query infeasible after optimisation: no surviving starts or ends")
		return nil, nil
	}

	if cfg.DebugOutput == config.DebugStopBeforeSearch {
		return nil, nil
	}

	cg := compact.Build(pg, nil)

	bounds := search.Bounds{
		LenMin:             q.LenRange.Min,
		LenMax:             q.LenRange.Max,
		NumComps:           q.NumComps,
		PerRowScoreCeiling: perRowScoreCeiling(musicTypes),
	}

	results, err := search.Run(ctx, cg, bounds, cfg.NumThreads, cfg.QueueLimit, defaultPrefixFanout, lgr)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	comps := make([]render.Comp, len(results))
	starts := cg.Start()
	numParts := cg.NumParts()
	for i, r := range results {
		comps[i] = render.Trace(r, starts, numParts, l)
	}
	return comps, nil
}

// perRowScoreCeiling is the maximum points a single row can contribute: the
// sum of every music type's weight, since a row may match one pattern from
// each type simultaneously but at most one pattern within a type (Score
// short-circuits on first match).
func perRowScoreCeiling(types []music.MusicType) float64 {
	total := 0.0
	for _, t := range types {
		total += t.Weight
	}
	return total
}
