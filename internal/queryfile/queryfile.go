// Package queryfile loads and validates the Query input (spec.md §6
// Inputs): the Layout, music types, part head, length/method-count ranges
// and result cap that define *which* compositions are valid answers, as
// opposed to config.Config which controls *how* the search for them is run.
// The load/validate/log shape mirrors internal/config.
package queryfile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kneasle/monument/internal/layout"
	"github.com/kneasle/monument/internal/logger"
	"github.com/kneasle/monument/internal/music"
	"github.com/kneasle/monument/internal/row"
)

// LinkSpec is a YAML-friendly description of one layout.Link.
type LinkSpec struct {
	FromBlock               int    `yaml:"fromBlock"`
	FromRow                 int    `yaml:"fromRow"`
	ToBlock                 int    `yaml:"toBlock"`
	ToRow                   int    `yaml:"toRow"`
	CourseHeadMask          string `yaml:"courseHeadMask"`
	CourseHeadTransposition string `yaml:"courseHeadTransposition"`
	Label                   string `yaml:"label"`
}

// AnchorSpec is a YAML-friendly description of one layout.Anchor.
type AnchorSpec struct {
	CourseHead string `yaml:"courseHead"`
	Block      int    `yaml:"block"`
	Row        int    `yaml:"row"`
	Label      string `yaml:"label"`
}

// LayoutSpec is the YAML-friendly description of a layout.Layout: rows are
// written as bell-alphabet strings (row.Parse), never as raw permutation
// arrays.
type LayoutSpec struct {
	Blocks [][]string   `yaml:"blocks"`
	Links  []LinkSpec   `yaml:"links"`
	Starts []AnchorSpec `yaml:"starts"`
	Ends   []AnchorSpec `yaml:"ends"`
	Stage  int          `yaml:"stage"`
}

// MusicTypeSpec is the YAML-friendly description of one music.MusicType.
type MusicTypeSpec struct {
	Name     string   `yaml:"name"`
	Patterns []string `yaml:"patterns"`
	Weight   float64  `yaml:"weight"`
}

// LenRange is the half-open `[min, max)` length bound (spec.md §6).
type LenRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// MethodCountRange is the half-open `[min, max)` bound on how many rows a
// named method may contribute to a composition.
type MethodCountRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Query is the parsed, not-yet-validated input file (spec.md §6 Inputs).
type Query struct {
	Layout           LayoutSpec                  `yaml:"layout"`
	MusicTypes       []MusicTypeSpec             `yaml:"musicTypes"`
	PartHead         string                      `yaml:"partHead"`
	LenRange         LenRange                    `yaml:"lenRange"`
	MethodCountRange map[string]MethodCountRange `yaml:"methodCountRange"`
	NumComps         int                         `yaml:"numComps"`
}

// Load reads and parses a Query from a YAML file. It performs only
// syntactic parsing; call Validate afterwards.
func Load(path string) (*Query, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var q Query
	if err := yaml.Unmarshal(data, &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// Validate performs structural validation, accumulating every problem found
// into a single error.
func (q *Query) Validate() error {
	var errs []string

	if q.Layout.Stage <= 0 {
		errs = append(errs, "layout.stage must be > 0")
	}
	if len(q.Layout.Blocks) == 0 {
		errs = append(errs, "layout.blocks must not be empty")
	}
	if len(q.Layout.Starts) == 0 {
		errs = append(errs, "layout.starts must not be empty")
	}
	if len(q.Layout.Ends) == 0 {
		errs = append(errs, "layout.ends must not be empty")
	}
	if q.LenRange.Max <= q.LenRange.Min {
		errs = append(errs, "lenRange.max must be > lenRange.min (half-open range)")
	}
	if q.NumComps <= 0 {
		errs = append(errs, "numComps must be > 0")
	}
	for name, r := range q.MethodCountRange {
		if r.Max <= r.Min {
			errs = append(errs, fmt.Sprintf("methodCountRange[%s].max must be > .min", name))
		}
	}
	if _, err := row.Parse(q.PartHead); q.PartHead != "" && err != nil {
		errs = append(errs, fmt.Sprintf("invalid partHead: %v", err))
	}
	for bi, block := range q.Layout.Blocks {
		for ri, s := range block {
			if _, err := row.Parse(s); err != nil {
				errs = append(errs, fmt.Sprintf("invalid row at blocks[%d][%d]: %v", bi, ri, err))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("query errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// Build converts the parsed Query into the domain types the pipeline
// consumes: a layout.Layout, the configured music.MusicType list, and the
// part-head row. Call only after Validate succeeds.
func (q *Query) Build() (*layout.Layout, []music.MusicType, row.Row, error) {
	blocks := make([][]row.Row, len(q.Layout.Blocks))
	for bi, block := range q.Layout.Blocks {
		rows := make([]row.Row, len(block))
		for ri, s := range block {
			r, err := row.Parse(s)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("blocks[%d][%d]: %w", bi, ri, err)
			}
			rows[ri] = r
		}
		blocks[bi] = rows
	}

	links := make([]layout.Link, len(q.Layout.Links))
	for i, ls := range q.Layout.Links {
		transposition, err := row.Parse(ls.CourseHeadTransposition)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("links[%d].courseHeadTransposition: %w", i, err)
		}
		links[i] = layout.Link{
			FromRowIdx:              layout.RowIdx{Block: ls.FromBlock, Row: ls.FromRow},
			ToRowIdx:                layout.RowIdx{Block: ls.ToBlock, Row: ls.ToRow},
			CourseHeadMask:          layout.ParseMask(ls.CourseHeadMask),
			CourseHeadTransposition: transposition,
			Label:                   ls.Label,
		}
	}

	starts, err := anchorsFromSpecs(q.Layout.Starts)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("starts: %w", err)
	}
	ends, err := anchorsFromSpecs(q.Layout.Ends)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("ends: %w", err)
	}

	partHead, err := row.Parse(q.PartHead)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("partHead: %w", err)
	}

	l := &layout.Layout{
		Blocks:   blocks,
		Links:    links,
		Starts:   starts,
		Ends:     ends,
		PartHead: partHead,
		Stage:    q.Layout.Stage,
	}

	types := make([]music.MusicType, len(q.MusicTypes))
	for i, mt := range q.MusicTypes {
		patterns := make([]music.Pattern, len(mt.Patterns))
		for pi, p := range mt.Patterns {
			patterns[pi] = music.Pattern(layout.ParseMask(p))
		}
		types[i] = music.MusicType{Name: mt.Name, Patterns: patterns, Weight: mt.Weight}
	}

	return l, types, partHead, nil
}

func anchorsFromSpecs(specs []AnchorSpec) ([]layout.Anchor, error) {
	out := make([]layout.Anchor, len(specs))
	for i, a := range specs {
		ch, err := row.Parse(a.CourseHead)
		if err != nil {
			return nil, fmt.Errorf("[%d].courseHead: %w", i, err)
		}
		out[i] = layout.Anchor{
			CourseHead: ch,
			RowIdx:     layout.RowIdx{Block: a.Block, Row: a.Row},
			Label:      a.Label,
		}
	}
	return out, nil
}

// LogQuery prints the loaded query at DEBUG level.
func (q *Query) LogQuery(lgr logger.Logger) {
	lgr.Debug("loaded query",
		logger.F("layout.stage", q.Layout.Stage),
		logger.F("layout.numBlocks", len(q.Layout.Blocks)),
		logger.F("layout.numLinks", len(q.Layout.Links)),
		logger.F("layout.numStarts", len(q.Layout.Starts)),
		logger.F("layout.numEnds", len(q.Layout.Ends)),
		logger.F("musicTypes", len(q.MusicTypes)),
		logger.F("partHead", q.PartHead),
		logger.F("lenRange.min", q.LenRange.Min),
		logger.F("lenRange.max", q.LenRange.Max),
		logger.F("numComps", q.NumComps),
	)
}
