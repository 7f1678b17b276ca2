package queryfile

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
layout:
  stage: 4
  blocks:
    - ["1234", "2143", "2413", "4231"]
  links:
    - fromBlock: 0
      fromRow: 1
      toBlock: 0
      toRow: 3
      courseHeadMask: "xxxx"
      courseHeadTransposition: "1234"
      label: bridge
  starts:
    - courseHead: "1234"
      block: 0
      row: 0
      label: start
  ends:
    - courseHead: "1234"
      block: 0
      row: 3
      label: end
musicTypes:
  - name: fours
    patterns: ["xxx4"]
    weight: 1
partHead: "1234"
lenRange:
  min: 0
  max: 25
numComps: 5
`

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "query.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadValidateBuildRoundTrips(t *testing.T) {
	path := writeSample(t)
	q, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := q.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	l, types, partHead, err := q.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if l.Stage != 4 {
		t.Errorf("Stage = %d, want 4", l.Stage)
	}
	if len(l.Links) != 1 || l.Links[0].Label != "bridge" {
		t.Errorf("Links = %+v, want one link labelled bridge", l.Links)
	}
	if len(types) != 1 || types[0].Name != "fours" {
		t.Errorf("types = %+v, want one type named fours", types)
	}
	if partHead.Stage() != 4 {
		t.Errorf("partHead stage = %d, want 4", partHead.Stage())
	}
}

func TestValidateRejectsInvertedLenRange(t *testing.T) {
	q := &Query{
		Layout:   LayoutSpec{Stage: 4, Blocks: [][]string{{"1234"}}, Starts: []AnchorSpec{{}}, Ends: []AnchorSpec{{}}},
		LenRange: LenRange{Min: 10, Max: 5},
		NumComps: 1,
	}
	if err := q.Validate(); err == nil {
		t.Fatal("expected an error for lenRange.max <= lenRange.min")
	}
}

func TestValidateRejectsMissingStartsOrEnds(t *testing.T) {
	q := &Query{
		Layout:   LayoutSpec{Stage: 4, Blocks: [][]string{{"1234"}}},
		LenRange: LenRange{Min: 0, Max: 1},
		NumComps: 1,
	}
	if err := q.Validate(); err == nil {
		t.Fatal("expected an error for missing starts/ends")
	}
}
