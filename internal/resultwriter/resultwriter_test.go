package resultwriter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kneasle/monument/internal/render"
)

func TestWriteAllWritesHeaderAndOneRowPerComp(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	comps := []render.Comp{
		{Length: 24, Score: 10, AvgScore: 0.4166, Rotation: 0, StartIdx: 0, CallString: "bridge"},
		{Length: 48, Score: 5, AvgScore: 0.1041, Rotation: 1, StartIdx: 0, CallString: ""},
	}

	if err := WriteAll(path, comps); err != nil {
		t.Fatalf("WriteAll: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("len(lines) = %d, want 3 (header + 2 rows)", len(lines))
	}
	if !strings.HasPrefix(lines[0], "rank,length,score") {
		t.Errorf("header = %q, missing expected columns", lines[0])
	}
	if !strings.HasPrefix(lines[1], "0,24,") {
		t.Errorf("row 0 = %q, want rank 0 length 24 prefix", lines[1])
	}
	if !strings.HasPrefix(lines[2], "1,48,") {
		t.Errorf("row 1 = %q, want rank 1 length 48 prefix", lines[2])
	}
}

func TestCSVWriterRejectsWriteAfterClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	w, err := NewCSVWriter(path)
	if err != nil {
		t.Fatalf("NewCSVWriter: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := w.WriteComp(0, render.Comp{}); err == nil {
		t.Fatal("expected error writing after Close")
	}
}
