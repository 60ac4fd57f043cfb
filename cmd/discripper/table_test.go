package main

import (
	"strings"
	"testing"
)

func TestRenderTablePadsRaggedRows(t *testing.T) {
	out := renderTable(
		[]string{"Device", "Status", "Titles"},
		[][]string{
			{"/dev/sr0", "completed", "2"},
			{"/dev/sr1"},
		},
		2,
	)

	for _, want := range []string{"Device", "Status", "Titles", "/dev/sr0", "completed", "/dev/sr1"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered table is missing %q:\n%s", want, out)
		}
	}

	// A short row must not collapse the grid.
	lines := strings.Split(out, "\n")
	width := len([]rune(lines[0]))
	for i, line := range lines {
		if got := len([]rune(line)); got != width {
			t.Errorf("line %d width = %d, want %d:\n%s", i, got, width, out)
		}
	}
}

func TestRenderTableNoHeaders(t *testing.T) {
	if out := renderTable(nil, [][]string{{"row"}}); out != "" {
		t.Errorf("renderTable(nil, ...) = %q, want empty", out)
	}
}
