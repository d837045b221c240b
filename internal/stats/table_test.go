package stats

import (
	"strings"
	"testing"
)

func TestFormatTableAlignsColumns(t *testing.T) {
	cols := []column{
		{header: "Level", align: alignRight},
		{header: "Lap time", align: alignPoint},
		{header: "Samples", align: alignRight},
	}
	rows := [][]string{
		{"95", "1:42.318", "3"},
		{"100", "59.050", "12"},
	}

	lines := formatTable(cols, rows)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Level Lap time Samples" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "   95 1:42.318       3" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "  100   59.050      12" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTablePointAlignment(t *testing.T) {
	cols := []column{{header: "Track", align: alignLeft}, {header: "Δ", align: alignPoint}}
	rows := [][]string{{"Spa", "+4.000"}, {"Monza", "-12.5"}, {"Imola", "-"}}

	lines := formatTable(cols, rows)
	want := []string{
		"Track       Δ",
		"Spa    +4.000",
		"Monza -12.5",
		"Imola   -",
	}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %d", len(want), len(lines))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d: got %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestFormatTableWithoutHeaders(t *testing.T) {
	lines := formatTable([]column{{align: alignLeft}, {align: alignRight}}, [][]string{{"Classes", "2"}, {"Likely generated", "10"}})
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0] != "Classes"+strings.Repeat(" ", 11)+"2" {
		t.Fatalf("unexpected row: %q", lines[0])
	}
	if lines[1] != "Likely generated 10" {
		t.Fatalf("unexpected row: %q", lines[1])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]column{{header: "Track", align: alignLeft}, {header: "N", align: alignRight}}, [][]string{{"鈴鹿", "1"}, {"Spa", "2"}})
	if lines[1] != "鈴鹿  1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "Spa   2" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
