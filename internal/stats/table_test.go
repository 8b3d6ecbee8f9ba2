package stats

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Population", "Completion", "N"}
	rows := [][]string{
		{"Population 1", "97.50%", "12"},
		{"Rural", "8.00%", "3"},
	}
	rightAlign := map[int]bool{1: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Population   Completion  N" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "Population 1     97.50% 12" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != "Rural             8.00%  3" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableWideRunes(t *testing.T) {
	lines := formatTable([]string{"Name", "N"}, [][]string{{"診療", "1"}, {"ab", "22"}}, map[int]bool{1: true})
	if lines[1] != "診療  1" {
		t.Fatalf("unexpected wide row: %q", lines[1])
	}
	if lines[2] != "ab   22" {
		t.Fatalf("unexpected narrow row: %q", lines[2])
	}
}
