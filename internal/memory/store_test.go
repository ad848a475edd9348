package memory

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), zerolog.Nop())
}

const sampleSection = "\n## Apple Health\n\n| Metric | Value |\n|--------|-------|\n| Steps | 8,200 |\n"

func TestUpsertHealthSectionCreatesNote(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertHealthSection("alice", "2026-08-30", sampleSection); err != nil {
		t.Fatalf("UpsertHealthSection failed: %v", err)
	}

	content, err := s.ReadDaily("alice", "2026-08-30")
	if err != nil {
		t.Fatalf("ReadDaily failed: %v", err)
	}
	if !strings.HasPrefix(content, "# 2026-08-30\n") {
		t.Errorf("New note missing date heading: %q", content)
	}
	if !strings.Contains(content, "| Steps | 8,200 |") {
		t.Error("New note missing health table")
	}
}

func TestUpsertHealthSectionReplacesExisting(t *testing.T) {
	s := newTestStore(t)
	original := "# 2026-08-30\n\n## Meals\n- eggs\n\n## Apple Health\n\n| Metric | Value |\n|--------|-------|\n| Steps | 100 |\n\n## Notes\nfelt good\n"
	if err := s.WriteDaily("alice", "2026-08-30", original); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertHealthSection("alice", "2026-08-30", sampleSection); err != nil {
		t.Fatalf("UpsertHealthSection failed: %v", err)
	}

	content, _ := s.ReadDaily("alice", "2026-08-30")
	if strings.Contains(content, "| Steps | 100 |") {
		t.Error("Old health table survived replacement")
	}
	if !strings.Contains(content, "| Steps | 8,200 |") {
		t.Error("New health table missing")
	}
	if !strings.Contains(content, "## Meals") || !strings.Contains(content, "## Notes") {
		t.Error("Sibling sections were clobbered")
	}
	if strings.Count(content, "## Apple Health") != 1 {
		t.Error("Expected exactly one health section")
	}
}

func TestUpsertHealthSectionInsertsBeforeDailyTotals(t *testing.T) {
	s := newTestStore(t)
	original := "# 2026-08-30\n\n## Meals\n- eggs\n\n## Daily Totals\n- 1800 cal\n"
	if err := s.WriteDaily("alice", "2026-08-30", original); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertHealthSection("alice", "2026-08-30", sampleSection); err != nil {
		t.Fatalf("UpsertHealthSection failed: %v", err)
	}

	content, _ := s.ReadDaily("alice", "2026-08-30")
	healthIdx := strings.Index(content, "## Apple Health")
	totalsIdx := strings.Index(content, "## Daily Totals")
	if healthIdx < 0 || totalsIdx < 0 || healthIdx > totalsIdx {
		t.Errorf("Health section not inserted before Daily Totals:\n%s", content)
	}
}

func TestUpsertHealthSectionAppends(t *testing.T) {
	s := newTestStore(t)
	if err := s.WriteDaily("alice", "2026-08-30", "# 2026-08-30\n\n## Meals\n- eggs\n"); err != nil {
		t.Fatal(err)
	}

	if err := s.UpsertHealthSection("alice", "2026-08-30", sampleSection); err != nil {
		t.Fatalf("UpsertHealthSection failed: %v", err)
	}

	content, _ := s.ReadDaily("alice", "2026-08-30")
	if !strings.HasSuffix(strings.TrimRight(content, "\n"), "| Steps | 8,200 |") {
		t.Errorf("Health section not appended at end:\n%s", content)
	}
}

func TestParseHealthSection(t *testing.T) {
	content := "# 2026-08-30\n\n## Apple Health\n\n| Metric | Value |\n|--------|-------|\n| Steps | 8,200 |\n| Sleep | 7h 32m |\n\n## Notes\nok\n"
	health := ParseHealthSection(content)

	if health["Steps"] != "8,200" {
		t.Errorf("Steps = %q, want 8,200", health["Steps"])
	}
	if health["Sleep"] != "7h 32m" {
		t.Errorf("Sleep = %q, want 7h 32m", health["Sleep"])
	}
	if len(health) != 2 {
		t.Errorf("Parsed %d rows, want 2: %v", len(health), health)
	}
}

func TestParseHealthSectionMissing(t *testing.T) {
	health := ParseHealthSection("# 2026-08-30\n\n## Meals\n- eggs\n")
	if len(health) != 0 {
		t.Errorf("Expected no rows, got %v", health)
	}
}

func TestListDailyDates(t *testing.T) {
	s := newTestStore(t)
	for _, date := range []string{"2026-08-28", "2026-08-30", "2026-08-29"} {
		if err := s.WriteDaily("alice", date, "# "+date+"\n"); err != nil {
			t.Fatal(err)
		}
	}
	// Non-daily files are ignored.
	if err := s.AppendWeightRows("alice", map[string]float64{"2026-08-30": 180}); err != nil {
		t.Fatal(err)
	}

	dates, err := s.ListDailyDates("alice")
	if err != nil {
		t.Fatalf("ListDailyDates failed: %v", err)
	}
	want := []string{"2026-08-30", "2026-08-29", "2026-08-28"}
	if len(dates) != len(want) {
		t.Fatalf("Got %v, want %v", dates, want)
	}
	for i := range want {
		if dates[i] != want[i] {
			t.Errorf("dates[%d] = %q, want %q", i, dates[i], want[i])
		}
	}
}

func TestAppendWeightRowsSkipsExistingDates(t *testing.T) {
	s := newTestStore(t)

	if err := s.AppendWeightRows("alice", map[string]float64{"2026-08-29": 181.5}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendWeightRows("alice", map[string]float64{
		"2026-08-29": 999, // already logged, must not duplicate
		"2026-08-30": 180,
	}); err != nil {
		t.Fatal(err)
	}

	content, err := s.ReadWeightLog("alice")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(content, "# Weight Log") {
		t.Error("Weight log missing header")
	}
	if strings.Count(content, "2026-08-29") != 1 {
		t.Error("Existing date was re-appended")
	}
	if strings.Contains(content, "999") {
		t.Error("Existing date's value was overwritten")
	}
	if !strings.Contains(content, "| 2026-08-30 | 180 lbs | From Apple Health |") {
		t.Errorf("New row missing:\n%s", content)
	}
}

func TestTrimFloat(t *testing.T) {
	tests := []struct {
		in       float64
		expected string
	}{
		{180.0, "180"},
		{181.5, "181.5"},
		{181.25, "181.2"},
	}
	for _, tc := range tests {
		if got := trimFloat(tc.in); got != tc.expected {
			t.Errorf("trimFloat(%v) = %q, want %q", tc.in, got, tc.expected)
		}
	}
}
