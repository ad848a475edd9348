package database

import "testing"

func TestMigrationVersion(t *testing.T) {
	tests := []struct {
		name     string
		expected int
	}{
		{"001_initial_schema.sql", 1},
		{"002_health_sync.sql", 2},
		{"042_add_streaks.sql", 42},
		{"001_initial_schema.sql.bak", 0},
		{"README.md", 0},
		{"notes.sql", 0},
		{"abc_notes.sql", 0},
		{"000_zero.sql", 0},
		{"-01_negative.sql", 0},
		{"", 0},
	}
	for _, tc := range tests {
		if got := migrationVersion(tc.name); got != tc.expected {
			t.Errorf("migrationVersion(%q) = %d, want %d", tc.name, got, tc.expected)
		}
	}
}
