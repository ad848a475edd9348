package memory

import (
	"os"
	"path/filepath"
	"testing"
)

func backupContent(t *testing.T, s *Store, username, filename string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(s.UserDir(username), backupDirName, filename))
	if err != nil {
		t.Fatalf("reading backup: %v", err)
	}
	return string(b)
}

func TestBackupFileCopiesGrowth(t *testing.T) {
	s := newTestStore(t)
	if err := s.WriteDaily("alice", "2026-08-30", "# 2026-08-30\n- breakfast\n"); err != nil {
		t.Fatal(err)
	}

	s.BackupFile("alice", "2026-08-30.md")
	if got := backupContent(t, s, "alice", "2026-08-30.md"); got != "# 2026-08-30\n- breakfast\n" {
		t.Errorf("Backup content = %q", got)
	}

	// Grown file updates the backup.
	if err := s.WriteDaily("alice", "2026-08-30", "# 2026-08-30\n- breakfast\n- lunch\n"); err != nil {
		t.Fatal(err)
	}
	s.BackupFile("alice", "2026-08-30.md")
	if got := backupContent(t, s, "alice", "2026-08-30.md"); got != "# 2026-08-30\n- breakfast\n- lunch\n" {
		t.Errorf("Backup not updated after growth: %q", got)
	}
}

func TestBackupFilePreservesOnShrink(t *testing.T) {
	s := newTestStore(t)
	full := "# 2026-08-30\n- breakfast\n- lunch\n- dinner\n"
	if err := s.WriteDaily("alice", "2026-08-30", full); err != nil {
		t.Fatal(err)
	}
	s.BackupFile("alice", "2026-08-30.md")

	// A truncated source must never shrink the backup.
	if err := s.WriteDaily("alice", "2026-08-30", "# x\n"); err != nil {
		t.Fatal(err)
	}
	s.BackupFile("alice", "2026-08-30.md")

	if got := backupContent(t, s, "alice", "2026-08-30.md"); got != full {
		t.Errorf("Backup shrank: %q", got)
	}
}

func TestBackupFileMissingSource(t *testing.T) {
	s := newTestStore(t)
	// Should be a no-op, not a panic or stray backup dir.
	s.BackupFile("alice", "2026-08-30.md")
	if _, err := os.Stat(filepath.Join(s.UserDir("alice"), backupDirName)); !os.IsNotExist(err) {
		t.Error("Backup dir created for missing source")
	}
}

func TestBackupAll(t *testing.T) {
	s := newTestStore(t)
	for _, date := range []string{"2026-08-29", "2026-08-30"} {
		if err := s.WriteDaily("alice", date, "# "+date+"\n"); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.BackupAll("alice"); err != nil {
		t.Fatalf("BackupAll failed: %v", err)
	}
	for _, date := range []string{"2026-08-29", "2026-08-30"} {
		if got := backupContent(t, s, "alice", date+".md"); got != "# "+date+"\n" {
			t.Errorf("Backup for %s = %q", date, got)
		}
	}
}
