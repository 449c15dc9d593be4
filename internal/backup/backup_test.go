package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/journal"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/storage"
	"github.com/julianstephens/jotlit/internal/storage/sqlite"
)

// setupStore creates an initialized store at name holding one entry per content.
func setupStore(t *testing.T, name string, contents ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)

	slot := storage.Open(path)
	if err := slot.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if err := slot.Load(); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	store := journal.NewStore(slot)
	for i, c := range contents {
		date := time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC).Format(constants.DateFormat)
		if err := store.Upsert(models.Entry{Date: date, Content: c}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}
	if err := slot.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func readEntries(t *testing.T, path string) []models.Entry {
	t.Helper()
	slot := storage.Open(path)
	if err := slot.Load(); err != nil {
		t.Fatalf("Load %s failed: %v", path, err)
	}
	defer slot.Close()
	return journal.NewStore(slot).LoadAll()
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	now := start
	return func() time.Time {
		t := now
		now = now.Add(step)
		return t
	}
}

func TestCreateBackup(t *testing.T) {
	for _, name := range []string{"jotlit.db", "jotlit.json"} {
		t.Run(name, func(t *testing.T) {
			path := setupStore(t, name, "first", "second")

			mgr := NewManager(path)
			backupPath, err := mgr.CreateBackup()
			if err != nil {
				t.Fatalf("CreateBackup failed: %v", err)
			}
			if filepath.Dir(backupPath) != mgr.GetBackupDir() {
				t.Errorf("backup written to %s, want inside %s", backupPath, mgr.GetBackupDir())
			}
			if !strings.HasPrefix(filepath.Base(backupPath), constants.BackupFilePrefix) ||
				filepath.Ext(backupPath) != filepath.Ext(name) {
				t.Errorf("unexpected backup name %s", filepath.Base(backupPath))
			}

			if got := readEntries(t, backupPath); len(got) != 2 {
				t.Errorf("expected 2 entries in backup, got %d", len(got))
			}
		})
	}
}

func TestCreateBackupMissingStore(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "absent.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("expected error when the store does not exist")
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	path := setupStore(t, "jotlit.db", "x")
	mgr := NewManager(path)
	base := time.Date(2024, 6, 1, 12, 30, 0, 0, time.Local)
	mgr.now = func() time.Time { return base }

	seen := map[string]bool{}
	for i := 0; i < 4; i++ {
		p, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
		if seen[p] {
			t.Fatalf("duplicate backup path %s", p)
		}
		seen[p] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 4 {
		t.Fatalf("expected 4 backups, got %d", len(backups))
	}
	for _, b := range backups {
		if !b.Timestamp.Equal(base) {
			t.Errorf("backup %s parsed as %v, want %v", filepath.Base(b.Path), b.Timestamp, base)
		}
	}
}

func TestBackupRotation(t *testing.T) {
	path := setupStore(t, "jotlit.json", "x")
	mgr := NewManager(path)
	mgr.now = fixedClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local), 24*time.Hour)

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup #%d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Fatalf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].Timestamp.After(backups[i-1].Timestamp) {
			t.Errorf("backups are not sorted newest first at %d", i)
		}
	}
	oldestKept := time.Date(2024, 6, 6, 8, 0, 0, 0, time.Local)
	if !backups[len(backups)-1].Timestamp.Equal(oldestKept) {
		t.Errorf("oldest kept backup = %v, want %v", backups[len(backups)-1].Timestamp, oldestKept)
	}
}

func TestListBackupsIgnoresStrangers(t *testing.T) {
	path := setupStore(t, "jotlit.db", "x")
	mgr := NewManager(path)

	backups, err := mgr.ListBackups()
	if err != nil || len(backups) != 0 {
		t.Fatalf("ListBackups before any backup = (%v, %v)", backups, err)
	}

	if err := os.MkdirAll(mgr.GetBackupDir(), 0700); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{
		"notes.txt",
		constants.BackupFilePrefix + "garbage.db",
		constants.BackupFilePrefix + "20240101-1200.json",
		"other-20240101-1200.db",
	} {
		if err := os.WriteFile(filepath.Join(mgr.GetBackupDir(), name), []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(mgr.GetBackupDir(), constants.BackupFilePrefix+"20240101-1200.db"), 0700); err != nil {
		t.Fatal(err)
	}

	backups, err = mgr.ListBackups()
	if err != nil {
		t.Fatal(err)
	}
	if len(backups) != 0 {
		t.Errorf("expected unrelated files to be ignored, got %v", backups)
	}
}

func TestRestoreBackup(t *testing.T) {
	for _, name := range []string{"jotlit.db", "jotlit.json"} {
		t.Run(name, func(t *testing.T) {
			path := setupStore(t, name, "original")
			mgr := NewManager(path)
			mgr.now = fixedClock(time.Date(2024, 6, 1, 8, 0, 0, 0, time.Local), time.Hour)

			backupPath, err := mgr.CreateBackup()
			if err != nil {
				t.Fatal(err)
			}

			// Change the store after the backup.
			slot := storage.Open(path)
			if err := slot.Load(); err != nil {
				t.Fatal(err)
			}
			if err := journal.NewStore(slot).Upsert(models.Entry{Date: "2024-02-01", Content: "later"}); err != nil {
				t.Fatal(err)
			}
			slot.Close()

			preRestore, err := mgr.RestoreBackup(backupPath)
			if err != nil {
				t.Fatalf("RestoreBackup failed: %v", err)
			}
			if preRestore == "" {
				t.Error("expected a pre-restore backup path")
			}

			if got := readEntries(t, path); len(got) != 1 || got[0].Content != "original" {
				t.Errorf("restored entries = %#v", got)
			}
			if got := readEntries(t, preRestore); len(got) != 2 {
				t.Errorf("pre-restore backup holds %d entries, want 2", len(got))
			}
		})
	}
}

func TestRestoreRejectsBadBackups(t *testing.T) {
	path := setupStore(t, "jotlit.db", "keep me")
	mgr := NewManager(path)

	if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("expected error for missing backup")
	}

	corrupt := filepath.Join(t.TempDir(), "corrupt.db")
	if err := os.WriteFile(corrupt, []byte("this is not a sqlite database, just some text padding it out"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := mgr.RestoreBackup(corrupt); err == nil {
		t.Error("expected error for corrupted backup")
	}

	if got := readEntries(t, path); len(got) != 1 || got[0].Content != "keep me" {
		t.Errorf("store changed after failed restore: %#v", got)
	}
}

func TestVerifyJSON(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "jotlit.json"))
	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte("[1,2"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := mgr.verify(bad); err == nil {
		t.Error("verify should reject malformed JSON")
	}
}

func TestSQLiteSchemaSurvivesBackup(t *testing.T) {
	path := setupStore(t, "jotlit.db", "x")
	backupPath, err := NewManager(path).CreateBackup()
	if err != nil {
		t.Fatal(err)
	}

	s := sqlite.NewStore(backupPath)
	if err := s.Load(); err != nil {
		t.Fatalf("Load backup failed: %v", err)
	}
	defer s.Close()
	current, latest, err := s.SchemaStatus()
	if err != nil || current != latest {
		t.Errorf("SchemaStatus() = (%d, %d, %v)", current, latest, err)
	}
}
