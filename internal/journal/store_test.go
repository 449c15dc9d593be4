package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/julianstephens/jotlit/internal/constants"
	jerrors "github.com/julianstephens/jotlit/internal/errors"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	slot := storage.NewMemoryStore()
	return NewStore(slot), slot
}

func strPtr(s string) *string { return &s }

func TestLoadAllEmpty(t *testing.T) {
	store, _ := newTestStore(t)

	got := store.LoadAll()
	if got == nil || len(got) != 0 {
		t.Errorf("LoadAll() on empty slot = %#v, want empty non-nil slice", got)
	}
}

func TestUpsertIdempotent(t *testing.T) {
	store, slot := newTestStore(t)
	e := models.Entry{Date: "2024-03-10", Prompt: "p", Content: "hello"}

	if err := store.Upsert(e); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	first, _, _ := slot.Get(constants.EntriesKey)

	if err := store.Upsert(e); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	second, _, _ := slot.Get(constants.EntriesKey)

	if first != second {
		t.Errorf("second upsert changed the blob:\nfirst:  %s\nsecond: %s", first, second)
	}
}

func TestUpsertKeepsDatesUnique(t *testing.T) {
	store, _ := newTestStore(t)

	for i, content := range []string{"one", "two", "three"} {
		e := models.Entry{Date: "2024-03-10", Content: content}
		if i == 1 {
			e.Date = "2024-03-11"
		}
		if err := store.Upsert(e); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	got := store.LoadAll()
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d: %#v", len(got), got)
	}
	seen := map[string]bool{}
	for _, e := range got {
		if seen[e.Date] {
			t.Errorf("duplicate date %s", e.Date)
		}
		seen[e.Date] = true
	}
	if e, _ := store.FindByDate("2024-03-10"); e.Content != "three" {
		t.Errorf("2024-03-10 content = %q, want the latest write", e.Content)
	}
}

func TestRoundTrip(t *testing.T) {
	store, _ := newTestStore(t)
	want := models.Entry{
		Date:      "2024-02-29",
		Prompt:    `Write about this idea: "Less is more" - Someone`,
		Content:   "line one\nline two — with unicode ✓",
		LastSaved: strPtr("2024-02-29T21:14:00Z"),
	}

	if err := store.Upsert(want); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	got, ok := store.FindByDate(want.Date)
	if !ok {
		t.Fatal("FindByDate did not find the saved entry")
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadAllNewestFirst(t *testing.T) {
	store, _ := newTestStore(t)

	for _, d := range []string{"2024-01-01", "2024-01-03", "2024-01-02"} {
		if err := store.Upsert(models.Entry{Date: d, Content: d}); err != nil {
			t.Fatalf("Upsert failed: %v", err)
		}
	}

	var dates []string
	for _, e := range store.LoadAll() {
		dates = append(dates, e.Date)
	}
	want := []string{"2024-01-03", "2024-01-02", "2024-01-01"}
	if diff := cmp.Diff(want, dates); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestCorruptSlot(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "{{{not json"},
		{"wrong shape", `{"version":1,"entries":"nope"}`},
		{"future version", `{"version":99,"entries":[]}`},
		{"null", "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, slot := newTestStore(t)
			if err := slot.Set(constants.EntriesKey, tt.raw); err != nil {
				t.Fatal(err)
			}

			if got := store.LoadAll(); len(got) != 0 {
				t.Errorf("LoadAll() = %#v, want empty", got)
			}
			if _, err := store.Entries(); !errors.Is(err, jerrors.ErrStorageParse) {
				t.Errorf("Entries() error = %v, want ErrStorageParse", err)
			}

			e := models.Entry{Date: "2024-04-01", Content: "fresh"}
			if err := store.Upsert(e); err != nil {
				t.Fatalf("Upsert after corruption failed: %v", err)
			}
			got := store.LoadAll()
			if len(got) != 1 || got[0].Content != "fresh" {
				t.Errorf("LoadAll() after upsert = %#v", got)
			}

			quarantined, ok, _ := slot.Get(constants.CorruptEntriesKey)
			if !ok || quarantined != tt.raw {
				t.Errorf("quarantine = (%q, %v), want original blob", quarantined, ok)
			}
		})
	}
}

func TestQuarantineIsNotOverwritten(t *testing.T) {
	store, slot := newTestStore(t)
	_ = slot.Set(constants.CorruptEntriesKey, "first corruption")
	_ = slot.Set(constants.EntriesKey, "second corruption")

	if err := store.Upsert(models.Entry{Date: "2024-04-01", Content: "x"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}
	if got, _, _ := slot.Get(constants.CorruptEntriesKey); got != "first corruption" {
		t.Errorf("quarantine = %q, want the earlier copy kept", got)
	}
}

func TestLegacyArrayIsUpgraded(t *testing.T) {
	store, slot := newTestStore(t)
	legacy := `[{"date":"2024-01-01","prompt":"","content":"old"},{"date":"2024-01-02","prompt":"p","content":"newer","lastSaved":"2024-01-02T10:00:00.000Z"}]`
	_ = slot.Set(constants.EntriesKey, legacy)

	got := store.LoadAll()
	if len(got) != 2 || got[0].Date != "2024-01-02" || got[0].LastSaved == nil {
		t.Fatalf("LoadAll() on legacy array = %#v", got)
	}

	if err := store.Upsert(models.Entry{Date: "2024-01-03", Content: "new"}); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	raw, _, _ := slot.Get(constants.EntriesKey)
	var blob models.EntryBlob
	if err := json.Unmarshal([]byte(raw), &blob); err != nil {
		t.Fatalf("blob after upsert is not versioned: %v", err)
	}
	if blob.Version != constants.EntriesBlobVersion || len(blob.Entries) != 3 {
		t.Errorf("blob = version %d with %d entries, want version %d with 3", blob.Version, len(blob.Entries), constants.EntriesBlobVersion)
	}
	if _, ok, _ := slot.Get(constants.CorruptEntriesKey); ok {
		t.Error("a readable legacy blob must not be quarantined")
	}
}

func TestUpsertWriteFailure(t *testing.T) {
	store, slot := newTestStore(t)
	if err := store.Upsert(models.Entry{Date: "2024-01-01", Content: "kept"}); err != nil {
		t.Fatal(err)
	}

	slot.SetErr = errors.New("quota exceeded")
	err := store.Upsert(models.Entry{Date: "2024-01-01", Content: "lost"})
	if !errors.Is(err, jerrors.ErrStorageWrite) {
		t.Fatalf("Upsert error = %v, want ErrStorageWrite", err)
	}
	if !jerrors.IsStorageWarning(err) {
		t.Error("write failure should be a storage warning")
	}

	slot.SetErr = nil
	if e, _ := store.FindByDate("2024-01-01"); e.Content != "kept" {
		t.Errorf("stored content = %q, want previous value", e.Content)
	}
}

func TestUpsertRejectsBadDate(t *testing.T) {
	store, _ := newTestStore(t)
	for _, d := range []string{"", "2024-13-01", "01/02/2024"} {
		if err := store.Upsert(models.Entry{Date: d, Content: "x"}); err == nil {
			t.Errorf("Upsert with date %q should fail", d)
		}
	}
}

// A day's entry is started, auto-saved, explicitly saved, then reloaded in a
// later session.
func TestDailyEntryLifecycle(t *testing.T) {
	store, _ := newTestStore(t)

	e := models.NewEntry("2024-05-01")
	e.Prompt = "Describe your perfect day from start to finish."
	e.Content = "Morning coffee"
	if err := store.Upsert(e); err != nil {
		t.Fatalf("auto-save failed: %v", err)
	}
	if got, _ := store.FindByDate("2024-05-01"); got.LastSaved != nil {
		t.Error("auto-save must not set lastSaved")
	}

	e.Content = "Morning coffee, then a long walk."
	e.MarkSaved(time.Date(2024, 5, 1, 20, 30, 0, 0, time.UTC))
	if err := store.Upsert(e); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reopened := NewStore(store.slot)
	all := reopened.LoadAll()
	if len(all) != 1 {
		t.Fatalf("expected exactly one entry, got %d", len(all))
	}
	want := models.Entry{
		Date:      "2024-05-01",
		Prompt:    "Describe your perfect day from start to finish.",
		Content:   "Morning coffee, then a long walk.",
		LastSaved: strPtr("2024-05-01T20:30:00Z"),
	}
	if diff := cmp.Diff(want, all[0]); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
}

func TestConcurrentUpserts(t *testing.T) {
	store, _ := newTestStore(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(day int) {
			defer wg.Done()
			e := models.Entry{
				Date:    start.AddDate(0, 0, day).Format(constants.DateFormat),
				Content: fmt.Sprintf("entry %d", day),
			}
			if err := store.Upsert(e); err != nil {
				t.Errorf("Upsert(%s) failed: %v", e.Date, err)
			}
		}(i)
	}
	wg.Wait()

	got := store.LoadAll()
	if len(got) != n {
		t.Fatalf("LoadAll() returned %d entries, want %d", len(got), n)
	}
	seen := make(map[string]bool, n)
	for _, e := range got {
		if seen[e.Date] {
			t.Errorf("duplicate entry for %s", e.Date)
		}
		seen[e.Date] = true
	}
}

func TestJSONStoreKeepsOtherProcessWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jotlit.json")
	if err := storage.NewJSONStore(path).Init(); err != nil {
		t.Fatal(err)
	}

	open := func() *Store {
		slot := storage.NewJSONStore(path)
		if err := slot.Load(); err != nil {
			t.Fatal(err)
		}
		return NewStore(slot)
	}

	session := open()
	cli := open()

	if err := cli.Upsert(models.Entry{Date: "2024-01-01", Content: "from the command line"}); err != nil {
		t.Fatal(err)
	}
	if err := session.Upsert(models.Entry{Date: "2024-05-01", Content: "autosave"}); err != nil {
		t.Fatal(err)
	}

	var dates []string
	for _, e := range open().LoadAll() {
		dates = append(dates, e.Date)
	}
	if diff := cmp.Diff([]string{"2024-05-01", "2024-01-01"}, dates); diff != "" {
		t.Errorf("stored dates mismatch (-want +got):\n%s", diff)
	}
}
