package entries

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/config"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/storage"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func setupTestContext(t *testing.T, seed ...models.Entry) (*cli.Context, *bytes.Buffer) {
	t.Helper()
	ctx := cli.NewContext(storage.NewMemoryStore(), config.Default())
	ctx.ConfigDir = t.TempDir()
	ctx.Now = func() time.Time { return fixedNow }
	out := &bytes.Buffer{}
	ctx.Out = out
	for _, e := range seed {
		if err := ctx.Journal.Upsert(e); err != nil {
			t.Fatal(err)
		}
	}
	return ctx, out
}

func TestWriteCmdFromArgs(t *testing.T) {
	ctx, out := setupTestContext(t)

	cmd := &WriteCmd{Prompt: "What went well?", Text: []string{"Slept", "well."}}
	if err := cmd.Run(ctx); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, ok := ctx.Journal.FindByDate("2024-05-01")
	if !ok {
		t.Fatal("entry was not stored")
	}
	saved := "2024-05-01T09:30:00Z"
	want := models.Entry{Date: "2024-05-01", Prompt: "What went well?", Content: "Slept well.", LastSaved: &saved}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("entry mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(out.String(), "2 words") {
		t.Errorf("output = %q", out.String())
	}
}

func TestWriteCmdFromStdinAppends(t *testing.T) {
	ctx, _ := setupTestContext(t, models.Entry{Date: "2024-04-30", Prompt: "kept", Content: "first"})
	ctx.In = strings.NewReader("second\n")

	if err := (&WriteCmd{Date: "2024-04-30", Append: true}).Run(ctx); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	got, _ := ctx.Journal.FindByDate("2024-04-30")
	if got.Content != "first\n\nsecond" || got.Prompt != "kept" {
		t.Errorf("entry = %#v", got)
	}
}

func TestWriteCmdRejects(t *testing.T) {
	tests := []struct {
		name string
		cmd  WriteCmd
		in   string
	}{
		{"blank text", WriteCmd{Text: []string{"  "}}, ""},
		{"empty stdin", WriteCmd{}, "\n\n"},
		{"bad date", WriteCmd{Date: "05/01/2024", Text: []string{"x"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, _ := setupTestContext(t)
			ctx.In = strings.NewReader(tt.in)
			if err := tt.cmd.Run(ctx); err == nil {
				t.Fatal("expected an error")
			}
			if got := ctx.Journal.LoadAll(); len(got) != 0 {
				t.Errorf("store has %d entries after a rejected write", len(got))
			}
		})
	}
}

func TestListCmd(t *testing.T) {
	ctx, out := setupTestContext(t)
	if err := (&ListCmd{}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "No saved entries yet." {
		t.Errorf("empty output = %q", out.String())
	}

	ctx, out = setupTestContext(t,
		models.Entry{Date: "2024-04-29", Content: "a"},
		models.Entry{Date: "2024-05-01", Prompt: "Write about this idea: \"Stay hungry\" - Someone", Content: "b c"},
		models.Entry{Date: "2024-04-30", Content: "d"},
	)
	if err := (&ListCmd{Limit: 2}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if !strings.HasPrefix(lines[0], "2024-05-01") || !strings.HasPrefix(lines[1], "2024-04-30") {
		t.Errorf("entries not newest first:\n%s", out.String())
	}
	if !strings.Contains(lines[0], "Write about this idea: \"Stay h...") {
		t.Errorf("prompt preview not truncated: %q", lines[0])
	}
	if !strings.Contains(lines[1], "No prompt") {
		t.Errorf("missing prompt placeholder: %q", lines[1])
	}
	if !strings.Contains(out.String(), "2 of 3 entries shown") {
		t.Errorf("limit footer missing:\n%s", out.String())
	}
}

func TestShowCmdRaw(t *testing.T) {
	saved := "2024-05-01T09:00:00Z"
	ctx, out := setupTestContext(t, models.Entry{Date: "2024-05-01", Prompt: "p", Content: "Hello there.", LastSaved: &saved})

	if err := (&ShowCmd{Raw: true}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	for _, want := range []string{"# 2024-05-01", "> p", "Hello there.", "_Last saved"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("markdown missing %q:\n%s", want, out.String())
		}
	}

	if err := (&ShowCmd{Date: "2024-01-01", Raw: true}).Run(ctx); err == nil {
		t.Error("show should fail for a day without an entry")
	}
}

func TestShowCmdRendered(t *testing.T) {
	ctx, out := setupTestContext(t, models.Entry{Date: "2024-05-01", Content: "Rendered words."})
	if err := (&ShowCmd{Width: 60}).Run(ctx); err != nil {
		t.Fatalf("show failed: %v", err)
	}
	if !strings.Contains(out.String(), "Rendered words.") {
		t.Errorf("rendered output = %q", out.String())
	}
}

func TestExportCmd(t *testing.T) {
	seed := []models.Entry{
		{Date: "2024-05-01", Prompt: "p1", Content: "one"},
		{Date: "2024-04-30", Content: "two"},
	}

	t.Run("json", func(t *testing.T) {
		ctx, out := setupTestContext(t, seed...)
		if err := (&ExportCmd{Format: "json"}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		var got []models.Entry
		if err := json.Unmarshal(out.Bytes(), &got); err != nil {
			t.Fatalf("export is not JSON: %v", err)
		}
		if diff := cmp.Diff(seed, got); diff != "" {
			t.Errorf("export mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("yaml to file", func(t *testing.T) {
		ctx, out := setupTestContext(t, seed...)
		path := filepath.Join(t.TempDir(), "out", "entries.yaml")
		if err := (&ExportCmd{Format: "yaml", Output: path}).Run(ctx); err != nil {
			t.Fatal(err)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		var got []models.Entry
		if err := yaml.Unmarshal(data, &got); err != nil {
			t.Fatalf("export is not YAML: %v", err)
		}
		if diff := cmp.Diff(seed, got); diff != "" {
			t.Errorf("export mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(out.String(), "Exported 2 entries") {
			t.Errorf("output = %q", out.String())
		}
	})

	t.Run("corrupt store", func(t *testing.T) {
		ctx, _ := setupTestContext(t)
		if err := ctx.Store.Set(constants.EntriesKey, "[{"); err != nil {
			t.Fatal(err)
		}
		if err := (&ExportCmd{Format: "json"}).Run(ctx); err == nil {
			t.Error("export should refuse an unreadable store")
		}
	})
}

func TestPromptCmdOffline(t *testing.T) {
	ctx, out := setupTestContext(t)
	ctx.Config.Prompt.Fallbacks = []string{"Only this one."}
	if err := (&PromptCmd{Offline: true}).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != "Only this one." {
		t.Errorf("output = %q", out.String())
	}
}
