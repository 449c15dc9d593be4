package entries

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/models"
)

type ExportCmd struct {
	Format string `help:"Output format." enum:"json,yaml" default:"json"`
	Output string `help:"Write to this file instead of stdout." type:"path" short:"o"`
}

func (c *ExportCmd) Run(ctx *cli.Context) error {
	// Strict read: exporting an unreadable store as empty would look like success.
	entries, err := ctx.Journal.Entries()
	if err != nil {
		return err
	}

	w := ctx.Stdout()
	if c.Output != "" {
		if err := os.MkdirAll(filepath.Dir(c.Output), 0700); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		f, err := os.OpenFile(c.Output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := encodeEntries(w, c.Format, entries); err != nil {
		return err
	}
	if c.Output != "" {
		fmt.Fprintf(ctx.Stdout(), "✓ Exported %d entries to %s\n", len(entries), c.Output)
	}
	return nil
}

func encodeEntries(w io.Writer, format string, entries []models.Entry) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		return enc.Close()
	case "json", "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(entries); err != nil {
			return fmt.Errorf("failed to encode entries: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}
