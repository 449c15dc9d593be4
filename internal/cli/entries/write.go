package entries

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/lock"
	"github.com/julianstephens/jotlit/internal/models"
)

type WriteCmd struct {
	Date   string   `help:"Entry date (YYYY-MM-DD). Defaults to today."`
	Prompt string   `help:"Prompt to store with the entry. The existing prompt is kept when empty."`
	Append bool     `help:"Add to the existing content instead of replacing it."`
	Text   []string `arg:"" optional:"" help:"Entry text. Read from stdin when omitted."`
}

func (c *WriteCmd) Run(ctx *cli.Context) error {
	date, err := resolveDate(ctx, c.Date)
	if err != nil {
		return err
	}

	text := strings.Join(c.Text, " ")
	if len(c.Text) == 0 {
		raw, err := io.ReadAll(ctx.Stdin())
		if err != nil {
			return fmt.Errorf("failed to read entry text: %w", err)
		}
		text = string(raw)
	}
	text = strings.TrimRight(text, "\n")
	if models.IsBlank(text) {
		return errors.New("nothing to write: entry text is empty")
	}

	if owner, alive := lock.Inspect(ctx.LockPath()); alive && date == ctx.Today() {
		fmt.Fprintf(os.Stderr, "Warning: a writing session (pid %d) is open and may overwrite today's entry on its next save.\n", owner.PID)
	}

	entry, ok := ctx.Journal.FindByDate(date)
	if !ok {
		entry = models.NewEntry(date)
	}
	if c.Prompt != "" {
		entry.Prompt = c.Prompt
	}
	if c.Append && !models.IsBlank(entry.Content) {
		entry.Content = entry.Content + "\n\n" + text
	} else {
		entry.Content = text
	}
	entry.MarkSaved(now(ctx))

	if err := ctx.Journal.Upsert(entry); err != nil {
		return err
	}
	fmt.Fprintf(ctx.Stdout(), "✓ Saved entry for %s (%d words)\n", date, wordCount(entry.Content))
	return nil
}

// resolveDate accepts YYYY-MM-DD or "today"; empty means today.
func resolveDate(ctx *cli.Context, date string) (string, error) {
	if date == "" || strings.EqualFold(date, "today") {
		return ctx.Today(), nil
	}
	if _, err := time.Parse(constants.DateFormat, date); err != nil {
		return "", fmt.Errorf("invalid date format: %s (expected YYYY-MM-DD or 'today')", date)
	}
	return date, nil
}

func now(ctx *cli.Context) time.Time {
	if ctx.Now != nil {
		return ctx.Now()
	}
	return time.Now()
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}
