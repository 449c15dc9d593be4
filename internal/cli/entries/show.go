package entries

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/models"
)

type ShowCmd struct {
	Date  string `arg:"" optional:"" help:"Entry date (YYYY-MM-DD or 'today'). Defaults to today."`
	Raw   bool   `help:"Print markdown without rendering."`
	Width int    `help:"Wrap rendered output at this column." default:"80"`
}

func (c *ShowCmd) Run(ctx *cli.Context) error {
	date, err := resolveDate(ctx, c.Date)
	if err != nil {
		return err
	}

	entry, ok := ctx.Journal.FindByDate(date)
	if !ok {
		return fmt.Errorf("no entry found for date: %s", date)
	}

	doc := entryMarkdown(entry)
	if c.Raw {
		fmt.Fprint(ctx.Stdout(), doc)
		return nil
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(c.Width),
	)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	rendered, err := r.Render(doc)
	if err != nil {
		return fmt.Errorf("failed to render entry: %w", err)
	}
	fmt.Fprint(ctx.Stdout(), rendered)
	return nil
}

func entryMarkdown(e models.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", e.Date)
	if e.Prompt != "" {
		fmt.Fprintf(&b, "> %s\n\n", e.Prompt)
	}
	if models.IsBlank(e.Content) {
		b.WriteString("_Nothing written yet._\n")
	} else {
		b.WriteString(strings.TrimSpace(e.Content))
		b.WriteString("\n")
	}
	if e.LastSaved != nil {
		if t, err := time.Parse(time.RFC3339, *e.LastSaved); err == nil {
			fmt.Fprintf(&b, "\n---\n\n_Last saved %s_\n", t.Local().Format("Monday, January 2 2006 at 15:04"))
		}
	}
	return b.String()
}
