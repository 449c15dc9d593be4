package entries

import (
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/models"
)

type ListCmd struct {
	Limit int `help:"Show at most this many entries (0 for all)." default:"0"`
}

func (c *ListCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()

	all := ctx.Journal.LoadAll()
	if len(all) == 0 {
		fmt.Fprintln(out, "No saved entries yet.")
		return nil
	}

	shown := all
	if c.Limit > 0 && c.Limit < len(all) {
		shown = all[:c.Limit]
	}

	lines := lo.Map(shown, func(e models.Entry, _ int) string {
		return formatListLine(e)
	})
	for _, line := range lines {
		fmt.Fprintln(out, line)
	}
	if len(shown) < len(all) {
		fmt.Fprintf(out, "\n%d of %d entries shown\n", len(shown), len(all))
	}
	return nil
}

func formatListLine(e models.Entry) string {
	saved := "never saved"
	if e.LastSaved != nil {
		if t, err := time.Parse(time.RFC3339, *e.LastSaved); err == nil {
			saved = "saved " + t.Local().Format("Jan 2 15:04")
		}
	}
	return fmt.Sprintf("%s  %-*s  %4d words  %s",
		e.Date,
		constants.PromptPreviewLength+3,
		e.PromptPreview(constants.PromptPreviewLength),
		wordCount(e.Content),
		saved,
	)
}
