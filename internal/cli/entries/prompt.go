package entries

import (
	"context"
	"fmt"

	"github.com/julianstephens/jotlit/internal/cli"
)

type PromptCmd struct {
	Offline bool `help:"Pick one of the local prompts without contacting the quote service."`
}

func (c *PromptCmd) Run(ctx *cli.Context) error {
	fmt.Fprintln(ctx.Stdout(), ctx.PromptGenerator(c.Offline).Generate(context.Background()))
	return nil
}
