package system

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/lock"
	"github.com/julianstephens/jotlit/internal/storage"
)

type DebugCmd struct {
	DBPath  DebugDBPathCmd  `cmd:"" name:"db-path" help:"Show store path and backend."`
	DumpRaw DebugDumpRawCmd `cmd:"" help:"Print the raw entries blob as stored."`
	Lock    DebugLockCmd    `cmd:"" help:"Show the interactive session lock."`
}

type DebugDBPathCmd struct{}

func (cmd *DebugDBPathCmd) Run(ctx *cli.Context) error {
	path := ctx.Store.GetConfigPath()
	return printJSON(ctx, map[string]string{
		"path":     path,
		"backend":  storage.Backend(path),
		"settings": ctx.SettingsPath,
	})
}

type DebugDumpRawCmd struct {
	Corrupt bool `help:"Dump the quarantined copy of an unreadable blob instead."`
}

func (cmd *DebugDumpRawCmd) Run(ctx *cli.Context) error {
	key := constants.EntriesKey
	if cmd.Corrupt {
		key = constants.CorruptEntriesKey
	}
	raw, ok, err := ctx.Store.Get(key)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", key, err)
	}
	if !ok {
		return fmt.Errorf("no value stored under %s", key)
	}
	fmt.Fprintln(ctx.Stdout(), raw)
	return nil
}

type DebugLockCmd struct{}

func (cmd *DebugLockCmd) Run(ctx *cli.Context) error {
	owner, alive := lock.Inspect(ctx.LockPath())
	out := map[string]interface{}{
		"path":   ctx.LockPath(),
		"active": alive,
	}
	if owner.PID != 0 {
		out["pid"] = owner.PID
		out["session"] = owner.SessionID
		out["started"] = owner.Started.Format(time.RFC3339)
	}
	return printJSON(ctx, out)
}

func printJSON(ctx *cli.Context, v interface{}) error {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	fmt.Fprintln(ctx.Stdout(), string(jsonBytes))
	return nil
}
