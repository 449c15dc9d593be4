package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/config"
	"github.com/julianstephens/jotlit/internal/storage"
	"github.com/julianstephens/jotlit/internal/storage/postgres"
)

type InitCmd struct {
	Force bool `help:"Force reset by deleting the existing store before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()

	if c.Force {
		if _, ok := ctx.Store.(*storage.MemoryStore); !ok {
			if err := c.removeStore(ctx); err != nil {
				return err
			}
		}
	}

	if err := ctx.Store.Init(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Initialized jotlit storage at: %s\n", ctx.Store.GetConfigPath())

	if ctx.SettingsPath == "" {
		return nil
	}
	err := config.Write(ctx.SettingsPath, config.Default(), c.Force)
	switch {
	case err == nil:
		fmt.Fprintf(out, "Wrote default settings to: %s\n", ctx.SettingsPath)
	case errors.Is(err, os.ErrExist):
		// Existing settings are left alone.
	default:
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}

func (c *InitCmd) removeStore(ctx *cli.Context) error {
	if _, ok := ctx.Store.(*postgres.Store); ok {
		return errors.New("--force is not supported for PostgreSQL stores")
	}
	path := ctx.Store.GetConfigPath()

	if _, err := os.Stat(path); err == nil {
		// Close first to prevent file locking issues
		if err := ctx.Store.Close(); err != nil {
			return fmt.Errorf("failed to close existing store: %w", err)
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to delete existing store: %w", err)
		}
		fmt.Fprintf(ctx.Stdout(), "Deleted existing store at: %s\n", path)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to access existing store: %w", err)
	}
	return nil
}
