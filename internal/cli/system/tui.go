package system

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/dictation"
	"github.com/julianstephens/jotlit/internal/lock"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/notifier"
	"github.com/julianstephens/jotlit/internal/session"
	"github.com/julianstephens/jotlit/internal/tui"
)

type TuiCmd struct {
	Minutes int `help:"Timer length in minutes (1-60). Defaults to the timer_minutes setting."`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	sessionID := uuid.NewString()

	l, err := lock.Acquire(ctx.LockPath(), sessionID)
	if err != nil {
		return err
	}
	defer func() {
		if err := l.Release(); err != nil {
			logger.Warn("Failed to release session lock", "error", err)
		}
	}()

	// Perform automatic backup on TUI startup (after successful load)
	ctx.PerformAutomaticBackup()

	runCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctrl := session.NewController(ctx.Journal, ctx.PromptGenerator(false), session.Config{
		AutoSaveInterval: ctx.Config.AutoSaveInterval.Duration,
		ID:               sessionID,
	})
	if err := ctrl.Start(runCtx); err != nil {
		return err
	}

	minutes := ctx.Config.TimerMinutes
	if c.Minutes != 0 {
		minutes = session.ClampMinutes(c.Minutes)
	}

	var sender notifier.Sender
	if ctx.Config.Notifications.Enabled {
		sender = notifier.New()
	}

	model := tui.New(tui.Options{
		Context:      runCtx,
		Controller:   ctrl,
		Store:        ctx.Journal,
		TimerMinutes: minutes,
		Dictation:    dictation.Detect(ctx.Config.Dictation.Command),
		Notifier:     sender,
	})

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(runCtx))
	final, runErr := p.Run()

	// Teardown: stop background work, then one last save of the buffer.
	cancel()
	if m, ok := final.(tui.Model); ok {
		m.StopDictation()
	}
	if err := ctrl.Stop(); err != nil {
		logger.Error("Final save failed", "error", err)
		fmt.Fprintf(os.Stderr, "Warning: your last changes could not be saved: %v\n", err)
	}

	if runErr != nil {
		return fmt.Errorf("alas, there's been an error: %w", runErr)
	}
	return nil
}
