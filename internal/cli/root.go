package cli

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/julianstephens/jotlit/internal/backup"
	"github.com/julianstephens/jotlit/internal/config"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/journal"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/prompt"
	"github.com/julianstephens/jotlit/internal/storage"
	"github.com/julianstephens/jotlit/internal/storage/sqlite"
)

type Context struct {
	Store   storage.Slot
	Journal *journal.Store
	Config  config.Config
	// ConfigDir holds logs and the session lock.
	ConfigDir    string
	SettingsPath string

	// Out and In default to the process streams when nil.
	Out io.Writer
	In  io.Reader
	Now func() time.Time
}

// NewContext wires the journal onto store.
func NewContext(store storage.Slot, cfg config.Config) *Context {
	return &Context{
		Store:   store,
		Journal: journal.NewStore(store),
		Config:  cfg,
	}
}

func (c *Context) Stdout() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}

func (c *Context) Stdin() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

func (c *Context) Today() string {
	now := time.Now
	if c.Now != nil {
		now = c.Now
	}
	return now().Format(constants.DateFormat)
}

// LockPath is where the interactive session lock lives.
func (c *Context) LockPath() string {
	dir := c.ConfigDir
	if dir == "" {
		dir = os.TempDir()
	}
	return filepath.Join(dir, constants.SessionLockfileName)
}

// PromptGenerator builds a generator from the prompt settings. Offline skips
// the remote source.
func (c *Context) PromptGenerator(offline bool) *prompt.Generator {
	var provider prompt.Provider
	if !offline {
		provider = prompt.NewQuoteProvider(c.Config.Prompt.URL, c.Config.Prompt.Timeout.Duration)
	}
	return prompt.NewGenerator(provider, prompt.WithFallbacks(c.Config.Prompt.Fallbacks))
}

// BackupManager returns a manager for file-based stores only.
func (c *Context) BackupManager() (*backup.Manager, error) {
	switch c.Store.(type) {
	case *sqlite.Store, *storage.JSONStore:
		return backup.NewManager(c.Store.GetConfigPath()), nil
	default:
		return nil, backup.ErrUnsupportedStore
	}
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	mgr, err := c.BackupManager()
	if err != nil {
		logger.Debug("Skipping automatic backup", "reason", err)
		return
	}
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}
