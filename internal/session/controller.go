// Package session drives one interactive writing session: the current entry,
// the live buffer, recurring auto-save and teardown.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/journal"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/prompt"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrStopped        = errors.New("session stopped")
	ErrNothingToSave  = errors.New("nothing to save")
)

// Context is the mutable state of a session.
type Context struct {
	Current models.Entry
	Buffer  string
}

// Dirty reports whether the buffer holds text that differs from the current
// entry's content. A blank buffer is never dirty.
func (c Context) Dirty() bool {
	return c.Buffer != c.Current.Content && !models.IsBlank(c.Buffer)
}

// Confirmer is asked before unsaved changes are discarded.
type Confirmer func() bool

type Config struct {
	AutoSaveInterval time.Duration
	Now              func() time.Time
	// ID identifies the session in logs and the session lock. Generated when empty.
	ID string
}

type Controller struct {
	store   *journal.Store
	prompts *prompt.Generator
	cfg     Config
	log     *log.Logger

	mu       sync.Mutex
	sess     Context
	started  bool
	stopped  bool
	runCtx   context.Context
	cancel   context.CancelFunc
	group    *errgroup.Group
	inflight sync.WaitGroup
}

func NewController(store *journal.Store, prompts *prompt.Generator, cfg Config) *Controller {
	if cfg.AutoSaveInterval <= 0 {
		cfg.AutoSaveInterval = constants.DefaultAutoSaveInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	return &Controller{
		store:   store,
		prompts: prompts,
		cfg:     cfg,
		log:     logger.With("session", cfg.ID),
	}
}

func (c *Controller) ID() string {
	return c.cfg.ID
}

// Start resumes today's entry, or begins an empty one, and launches the
// auto-save loop. The loop stops when ctx is canceled or Stop is called.
func (c *Controller) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	if c.started {
		return ErrAlreadyStarted
	}

	today := c.cfg.Now().Format(constants.DateFormat)
	entry, ok := c.store.FindByDate(today)
	if !ok {
		entry = models.NewEntry(today)
	}
	c.sess = Context{Current: entry, Buffer: entry.Content}

	c.runCtx, c.cancel = context.WithCancel(ctx)
	var gctx context.Context
	c.group, gctx = errgroup.WithContext(c.runCtx)
	c.group.Go(func() error {
		c.autoSaveLoop(gctx)
		return nil
	})
	c.started = true

	c.debug("Session started", "date", today, "resumed", ok)
	return nil
}

func (c *Controller) autoSaveLoop(ctx context.Context) {
	ticker := time.NewTicker(c.cfg.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.AutoSave(); err != nil && !errors.Is(err, ErrStopped) {
				c.warn("Auto-save failed", "error", err)
			}
		}
	}
}

// Snapshot returns a copy of the session state.
func (c *Controller) Snapshot() Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sess
}

func (c *Controller) Current() models.Entry {
	return c.Snapshot().Current
}

func (c *Controller) Buffer() string {
	return c.Snapshot().Buffer
}

func (c *Controller) SetBuffer(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sess.Buffer = text
}

// GeneratePrompt fetches a prompt and sets it on the current entry. The fetch
// is abandoned when ctx is canceled or the session stops.
func (c *Controller) GeneratePrompt(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return "", ErrStopped
	}
	base := c.runCtx
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	if base != nil {
		stop := context.AfterFunc(base, cancel)
		defer stop()
	}

	p := c.prompts.Generate(fetchCtx)
	if err := fetchCtx.Err(); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return "", ErrStopped
	}
	c.sess.Current.Prompt = p
	return p, nil
}

// Save copies the buffer into the current entry, stamps lastSaved and
// persists it. A blank buffer is not written and yields ErrNothingToSave.
// On failure the buffer and current entry are left as they were.
func (c *Controller) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return ErrStopped
	}
	if models.IsBlank(c.sess.Buffer) {
		return ErrNothingToSave
	}

	entry := c.sess.Current
	entry.Content = c.sess.Buffer
	entry.MarkSaved(c.cfg.Now())
	if err := c.store.Upsert(entry); err != nil {
		return err
	}
	c.sess.Current = entry
	c.debug("Entry saved", "date", entry.Date)
	return nil
}

// AutoSave persists the buffer when it holds non-blank text. It reports
// whether a write happened. lastSaved is left untouched.
func (c *Controller) AutoSave() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false, ErrStopped
	}
	return c.autoSaveLocked()
}

func (c *Controller) autoSaveLocked() (bool, error) {
	if models.IsBlank(c.sess.Buffer) {
		return false, nil
	}
	entry := c.sess.Current
	entry.Content = c.sess.Buffer
	if err := c.store.Upsert(entry); err != nil {
		return false, err
	}
	c.sess.Current = entry
	return true, nil
}

// LoadEntry makes entry the current one and replaces the buffer with its
// content. When the buffer holds unsaved text, confirm decides; a nil
// confirm refuses. It reports whether the entry was loaded.
func (c *Controller) LoadEntry(entry models.Entry, confirm Confirmer) (bool, error) {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false, ErrStopped
	}
	dirty := c.sess.Dirty()
	c.mu.Unlock()

	if dirty && (confirm == nil || !confirm()) {
		return false, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return false, ErrStopped
	}
	c.sess = Context{Current: entry, Buffer: entry.Content}
	c.debug("Entry loaded", "date", entry.Date)
	return true, nil
}

// Dirty reports whether the buffer has unsaved text.
func (c *Controller) Dirty() bool {
	return c.Snapshot().Dirty()
}

// Stop cancels the auto-save loop and any prompt fetch, waits for them, then
// performs one final auto-save. Nothing is written after Stop returns.
// Calling Stop more than once is a no-op.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	cancel, group := c.cancel, c.group
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		_ = group.Wait()
	}
	c.inflight.Wait()

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.started {
		return nil
	}
	saved, err := c.autoSaveLocked()
	c.debug("Session stopped", "final_save", saved)
	return err
}

func (c *Controller) debug(msg string, keyvals ...interface{}) {
	if c.log != nil {
		c.log.Debug(msg, keyvals...)
	}
}

func (c *Controller) warn(msg string, keyvals ...interface{}) {
	if c.log != nil {
		c.log.Warn(msg, keyvals...)
	}
}
