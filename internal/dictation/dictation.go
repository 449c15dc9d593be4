// Package dictation wraps an external speech-to-text command. Support is
// decided once per session by Detect.
package dictation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	jerrors "github.com/julianstephens/jotlit/internal/errors"
	"github.com/julianstephens/jotlit/internal/logger"
)

// Capability is either available, carrying the resolved command, or
// unavailable with a reason.
type Capability struct {
	handle *Handle
	reason string
}

// Handle is the resolved dictation command.
type Handle struct {
	Path string
	Args []string
}

func Available(h Handle) Capability {
	return Capability{handle: &h}
}

func Unavailable(reason string) Capability {
	return Capability{reason: reason}
}

// Handle returns the command and true when dictation is available.
func (c Capability) Handle() (Handle, bool) {
	if c.handle == nil {
		return Handle{}, false
	}
	return *c.handle, true
}

// Err returns nil when available, otherwise an error wrapping
// ErrCapabilityUnavailable.
func (c Capability) Err() error {
	if c.handle != nil {
		return nil
	}
	return fmt.Errorf("%w: %s", jerrors.ErrCapabilityUnavailable, c.reason)
}

func (c Capability) Reason() string {
	return c.reason
}

// Label is the text shown on the dictation control.
func (c Capability) Label(running bool) string {
	switch {
	case c.handle == nil:
		return "Voice Dictation Not Supported"
	case running:
		return "Stop Voice Dictation"
	default:
		return "Start Voice Dictation"
	}
}

// Detect resolves command, a program name followed by whitespace-separated
// arguments, on PATH.
func Detect(command string) Capability {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return Unavailable("no dictation command configured")
	}

	path, err := exec.LookPath(fields[0])
	if err != nil {
		return Unavailable(fmt.Sprintf("%s not found in PATH", fields[0]))
	}
	return Available(Handle{Path: path, Args: fields[1:]})
}

// Transcriber runs the dictation command and delivers each line it prints as
// a transcript chunk.
type Transcriber struct {
	handle Handle

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	lastErr error
}

// NewTranscriber fails with ErrCapabilityUnavailable when c is unavailable.
func NewTranscriber(c Capability) (*Transcriber, error) {
	h, ok := c.Handle()
	if !ok {
		return nil, c.Err()
	}
	return &Transcriber{handle: h}, nil
}

func (t *Transcriber) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done != nil
}

// Start launches the command. onChunk is called from a background goroutine
// for every non-empty output line. onEnd is called once when the run ends,
// with nil for a clean exit or Stop, before Stop returns.
func (t *Transcriber) Start(ctx context.Context, onChunk func(string), onEnd func(error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done != nil {
		return errors.New("dictation already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	cmd := exec.CommandContext(runCtx, t.handle.Path, t.handle.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		return fmt.Errorf("failed to attach to dictation output: %w", err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("failed to start dictation: %w", err)
	}

	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			chunk := strings.TrimSpace(scanner.Text())
			if chunk != "" && onChunk != nil {
				onChunk(chunk)
			}
		}
		err := cmd.Wait()
		if runCtx.Err() != nil {
			err = nil
		}
		if err != nil {
			logger.Warn("Speech recognition error", "error", err)
		}

		t.mu.Lock()
		t.cancel = nil
		t.done = nil
		t.lastErr = err
		t.mu.Unlock()
		cancel()

		if onEnd != nil {
			onEnd(err)
		}
		close(done)
	}()

	return nil
}

// Stop ends a running dictation and waits for it to finish.
func (t *Transcriber) Stop() {
	t.mu.Lock()
	cancel, done := t.cancel, t.done
	t.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Err returns the error that ended the last run, if any.
func (t *Transcriber) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastErr
}
