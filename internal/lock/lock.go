// Package lock keeps a second interactive session from opening the same
// journal while the first one is alive.
package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/jotlit/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// ErrLocked is returned when another live process holds the session lock.
var ErrLocked = errors.New("another jotlit session is already running")

// Owner is the content of a lockfile: pid|session id|start time.
type Owner struct {
	PID       int
	SessionID string
	Started   time.Time
}

func (o Owner) String() string {
	return fmt.Sprintf("%d|%s|%s", o.PID, o.SessionID, o.Started.UTC().Format(time.RFC3339))
}

func parseOwner(content string) (Owner, error) {
	parts := strings.Split(strings.TrimSpace(content), "|")
	if len(parts) != 3 {
		return Owner{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid < 1 {
		return Owner{}, errors.New("invalid process ID in lockfile")
	}
	if strings.TrimSpace(parts[1]) == "" {
		return Owner{}, errors.New("session id in lockfile is empty")
	}
	started, err := time.Parse(time.RFC3339, parts[2])
	if err != nil {
		return Owner{}, errors.New("invalid start time in lockfile")
	}
	return Owner{PID: pid, SessionID: parts[1], Started: started}, nil
}

// Lock is a held session lock.
type Lock struct {
	path  string
	owner Owner
}

// Acquire creates the lockfile at path for sessionID. A lockfile left by a
// process that is no longer running, or that cannot be read, is taken over.
func Acquire(path, sessionID string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	owner := Owner{PID: getpidFunc(), SessionID: sessionID, Started: time.Now()}

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
		if err == nil {
			_, werr := f.WriteString(owner.String())
			cerr := f.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(path)
				return nil, fmt.Errorf("failed to write lockfile: %w", errors.Join(werr, cerr))
			}
			return &Lock{path: path, owner: owner}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("failed to create lockfile: %w", err)
		}

		existing, alive := Inspect(path)
		if alive {
			return nil, fmt.Errorf("%w (pid %d, started %s)", ErrLocked, existing.PID, existing.Started.Local().Format(time.Kitchen))
		}
		logger.Info("Taking over stale session lock", "path", path, "pid", existing.PID)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to remove stale lockfile: %w", err)
		}
	}

	return nil, fmt.Errorf("%w: lockfile keeps reappearing at %s", ErrLocked, path)
}

// Inspect reads the lockfile at path and reports whether its owner is a
// running process other than this one.
func Inspect(path string) (Owner, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Owner{}, false
	}
	owner, err := parseOwner(string(content))
	if err != nil {
		logger.Warn("Ignoring unreadable session lock", "path", path, "error", err)
		return Owner{}, false
	}
	if owner.PID == getpidFunc() {
		return owner, false
	}
	process, err := findProcessFunc(owner.PID)
	if err != nil || process == nil {
		return owner, false
	}
	return owner, true
}

func (l *Lock) Owner() Owner {
	return l.owner
}

func (l *Lock) Path() string {
	return l.path
}

// Release removes the lockfile if it still belongs to this lock.
func (l *Lock) Release() error {
	content, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read lockfile: %w", err)
	}
	owner, err := parseOwner(string(content))
	if err != nil || owner.SessionID != l.owner.SessionID {
		return nil
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lockfile: %w", err)
	}
	return nil
}
