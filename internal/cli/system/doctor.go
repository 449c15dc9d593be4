package system

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/julianstephens/jotlit/internal/backup"
	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/dictation"
	"github.com/julianstephens/jotlit/internal/lock"
	"github.com/julianstephens/jotlit/internal/notifier"
	"github.com/julianstephens/jotlit/internal/storage/postgres"
	"github.com/julianstephens/jotlit/internal/storage/sqlite"
)

type DoctorCmd struct{}

// errSkipped marks a check that does not apply to this setup.
var errSkipped = errors.New("skipped")

type check struct {
	name string
	// warnOnly checks report ⚠ instead of failing the run.
	warnOnly bool
	// needsStore checks are skipped when the store cannot be loaded.
	needsStore bool
	run        func(ctx *cli.Context) (string, error)
}

func doctorChecks() []check {
	return []check{
		{name: "Schema version", needsStore: true, run: checkSchemaVersion},
		{name: "Entries readable", needsStore: true, run: checkEntries},
		{name: "Quarantined data", warnOnly: true, needsStore: true, run: checkQuarantine},
		{name: "Backups present", warnOnly: true, run: checkBackupsPresent},
		{name: "Settings", run: checkSettings},
		{name: "Voice dictation", warnOnly: true, run: checkDictation},
		{name: "Notification tray", warnOnly: true, run: checkTray},
		{name: "Session lock", warnOnly: true, run: checkSessionLock},
		{name: "Clock/timezone", run: checkClockTimezone},
	}
}

func (cmd *DoctorCmd) Run(ctx *cli.Context) error {
	out := ctx.Stdout()
	fmt.Fprintln(out, "Running diagnostics...")
	fmt.Fprintln(out)

	hasError := false

	storeReachable := true
	if err := ctx.Store.Load(); err != nil {
		fail(out, "Store reachable", err)
		hasError = true
		storeReachable = false
	} else {
		fmt.Fprintf(out, "✓ Store reachable: OK (%s)\n", ctx.Store.GetConfigPath())
	}

	for _, c := range doctorChecks() {
		if c.needsStore && !storeReachable {
			fmt.Fprintf(out, "⊘ %s: SKIPPED (store not reachable)\n", c.name)
			continue
		}
		detail, err := c.run(ctx)
		switch {
		case errors.Is(err, errSkipped):
			fmt.Fprintf(out, "⊘ %s: SKIPPED (%s)\n", c.name, detail)
		case err != nil && c.warnOnly:
			fmt.Fprintf(out, "⚠ %s: WARNING\n", c.name)
			fmt.Fprintf(out, "   %v\n", err)
		case err != nil:
			fail(out, c.name, err)
			hasError = true
		case detail != "":
			fmt.Fprintf(out, "✓ %s: OK (%s)\n", c.name, detail)
		default:
			fmt.Fprintf(out, "✓ %s: OK\n", c.name)
		}
	}

	fmt.Fprintln(out)
	if hasError {
		fmt.Fprintln(out, "Diagnostics completed with errors.")
		return fmt.Errorf("one or more health checks failed")
	}

	fmt.Fprintln(out, "All diagnostics passed!")
	return nil
}

func fail(out io.Writer, name string, err error) {
	fmt.Fprintf(out, "❌ %s: FAIL\n", name)
	fmt.Fprintf(out, "   Error: %v\n", err)
}

type schemaReporter interface {
	SchemaStatus() (current, latest int, err error)
}

func checkSchemaVersion(ctx *cli.Context) (string, error) {
	var reporter schemaReporter
	switch s := ctx.Store.(type) {
	case *sqlite.Store:
		reporter = s
	case *postgres.Store:
		reporter = s
	default:
		return "no schema for this backend", errSkipped
	}

	current, latest, err := reporter.SchemaStatus()
	if err != nil {
		return "", fmt.Errorf("failed to read schema version: %w", err)
	}
	if current > latest {
		return "", fmt.Errorf("store schema version (%d) is newer than supported version (%d)", current, latest)
	}
	if current < latest {
		return "", fmt.Errorf("migrations incomplete: current version %d, latest version %d", current, latest)
	}
	return fmt.Sprintf("version %d", current), nil
}

func checkEntries(ctx *cli.Context) (string, error) {
	entries, err := ctx.Journal.Entries()
	if err != nil {
		return "", err
	}
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if _, err := time.Parse(constants.DateFormat, e.Date); err != nil {
			return "", fmt.Errorf("entry has invalid date %q", e.Date)
		}
		if seen[e.Date] {
			return "", fmt.Errorf("more than one entry for %s", e.Date)
		}
		seen[e.Date] = true
	}
	return fmt.Sprintf("%d entries", len(entries)), nil
}

func checkQuarantine(ctx *cli.Context) (string, error) {
	_, ok, err := ctx.Store.Get(constants.CorruptEntriesKey)
	if err != nil {
		return "", err
	}
	if ok {
		return "", fmt.Errorf("an unreadable entries blob was set aside under %s; inspect it with 'jotlit inspect dump-raw --corrupt'", constants.CorruptEntriesKey)
	}
	return "", nil
}

func checkBackupsPresent(ctx *cli.Context) (string, error) {
	mgr, err := ctx.BackupManager()
	if errors.Is(err, backup.ErrUnsupportedStore) {
		return "not a file-based store", errSkipped
	}
	if err != nil {
		return "", err
	}
	backups, err := mgr.ListBackups()
	if err != nil {
		return "", fmt.Errorf("failed to list backups: %w", err)
	}
	if len(backups) == 0 {
		return "", fmt.Errorf("no backups found - consider creating one with 'jotlit backup create'")
	}
	return fmt.Sprintf("%d, latest %s", len(backups), backups[0].Timestamp.Format("2006-01-02 15:04")), nil
}

func checkSettings(ctx *cli.Context) (string, error) {
	if ctx.SettingsPath == "" {
		return "defaults", nil
	}
	if _, err := os.Stat(ctx.SettingsPath); os.IsNotExist(err) {
		return "defaults, no file at " + ctx.SettingsPath, nil
	}
	return ctx.SettingsPath, nil
}

func checkDictation(ctx *cli.Context) (string, error) {
	c := dictation.Detect(ctx.Config.Dictation.Command)
	if err := c.Err(); err != nil {
		return "", err
	}
	h, _ := c.Handle()
	return h.Path, nil
}

func checkTray(ctx *cli.Context) (string, error) {
	if !ctx.Config.Notifications.Enabled {
		return "notifications disabled", errSkipped
	}
	if err := notifier.New().Available(); err != nil {
		return "", fmt.Errorf("timer notifications will not be shown: %w", err)
	}
	return "", nil
}

func checkSessionLock(ctx *cli.Context) (string, error) {
	owner, alive := lock.Inspect(ctx.LockPath())
	if alive {
		return "", fmt.Errorf("a writing session is running (pid %d since %s)", owner.PID, owner.Started.Local().Format(time.Kitchen))
	}
	return "no active session", nil
}

func checkClockTimezone(ctx *cli.Context) (string, error) {
	now := time.Now()
	if now.Year() < 2020 || now.Year() > 2100 {
		return "", fmt.Errorf("system time appears incorrect: %s", now.Format(time.RFC3339))
	}
	zone, _ := now.Zone()
	return zone, nil
}
