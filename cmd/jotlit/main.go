package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/samber/lo"

	"github.com/julianstephens/jotlit/internal/cli"
	"github.com/julianstephens/jotlit/internal/cli/backups"
	"github.com/julianstephens/jotlit/internal/cli/entries"
	"github.com/julianstephens/jotlit/internal/cli/system"
	"github.com/julianstephens/jotlit/internal/config"
	"github.com/julianstephens/jotlit/internal/constants"
	jerrors "github.com/julianstephens/jotlit/internal/errors"
	"github.com/julianstephens/jotlit/internal/logger"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Store path or PostgreSQL connection string. Use 'postgresql' to read the connection string from the OS keyring or JOTLIT_DB_CONNECTION. Credentials must NOT be embedded in the connection string." type:"string" default:"${config_path}"`
	Settings string `help:"Settings file path." type:"path" default:"${settings_path}"`
	Debug    bool   `help:"Log debug output to stderr as well as the log file."`

	Init    system.InitCmd    `cmd:"" help:"Initialize jotlit storage and default settings."`
	Tui     system.TuiCmd     `cmd:"" help:"Start a writing session." default:"1"`
	Prompt  entries.PromptCmd `cmd:"" help:"Print a writing prompt."`
	Write   entries.WriteCmd  `cmd:"" help:"Save an entry from arguments or stdin."`
	List    entries.ListCmd   `cmd:"" help:"List saved entries, newest first."`
	Show    entries.ShowCmd   `cmd:"" help:"Show an entry."`
	Export  entries.ExportCmd `cmd:"" help:"Export all entries as JSON or YAML."`
	Doctor  system.DoctorCmd  `cmd:"" help:"Run health checks and diagnostics."`
	Inspect system.DebugCmd   `cmd:"" help:"Debug commands for troubleshooting."`
	Keyring system.KeyringCmd `cmd:"" help:"Manage PostgreSQL credentials in the OS keyring."`
	Backup  struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage journal backups."`
}

// Commands that either create the store, load it themselves or never use it.
var skipLoad = []string{"init", "doctor", "keyring", "prompt"}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jotlit"),
		kong.Description("Timed journaling with writing prompts"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version":       constants.Version,
			"config_path":   constants.DefaultConfigPath,
			"settings_path": constants.DefaultSettingsPath,
		},
	)

	configDir := filepath.Dir(CLI.Settings)
	if err := logger.Init(logger.Config{Debug: CLI.Debug, ConfigDir: configDir}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
	}

	cfg, err := config.Load(CLI.Settings)
	if err != nil {
		jerrors.Fatal(err)
	}

	store, err := cli.OpenStore(CLI.Config)
	if err != nil {
		jerrors.Fatal(err)
	}
	defer store.Close()

	appCtx := cli.NewContext(store, cfg)
	appCtx.ConfigDir = configDir
	appCtx.SettingsPath = CLI.Settings

	if needsLoad(ctx.Command()) {
		if err := store.Load(); err != nil {
			store.Close()
			jerrors.Fatal(err)
		}
	}

	if err := ctx.Run(appCtx); err != nil {
		store.Close()
		jerrors.Fatal(err)
	}
}

func needsLoad(command string) bool {
	first := strings.Fields(command)
	if len(first) == 0 {
		return true
	}
	return !lo.Contains(skipLoad, first[0])
}
