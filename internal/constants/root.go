package constants

import "time"

const (
	AppName             = "jotlit"
	DefaultKeyringUser  = "database-connection"
	DefaultConfigPath   = "~/.config/jotlit/jotlit.db"
	DefaultSettingsPath = "~/.config/jotlit/jotlit.toml"
	Version             = "v0.1.0"

	// DateFormat is the standard date format used throughout the application (YYYY-MM-DD)
	DateFormat = "2006-01-02"

	// EntriesKey is the storage slot holding the serialized entry list.
	EntriesKey = "writingEntries"
	// CorruptEntriesKey receives an unparseable blob before it is overwritten.
	CorruptEntriesKey = EntriesKey + ".corrupt"
	// EntriesBlobVersion is the current version of the persisted entry blob.
	EntriesBlobVersion = 1

	// Session constants
	DefaultAutoSaveInterval = 30 * time.Second
	DefaultTimerMinutes     = 15
	MinTimerMinutes         = 1
	MaxTimerMinutes         = 60
	SessionLockfileName     = "jotlit-session.lock"

	// Prompt constants
	DefaultPromptURL     = "https://api.quotable.io/random"
	DefaultPromptTimeout = 5 * time.Second
	PromptPreviewLength  = 30

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "jotlit-"

	// Notify constants
	NotifierLockfileName   = "jotlit-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.jotlit"
	TrayExecutablePrefix   = "jotlit-tray"
	TimeUpMessage          = "Time's up! Your writing session is complete."
)

// FallbackPrompts is used whenever the remote prompt source fails.
var FallbackPrompts = []string{
	"Write about a childhood memory that still affects you today.",
	"Describe a place you've never been to but would love to visit.",
	"Write a letter to your future self 10 years from now.",
	"What would you do if you had only one month to live?",
	"Describe a person who changed your life.",
	"Write about a skill you wish you had.",
	"What does success mean to you?",
	"Write about a time you faced a difficult decision.",
	"Describe your perfect day from start to finish.",
	"What are three things you're grateful for today and why?",
}
