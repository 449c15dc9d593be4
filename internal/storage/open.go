package storage

import (
	"path/filepath"
	"strings"

	"github.com/julianstephens/jotlit/internal/storage/postgres"
	"github.com/julianstephens/jotlit/internal/storage/sqlite"
)

// Open returns the Slot backend named by config without touching disk or
// network. Callers follow up with Init or Load.
func Open(config string) Slot {
	switch {
	case config == ":memory:":
		return NewMemoryStore()
	case postgres.IsConnString(config):
		return postgres.New(config)
	case strings.EqualFold(filepath.Ext(config), ".json"):
		return NewJSONStore(config)
	default:
		return sqlite.NewStore(config)
	}
}

// Backend names the kind of store config points at.
func Backend(config string) string {
	switch Open(config).(type) {
	case *MemoryStore:
		return "memory"
	case *postgres.Store:
		return "postgres"
	case *JSONStore:
		return "json"
	default:
		return "sqlite"
	}
}
