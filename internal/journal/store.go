// Package journal persists one entry per calendar day in a storage slot.
package journal

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"github.com/julianstephens/jotlit/internal/constants"
	jerrors "github.com/julianstephens/jotlit/internal/errors"
	"github.com/julianstephens/jotlit/internal/logger"
	"github.com/julianstephens/jotlit/internal/models"
	"github.com/julianstephens/jotlit/internal/storage"
)

// Store is the entry collection kept under a single slot key. All reads and
// writes of the slot go through one Store per process.
type Store struct {
	slot storage.Slot
	mu   sync.Mutex
}

func NewStore(slot storage.Slot) *Store {
	return &Store{slot: slot}
}

// LoadAll returns every entry, newest date first. A missing slot yields an
// empty list. A corrupt slot also yields an empty list and logs a warning.
func (s *Store) LoadAll() []models.Entry {
	entries, err := s.Entries()
	if err != nil {
		logger.Warn("Could not read saved entries", "error", err)
		return []models.Entry{}
	}
	return entries
}

// Entries is LoadAll that reports why the collection could not be read.
// Parse failures wrap ErrStorageParse.
func (s *Store) Entries() ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.slot.Get(constants.EntriesKey)
	if err != nil {
		return []models.Entry{}, fmt.Errorf("failed to read entries: %w", err)
	}
	if !ok {
		return []models.Entry{}, nil
	}

	entries, err := decode(raw)
	if err != nil {
		return []models.Entry{}, err
	}
	sortNewestFirst(entries)
	return entries, nil
}

// FindByDate returns the entry for date, if one is stored.
func (s *Store) FindByDate(date string) (models.Entry, bool) {
	return lo.Find(s.LoadAll(), func(e models.Entry) bool {
		return e.Date == date
	})
}

// Upsert replaces the stored entry with the same date or appends a new one,
// then writes the whole collection back. Write failures wrap ErrStorageWrite
// and leave the stored collection unchanged.
func (s *Store) Upsert(entry models.Entry) error {
	if _, err := time.Parse(constants.DateFormat, entry.Date); err != nil {
		return fmt.Errorf("invalid entry date %q: %w", entry.Date, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.slot.Get(constants.EntriesKey)
	if err != nil {
		return fmt.Errorf("%w: %v", jerrors.ErrStorageWrite, err)
	}

	var entries []models.Entry
	if ok {
		entries, err = decode(raw)
		if err != nil {
			if qerr := s.quarantine(raw); qerr != nil {
				return fmt.Errorf("%w: %v", jerrors.ErrStorageWrite, qerr)
			}
			logger.Warn("Replacing unreadable entries", "error", err, "backup_key", constants.CorruptEntriesKey)
			entries = nil
		}
	}

	if _, idx, found := lo.FindIndexOf(entries, func(e models.Entry) bool {
		return e.Date == entry.Date
	}); found {
		entries[idx] = entry
	} else {
		entries = append(entries, entry)
	}

	data, err := encode(entries)
	if err != nil {
		return fmt.Errorf("%w: %v", jerrors.ErrStorageWrite, err)
	}
	if err := s.slot.Set(constants.EntriesKey, data); err != nil {
		return fmt.Errorf("%w: %v", jerrors.ErrStorageWrite, err)
	}

	logger.Debug("Entry saved", "date", entry.Date, "entries", len(entries))
	return nil
}

// quarantine copies an unreadable blob aside before it is first overwritten.
// An existing quarantine copy is never replaced.
func (s *Store) quarantine(raw string) error {
	if _, exists, err := s.slot.Get(constants.CorruptEntriesKey); err != nil {
		return err
	} else if exists {
		return nil
	}
	return s.slot.Set(constants.CorruptEntriesKey, raw)
}

func decode(raw string) ([]models.Entry, error) {
	trimmed := strings.TrimSpace(raw)

	// Unversioned layout: a bare array of entries.
	if strings.HasPrefix(trimmed, "[") {
		var entries []models.Entry
		if err := json.Unmarshal([]byte(trimmed), &entries); err != nil {
			return nil, fmt.Errorf("%w: %v", jerrors.ErrStorageParse, err)
		}
		return entries, nil
	}

	var blob models.EntryBlob
	if err := json.Unmarshal([]byte(trimmed), &blob); err != nil {
		return nil, fmt.Errorf("%w: %v", jerrors.ErrStorageParse, err)
	}
	if blob.Version < 1 || blob.Version > constants.EntriesBlobVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", jerrors.ErrStorageParse, blob.Version)
	}
	if blob.Entries == nil {
		blob.Entries = []models.Entry{}
	}
	return blob.Entries, nil
}

func encode(entries []models.Entry) (string, error) {
	if entries == nil {
		entries = []models.Entry{}
	}
	data, err := json.Marshal(models.EntryBlob{
		Version: constants.EntriesBlobVersion,
		Entries: entries,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Dates are YYYY-MM-DD, so string order is calendar order.
func sortNewestFirst(entries []models.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date > entries[j].Date
	})
}
