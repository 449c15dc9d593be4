package models

import (
	"strings"
	"time"
)

// Entry is one day's journal record. Date is the natural key.
type Entry struct {
	Date      string  `json:"date" yaml:"date"` // YYYY-MM-DD format
	Prompt    string  `json:"prompt" yaml:"prompt"`
	Content   string  `json:"content" yaml:"content"`
	LastSaved *string `json:"lastSaved,omitempty" yaml:"lastSaved,omitempty"` // RFC3339, set on explicit save only
}

// EntryBlob is the versioned layout persisted in the entries slot.
type EntryBlob struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// NewEntry returns an empty entry for the given day.
func NewEntry(date string) Entry {
	return Entry{Date: date}
}

// HasContent reports whether the entry has anything worth persisting.
func (e Entry) HasContent() bool {
	return !IsBlank(e.Content)
}

// MarkSaved stamps LastSaved with the given time.
func (e *Entry) MarkSaved(t time.Time) {
	ts := t.UTC().Format(time.RFC3339)
	e.LastSaved = &ts
}

// PromptPreview truncates the prompt for list display.
func (e Entry) PromptPreview(n int) string {
	if e.Prompt == "" {
		return "No prompt"
	}
	runes := []rune(e.Prompt)
	if len(runes) <= n {
		return e.Prompt
	}
	return string(runes[:n]) + "..."
}

// IsBlank reports whether s is empty after trimming whitespace.
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
