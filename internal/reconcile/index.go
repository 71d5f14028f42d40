package reconcile

import (
	"strings"

	"github.com/ppiankov/rtrarchive/internal/model"
)

// ArchiveEntry is one archivable document
type ArchiveEntry struct {
	Key string // <urn-short-name>_<label with spaces as underscores>
	URL string
}

// ArchiveIndex maps archive keys to document URLs. Keys keep the position
// of their first insertion; a later Add for the same key replaces the URL.
type ArchiveIndex struct {
	order []string
	urls  map[string]string
}

// NewArchiveIndex creates an empty index
func NewArchiveIndex() *ArchiveIndex {
	return &ArchiveIndex{urls: make(map[string]string)}
}

// ArchiveKey synthesizes the key for an activity short name and effective label
func ArchiveKey(urnShortName, label string) string {
	return urnShortName + "_" + strings.ReplaceAll(label, " ", "_")
}

// Add records href under the key for urnShortName and label. Objects
// labelled with the null sentinel are never indexed; Add reports whether
// the entry was stored.
func (x *ArchiveIndex) Add(urnShortName, label, href string) bool {
	if label == model.LabelNull {
		return false
	}

	key := ArchiveKey(urnShortName, label)
	if _, exists := x.urls[key]; !exists {
		x.order = append(x.order, key)
	}
	x.urls[key] = href
	return true
}

// Entries returns all entries in insertion order
func (x *ArchiveIndex) Entries() []ArchiveEntry {
	entries := make([]ArchiveEntry, 0, len(x.order))
	for _, key := range x.order {
		entries = append(entries, ArchiveEntry{Key: key, URL: x.urls[key]})
	}
	return entries
}

// Len returns the number of indexed documents
func (x *ArchiveIndex) Len() int {
	return len(x.order)
}
