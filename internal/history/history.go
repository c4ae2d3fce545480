package history

import (
	"encoding/json"
	"os"
	"time"

	"github.com/PAPAMICA/wallix-ssh/internal/log"
	"github.com/PAPAMICA/wallix-ssh/internal/model"
)

// maxEntries caps the history file at the last 10 connections.
const maxEntries = 10

// Entry is one recorded connection, newest first in the file. Display
// fields are denormalized so history renders without a directory fetch.
type Entry struct {
	Name        string    `json:"device_name"`
	Host        string    `json:"host"`
	Services    []string  `json:"services"`
	Tags        []string  `json:"tags"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

// Store persists the connection history as a JSON array. Like the cache it
// is advisory: every I/O or parse failure is logged and swallowed.
type Store struct {
	path string
	now  func() time.Time
}

func New(path string) *Store {
	return &Store{path: path, now: time.Now}
}

// Record notes a connection attempt to the device. An existing entry for
// the same device moves to the front instead of duplicating; the list is
// trimmed to the newest ten.
func (s *Store) Record(d model.Device) {
	entries := s.List()

	kept := make([]Entry, 0, len(entries)+1)
	kept = append(kept, Entry{
		Name:        d.Name,
		Host:        d.Host,
		Services:    d.Services,
		Tags:        model.TagStrings(d.Tags),
		Description: d.Description,
		Timestamp:   s.now(),
	})
	for _, e := range entries {
		if e.Name != d.Name {
			kept = append(kept, e)
		}
	}
	if len(kept) > maxEntries {
		kept = kept[:maxEntries]
	}

	data, err := json.MarshalIndent(kept, "", "  ")
	if err != nil {
		log.Error("Error updating history", "error", err)
		return
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		log.Error("Error updating history", "error", err)
	}
}

// List returns the history newest-first, or nothing when the file is
// absent or unreadable.
func (s *Store) List() []Entry {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Error("Error reading history", "error", err)
		}
		return nil
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		log.Error("Error reading history", "error", err)
		return nil
	}
	return entries
}
