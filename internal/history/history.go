// Package history persists the viewer's recent rooms and remembered
// identity between runs, the way the web viewer keeps them in browser
// local storage.
package history

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// MaxEntries caps the join history length.
const MaxEntries = 5

// Entry is one remembered room, most recent first.
type Entry struct {
	Name      string `json:"name"`
	RoomID    string `json:"roomId"`
	Timestamp int64  `json:"timestamp"`
}

// Identity is the viewer name/email announced on join, remembered so a
// reconnect can re-send the same info.
type Identity struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type fileFormat struct {
	Viewer Identity `json:"viewer"`
	Rooms  []Entry  `json:"rooms"`
}

// Store reads and writes the history file.
type Store struct {
	path string
}

// NewStore creates a store at the default location under the user
// config directory.
func NewStore() (*Store, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return nil, fmt.Errorf("resolve config dir: %w", err)
	}
	return NewStoreAt(filepath.Join(dir, "eagleview", "history.json")), nil
}

// NewStoreAt creates a store backed by an explicit file path.
func NewStoreAt(path string) *Store {
	return &Store{path: path}
}

// Load reads the history file. A missing or unreadable file yields an
// empty history, never an error: history is a convenience, not state
// the program depends on.
func (s *Store) Load() (Identity, []Entry) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Identity{}, nil
	}
	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return Identity{}, nil
	}
	return f.Viewer, f.Rooms
}

// Save writes the history file, creating parent directories as needed.
func (s *Store) Save(viewer Identity, rooms []Entry) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(fileFormat{Viewer: viewer, Rooms: rooms}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0644)
}

// Add records a joined room at the head of the history, de-duplicating
// by room ID and trimming to MaxEntries. When publisherName is empty a
// placeholder derived from the room ID is used.
func (s *Store) Add(roomID, publisherName string) error {
	if roomID == "" {
		return nil
	}

	name := publisherName
	if name == "" {
		short := roomID
		if len(short) > 8 {
			short = short[:8]
		}
		name = "Stream " + short
	}

	viewer, rooms := s.Load()

	filtered := rooms[:0]
	for _, e := range rooms {
		if e.RoomID != roomID {
			filtered = append(filtered, e)
		}
	}

	rooms = append([]Entry{{
		Name:      name,
		RoomID:    roomID,
		Timestamp: time.Now().UnixMilli(),
	}}, filtered...)

	if len(rooms) > MaxEntries {
		rooms = rooms[:MaxEntries]
	}

	return s.Save(viewer, rooms)
}

// Remove deletes one room from the history.
func (s *Store) Remove(roomID string) error {
	viewer, rooms := s.Load()
	filtered := rooms[:0]
	for _, e := range rooms {
		if e.RoomID != roomID {
			filtered = append(filtered, e)
		}
	}
	return s.Save(viewer, filtered)
}

// RememberIdentity stores the viewer name/email for future joins.
func (s *Store) RememberIdentity(id Identity) error {
	_, rooms := s.Load()
	return s.Save(id, rooms)
}
