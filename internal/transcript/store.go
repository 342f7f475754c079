package transcript

import (
	"sync"

	"github.com/google/uuid"
)

// Source identifies who produced a transcript entry.
type Source string

const (
	SourceUser  Source = "user"
	SourceModel Source = "model"
)

// InterimID is the reserved id of the single live interim user entry. It is
// replaced wholesale on every recognition update, never duplicated.
const InterimID = "user-interim"

// Placeholder is shown for a model entry whose language tag has not resolved
// yet; raw partial text containing a half-received tag must never be shown.
const Placeholder = "…"

// Entry is one line of the on-screen transcript.
type Entry struct {
	ID     string
	Source Source
	Text   string
}

// Store is an ordered append/replace log of transcript entries. All mutation
// happens under a single mutex; every mutation notifies the onUpdate observer
// with a defensive copy so render surfaces never share the backing slice.
type Store struct {
	mu       sync.Mutex
	entries  []Entry
	onUpdate func([]Entry)
}

// NewStore constructs a Store. onUpdate may be nil.
func NewStore(onUpdate func([]Entry)) *Store {
	return &Store{onUpdate: onUpdate}
}

func (s *Store) notifyLocked() {
	if s.onUpdate == nil {
		return
	}
	snap := make([]Entry, len(s.entries))
	copy(snap, s.entries)
	s.onUpdate(snap)
}

func (s *Store) removeInterimLocked() {
	for i, e := range s.entries {
		if e.ID == InterimID {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

// SetInterim replaces the live interim user entry with the given text,
// appending it at the tail. Consecutive calls never leave two interim entries.
func (s *Store) SetInterim(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeInterimLocked()
	s.entries = append(s.entries, Entry{ID: InterimID, Source: SourceUser, Text: text})
	s.notifyLocked()
}

// ClearInterim removes the interim entry if present.
func (s *Store) ClearInterim() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeInterimLocked()
	s.notifyLocked()
}

// AppendUser commits a permanent user entry and returns its id.
func (s *Store) AppendUser(text string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "user-" + uuid.NewString()
	s.entries = append(s.entries, Entry{ID: id, Source: SourceUser, Text: text})
	s.notifyLocked()
	return id
}

// StartModelEntry appends a fresh model entry showing the placeholder and
// returns its id. Used for the greeting turn, which always gets its own entry.
func (s *Store) StartModelEntry() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := "model-" + uuid.NewString()
	s.entries = append(s.entries, Entry{ID: id, Source: SourceModel, Text: Placeholder})
	s.notifyLocked()
	return id
}

// EnsureTrailingModelEntry appends a placeholder model entry only when the
// trailing entry is not already a model entry.
func (s *Store) EnsureTrailingModelEntry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n := len(s.entries); n > 0 && s.entries[n-1].Source == SourceModel {
		return
	}
	id := "model-" + uuid.NewString()
	s.entries = append(s.entries, Entry{ID: id, Source: SourceModel, Text: Placeholder})
	s.notifyLocked()
}

// SetModelText mutates the trailing model entry's text in place while its
// response stream is live. No-op if the tail is not a model entry.
func (s *Store) SetModelText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	if n == 0 || s.entries[n-1].Source != SourceModel {
		return
	}
	s.entries[n-1].Text = text
	s.notifyLocked()
}

// Entries returns a snapshot copy of the log.
func (s *Store) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := make([]Entry, len(s.entries))
	copy(snap, s.entries)
	return snap
}
