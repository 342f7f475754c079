package conversation

import "sync"

// Role tags a turn with its author. Wire values match the model API.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one exchange unit of the conversation history.
type Turn struct {
	Role Role
	Text string
}

// History is the ordered sequence of role-tagged turns resent verbatim to
// the model on every request; the model is stateless between calls. A user
// turn is appended optimistically before the request and rolled back if the
// call fails, so only turns with a successful paired response remain.
type History struct {
	mu    sync.Mutex
	turns []Turn
}

func New() *History { return &History{} }

// AppendUser appends a user turn.
func (h *History) AppendUser(text string) {
	h.mu.Lock()
	h.turns = append(h.turns, Turn{Role: RoleUser, Text: text})
	h.mu.Unlock()
}

// AppendModel appends a model turn.
func (h *History) AppendModel(text string) {
	h.mu.Lock()
	h.turns = append(h.turns, Turn{Role: RoleModel, Text: text})
	h.mu.Unlock()
}

// RollbackLastUser removes the most recently appended turn if it is a user
// turn. Called only immediately after a failed model response; preserves
// alternation for the next request.
func (h *History) RollbackLastUser() {
	h.mu.Lock()
	if n := len(h.turns); n > 0 && h.turns[n-1].Role == RoleUser {
		h.turns = h.turns[:n-1]
	}
	h.mu.Unlock()
}

// Seed replaces the history wholesale. Used once after the greeting turn.
func (h *History) Seed(turns []Turn) {
	h.mu.Lock()
	h.turns = append([]Turn(nil), turns...)
	h.mu.Unlock()
}

// Turns returns a snapshot copy.
func (h *History) Turns() []Turn {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := make([]Turn, len(h.turns))
	copy(snap, h.turns)
	return snap
}

// Len returns the number of turns.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}
