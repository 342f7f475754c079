package status

import "sync"

// Status is the single process-wide turn-taking state.
type Status int

const (
	Idle Status = iota
	Connecting
	Listening
	Thinking
	Speaking
	Error
)

func (s Status) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Connecting:
		return "Connecting"
	case Listening:
		return "Listening"
	case Thinking:
		return "Thinking"
	case Speaking:
		return "Speaking"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Coordinator owns the current Status. Transitions are the only mutator and
// every change fires the onChange notification, so dependent surfaces react
// without polling. The one exception is idle-after-speaking, which the
// session detects by polling the speech output (it exposes no queue-drained
// event).
type Coordinator struct {
	mu       sync.Mutex
	current  Status
	onChange func(Status)
}

// NewCoordinator constructs a Coordinator in Idle. onChange may be nil.
func NewCoordinator(onChange func(Status)) *Coordinator {
	return &Coordinator{current: Idle, onChange: onChange}
}

// Set transitions to s and notifies. Setting the current value is a no-op.
func (c *Coordinator) Set(s Status) {
	c.mu.Lock()
	if c.current == s {
		c.mu.Unlock()
		return
	}
	c.current = s
	notify := c.onChange
	c.mu.Unlock()
	if notify != nil {
		notify(s)
	}
}

// Get returns the current status.
func (c *Coordinator) Get() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// CanStartListening reports whether a new listening session may begin.
// The coordinator itself refuses while the agent is busy; the UI disabling
// its toggle is not the only guard.
func (c *Coordinator) CanStartListening() bool {
	switch c.Get() {
	case Connecting, Thinking, Speaking:
		return false
	default:
		return true
	}
}

// CanSendText reports whether a new text message may be sent.
func (c *Coordinator) CanSendText() bool {
	switch c.Get() {
	case Connecting, Thinking:
		return false
	default:
		return true
	}
}
