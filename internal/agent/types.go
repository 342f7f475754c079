package agent

import (
	"context"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/conversation"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/status"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/transcript"
)

// Streamer produces an incremental response stream for a conversation
// history. The text channel closes on completion; a mid-stream failure is
// delivered on the error channel.
type Streamer interface {
	Stream(ctx context.Context, turns []conversation.Turn) (<-chan string, <-chan error)
}

// Options configures a Session.
type Options struct {
	// DefaultLanguage is the ambient locale used when the model reply never
	// resolves a language tag (stand-in for navigator.language).
	DefaultLanguage string
	// OnTranscript receives a snapshot after every transcript mutation.
	OnTranscript func([]transcript.Entry)
	// OnStatus receives every turn-status change.
	OnStatus func(status.Status)
	// OnError receives user-visible error messages.
	OnError func(message string)
}
