// Package speech defines the capability interfaces for the platform speech
// synthesis and recognition singletons, so the core pipeline is testable
// without a real browser.
package speech

// Recognition error codes treated as benign: they occur routinely on ambient
// silence or intentional cancellation and must not surface to the user.
const (
	ErrNoSpeech = "no-speech"
	ErrAborted  = "aborted"
)

// Benign reports whether a recognition error code is silently ignorable.
func Benign(code string) bool {
	return code == ErrNoSpeech || code == ErrAborted
}

// Output wraps the platform speech-synthesis capability. Utterances play in
// enqueue order on a queue owned entirely by the platform; the driver issues
// requests but never reorders or cancels individual items except via
// CancelAll.
type Output interface {
	// Enqueue hands text to the voice queue tagged with a BCP-47 language.
	// onStart, if non-nil, fires once when this utterance's audio begins.
	Enqueue(text, lang string, onStart func())
	// CancelAll stops current and clears pending speech immediately.
	CancelAll()
	// IsSpeaking is a point-in-time check of the global speaking state.
	IsSpeaking() bool
}

// InputCallbacks receives events from one recognition session.
type InputCallbacks struct {
	OnInterim func(text string)
	OnFinal   func(text string)
	OnEnded   func()
	OnError   func(code string)
}

// Input wraps the platform speech-recognition capability. A session is
// single-shot: it ends after one utterance pause and must be restarted by
// the caller's own listening toggle.
type Input interface {
	Begin(cb InputCallbacks) error
	// Stop ends the session gracefully, letting a pending final result land.
	Stop()
	// Abort tears the session down discarding any pending result.
	Abort()
}
