// Package bridge projects the browser's speech capabilities across a
// WebSocket. The browser owns the real recognition/synthesis objects; this
// side issues capability requests and mirrors the events back into the
// injected callback interfaces.
package bridge

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/speech"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/status"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/transcript"
)

// Upgrader is shared by all session sockets.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// Allow any origin for demo use; restrict in production
		return true
	},
}

// frame is the single wire message format, both directions.
// Server -> client types: "speak", "cancel-speech", "listen-start",
// "listen-stop", "listen-abort", "transcript", "status", "error".
// Client -> server types: "speech-started", "speaking", "interim", "final",
// "listen-ended", "recognition-error", "toggle-listening", "send-text".
type frame struct {
	Type        string     `json:"type"`
	UtteranceID string     `json:"utteranceId,omitempty"`
	Text        string     `json:"text,omitempty"`
	Lang        string     `json:"lang,omitempty"`
	Active      bool       `json:"active,omitempty"`
	Code        string     `json:"code,omitempty"`
	Message     string     `json:"message,omitempty"`
	Status      string     `json:"status,omitempty"`
	Entries     []wireItem `json:"entries,omitempty"`
}

type wireItem struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Text   string `json:"text"`
}

// Bridge implements speech.Output and speech.Input against one connected
// browser peer, and pushes transcript/status/error frames to it.
type Bridge struct {
	conn    *websocket.Conn
	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[string]func() // utterance id -> armed onStart
	speaking bool
	cb       speech.InputCallbacks
	hasCB    bool

	onToggle   func()
	onSendText func(text string)
}

// New wraps an upgraded connection.
func New(conn *websocket.Conn) *Bridge {
	return &Bridge{conn: conn, pending: map[string]func(){}}
}

// Wire registers the handlers for user actions arriving over the socket.
func (b *Bridge) Wire(onToggle func(), onSendText func(string)) {
	b.mu.Lock()
	b.onToggle = onToggle
	b.onSendText = onSendText
	b.mu.Unlock()
}

func (b *Bridge) write(f frame) {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if err := b.conn.WriteJSON(f); err != nil {
		log.Printf("bridge write error: %v", err)
	}
}

// Enqueue sends one utterance to the browser's synthesis queue. The speaking
// flag flips on optimistically so the idle poll cannot observe a false gap
// before the client's first speaking report arrives.
func (b *Bridge) Enqueue(text, lang string, onStart func()) {
	id := uuid.NewString()
	b.mu.Lock()
	if onStart != nil {
		b.pending[id] = onStart
	}
	b.speaking = true
	b.mu.Unlock()
	b.write(frame{Type: "speak", UtteranceID: id, Text: text, Lang: lang})
}

// CancelAll stops current and clears pending speech on the client.
func (b *Bridge) CancelAll() {
	b.mu.Lock()
	b.pending = map[string]func(){}
	b.speaking = false
	b.mu.Unlock()
	b.write(frame{Type: "cancel-speech"})
}

// IsSpeaking reports the last known synthesis state.
func (b *Bridge) IsSpeaking() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.speaking
}

// Begin asks the browser to start one single-shot recognition session.
func (b *Bridge) Begin(cb speech.InputCallbacks) error {
	b.mu.Lock()
	b.cb = cb
	b.hasCB = true
	b.mu.Unlock()
	b.write(frame{Type: "listen-start"})
	return nil
}

// Stop ends the session gracefully (a pending final result may still land).
func (b *Bridge) Stop() { b.write(frame{Type: "listen-stop"}) }

// Abort tears the session down, discarding any pending result.
func (b *Bridge) Abort() { b.write(frame{Type: "listen-abort"}) }

// PushTranscript mirrors a transcript snapshot to the client.
func (b *Bridge) PushTranscript(entries []transcript.Entry) {
	items := make([]wireItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, wireItem{ID: e.ID, Source: string(e.Source), Text: e.Text})
	}
	b.write(frame{Type: "transcript", Entries: items})
}

// PushStatus mirrors a turn-status change to the client.
func (b *Bridge) PushStatus(s status.Status) {
	b.write(frame{Type: "status", Status: s.String()})
}

// PushError surfaces a user-visible error message to the client.
func (b *Bridge) PushError(msg string) {
	b.write(frame{Type: "error", Message: msg})
}

func (b *Bridge) callbacks() (speech.InputCallbacks, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cb, b.hasCB
}

// Run reads client frames until the socket closes, dispatching speech events
// into the registered callbacks and user actions into the wired handlers.
func (b *Bridge) Run() {
	for {
		_, data, err := b.conn.ReadMessage()
		if err != nil {
			log.Printf("bridge read ended: %v", err)
			return
		}
		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("bridge: invalid frame: %v", err)
			continue
		}
		b.dispatch(f)
	}
}

func (b *Bridge) dispatch(f frame) {
	switch f.Type {
	case "speech-started":
		b.mu.Lock()
		onStart := b.pending[f.UtteranceID]
		delete(b.pending, f.UtteranceID)
		b.speaking = true
		b.mu.Unlock()
		if onStart != nil {
			onStart()
		}
	case "speaking":
		b.mu.Lock()
		b.speaking = f.Active
		b.mu.Unlock()
	case "interim":
		if cb, ok := b.callbacks(); ok && cb.OnInterim != nil {
			cb.OnInterim(f.Text)
		}
	case "final":
		// A final transcript starts a model turn that blocks until the
		// response stream ends; it must not stall the read loop, which still
		// has to deliver speech-started and speaking frames meanwhile.
		if cb, ok := b.callbacks(); ok && cb.OnFinal != nil {
			go cb.OnFinal(f.Text)
		}
	case "listen-ended":
		if cb, ok := b.callbacks(); ok && cb.OnEnded != nil {
			cb.OnEnded()
		}
	case "recognition-error":
		if cb, ok := b.callbacks(); ok && cb.OnError != nil {
			cb.OnError(f.Code)
		}
	case "toggle-listening":
		b.mu.Lock()
		onToggle := b.onToggle
		b.mu.Unlock()
		if onToggle != nil {
			go onToggle()
		}
	case "send-text":
		b.mu.Lock()
		onSend := b.onSendText
		b.mu.Unlock()
		if onSend != nil {
			go onSend(f.Text)
		}
	default:
		log.Printf("bridge: unknown frame type %q", f.Type)
	}
}

// Close closes the underlying connection.
func (b *Bridge) Close() error { return b.conn.Close() }
