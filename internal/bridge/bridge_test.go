package bridge

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/speech"
)

// dialTestBridge upgrades a loopback socket and returns both ends.
func dialTestBridge(t *testing.T) (*Bridge, *websocket.Conn) {
	t.Helper()
	ready := make(chan *Bridge, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		b := New(conn)
		ready <- b
		b.Run()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	b := <-ready
	t.Cleanup(func() { b.Close() })
	return b, client
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestBridge_EnqueueAndSpeechStarted(t *testing.T) {
	b, client := dialTestBridge(t)

	started := make(chan struct{})
	b.Enqueue("Hello there.", "en-US", func() { close(started) })

	f := readFrame(t, client)
	if f.Type != "speak" || f.Text != "Hello there." || f.Lang != "en-US" || f.UtteranceID == "" {
		t.Fatalf("unexpected speak frame: %+v", f)
	}
	if !b.IsSpeaking() {
		t.Fatalf("expected optimistic speaking state after enqueue")
	}

	if err := client.WriteJSON(frame{Type: "speech-started", UtteranceID: f.UtteranceID}); err != nil {
		t.Fatalf("write: %v", err)
	}
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatalf("onStart never fired")
	}

	if err := client.WriteJSON(frame{Type: "speaking", Active: false}); err != nil {
		t.Fatalf("write: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && b.IsSpeaking() {
		time.Sleep(5 * time.Millisecond)
	}
	if b.IsSpeaking() {
		t.Fatalf("speaking state not cleared by client report")
	}
}

func TestBridge_CancelAllClearsPending(t *testing.T) {
	b, client := dialTestBridge(t)

	started := make(chan struct{}, 1)
	b.Enqueue("One.", "en-US", func() { started <- struct{}{} })
	f := readFrame(t, client)

	b.CancelAll()
	if cf := readFrame(t, client); cf.Type != "cancel-speech" {
		t.Fatalf("expected cancel-speech frame, got %+v", cf)
	}
	if b.IsSpeaking() {
		t.Fatalf("cancel must clear speaking state")
	}

	// A late start report for a cancelled utterance must not fire onStart.
	client.WriteJSON(frame{Type: "speech-started", UtteranceID: f.UtteranceID})
	select {
	case <-started:
		t.Fatalf("onStart fired for cancelled utterance")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestBridge_RecognitionEventDispatch(t *testing.T) {
	b, client := dialTestBridge(t)

	var mu sync.Mutex
	var interim, final, errCode string
	ended := false
	b.Begin(speech.InputCallbacks{
		OnInterim: func(s string) { mu.Lock(); interim = s; mu.Unlock() },
		OnFinal:   func(s string) { mu.Lock(); final = s; mu.Unlock() },
		OnEnded:   func() { mu.Lock(); ended = true; mu.Unlock() },
		OnError:   func(c string) { mu.Lock(); errCode = c; mu.Unlock() },
	})
	if f := readFrame(t, client); f.Type != "listen-start" {
		t.Fatalf("expected listen-start, got %+v", f)
	}

	client.WriteJSON(frame{Type: "interim", Text: "hel"})
	client.WriteJSON(frame{Type: "final", Text: "hello"})
	client.WriteJSON(frame{Type: "recognition-error", Code: speech.ErrNoSpeech})
	client.WriteJSON(frame{Type: "listen-ended"})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		done := ended
		mu.Unlock()
		if done {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if interim != "hel" || final != "hello" || errCode != speech.ErrNoSpeech || !ended {
		t.Fatalf("dispatch mismatch: interim=%q final=%q err=%q ended=%v", interim, final, errCode, ended)
	}
}

func TestBridge_UserActionDispatch(t *testing.T) {
	b, client := dialTestBridge(t)

	toggled := make(chan struct{}, 1)
	sent := make(chan string, 1)
	b.Wire(func() { toggled <- struct{}{} }, func(s string) { sent <- s })

	client.WriteJSON(frame{Type: "toggle-listening"})
	client.WriteJSON(frame{Type: "send-text", Text: "tell me about the RV400"})

	select {
	case <-toggled:
	case <-time.After(2 * time.Second):
		t.Fatalf("toggle action never dispatched")
	}
	select {
	case msg := <-sent:
		if msg != "tell me about the RV400" {
			t.Fatalf("unexpected text: %q", msg)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("send-text action never dispatched")
	}
}
