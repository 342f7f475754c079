package agent

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/conversation"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/speech"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/status"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/transcript"
)

// drainPollInterval is how often the session checks whether all queued
// speech has finished. The synthesis capability exposes no queue-drained
// event across multiple utterances, so the idle transition is poll-driven.
const drainPollInterval = 250 * time.Millisecond

// Session orchestrates one voice/text conversation: speech input, the model
// response stream, and speech output, with turn-taking enforced by the
// status coordinator. All shared mutable state is funneled through the
// session so async callbacks firing close together cannot interleave badly.
type Session struct {
	store       *transcript.Store
	history     *conversation.History
	coord       *status.Coordinator
	llm         Streamer
	out         speech.Output
	in          speech.Input
	defaultLang string
	onError     func(string)

	mu         sync.Mutex
	listening  bool
	generation int
	drainTimer *time.Timer
	drainGen   int
}

// NewSession constructs a Session around injected speech capabilities and a
// response streamer.
func NewSession(llm Streamer, out speech.Output, in speech.Input, opts Options) *Session {
	if opts.DefaultLanguage == "" {
		opts.DefaultLanguage = "en-US"
	}
	s := &Session{
		llm:         llm,
		out:         out,
		in:          in,
		defaultLang: opts.DefaultLanguage,
		onError:     opts.OnError,
	}
	s.store = transcript.NewStore(opts.OnTranscript)
	s.coord = status.NewCoordinator(opts.OnStatus)
	s.history = conversation.New()
	return s
}

// Status returns the current turn status.
func (s *Session) Status() status.Status { return s.coord.Get() }

// Transcript returns a snapshot of the transcript log.
func (s *Session) Transcript() []transcript.Entry { return s.store.Entries() }

// HistoryLen reports the number of committed conversation turns.
func (s *Session) HistoryLen() int { return s.history.Len() }

func (s *Session) reportError(msg string) {
	log.Printf("session error: %s", msg)
	if s.onError != nil {
		s.onError(msg)
	}
}

// Initialize streams the startup greeting. The greeting prompt itself is
// never persisted; on success the history is seeded with the model turn
// alone so the next request keeps valid alternation.
func (s *Session) Initialize(ctx context.Context) {
	s.coord.Set(status.Connecting)

	prompt := fmt.Sprintf(
		"Introduce yourself as Bolt, the AI assistant for Revolt Motors, and ask how you can help. "+
			"Respond in this language: %s. Your response MUST start with the BCP-47 language code, for example: [%s]Hello...",
		s.defaultLang, s.defaultLang)

	chunks, errc := s.llm.Stream(ctx, []conversation.Turn{{Role: conversation.RoleUser, Text: prompt}})
	full, err := s.processStream(chunks, errc, true)
	if err != nil {
		s.reportError("Failed to initialize Gemini AI.")
		s.coord.Set(status.Error)
		return
	}
	if full != "" {
		s.history.Seed([]conversation.Turn{{Role: conversation.RoleModel, Text: full}})
	}
	s.coord.Set(status.Idle)
}

// ToggleListening stops an active recognition session, or starts a new one
// when the coordinator permits. Starting always preempts queued speech.
func (s *Session) ToggleListening(ctx context.Context) {
	s.mu.Lock()
	listening := s.listening
	s.mu.Unlock()
	if listening {
		s.in.Stop()
		return
	}
	s.startListening(ctx)
}

func (s *Session) startListening(ctx context.Context) {
	if !s.coord.CanStartListening() {
		return
	}
	s.stopDrainCheck()
	s.out.CancelAll()

	s.mu.Lock()
	s.listening = true
	s.generation++
	gen := s.generation
	s.mu.Unlock()

	s.coord.Set(status.Listening)

	cb := speech.InputCallbacks{
		OnInterim: func(text string) {
			if !s.currentGen(gen) {
				return
			}
			s.store.SetInterim(text)
		},
		OnFinal: func(text string) {
			if !s.currentGen(gen) {
				return
			}
			text = strings.TrimSpace(text)
			s.store.ClearInterim()
			if text == "" {
				return
			}
			s.store.AppendUser(text)
			s.respond(ctx, text)
		},
		OnEnded: func() {
			if !s.currentGen(gen) {
				return
			}
			s.mu.Lock()
			s.listening = false
			s.mu.Unlock()
			if s.coord.Get() == status.Listening && !s.out.IsSpeaking() {
				s.coord.Set(status.Idle)
			}
		},
		OnError: func(code string) {
			if speech.Benign(code) {
				return
			}
			if !s.currentGen(gen) {
				return
			}
			s.mu.Lock()
			s.listening = false
			s.mu.Unlock()
			s.reportError("Speech recognition error: " + code)
			s.coord.Set(status.Error)
		},
	}

	if err := s.in.Begin(cb); err != nil {
		s.mu.Lock()
		s.listening = false
		s.mu.Unlock()
		s.reportError("Speech recognition is not available.")
		s.coord.Set(status.Error)
	}
}

// currentGen reports whether gen is still the live recognition generation;
// stray callbacks from a superseded session are dropped.
func (s *Session) currentGen(gen int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.generation
}

// SendTextMessage submits a typed message, preempting any queued speech.
// Refused while the agent is connecting or thinking.
func (s *Session) SendTextMessage(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" || !s.coord.CanSendText() {
		return
	}
	s.stopDrainCheck()
	s.out.CancelAll()
	s.store.AppendUser(text)
	s.respond(ctx, text)
}

// respond runs one model turn: optimistic history append, stream, commit or
// rollback. There is no mechanism to abort the request once issued.
func (s *Session) respond(ctx context.Context, prompt string) {
	s.stopDrainCheck()
	s.coord.Set(status.Thinking)

	s.history.AppendUser(prompt)
	chunks, errc := s.llm.Stream(ctx, s.history.Turns())
	full, err := s.processStream(chunks, errc, false)
	if err != nil || full == "" {
		s.history.RollbackLastUser()
		return
	}
	s.history.AppendModel(full)
}

// scheduleDrainCheck (re)starts the singleton poll that transitions to Idle
// once no queued speech remains. Any previous pending poll is cancelled
// first to avoid duplicate Idle transitions.
func (s *Session) scheduleDrainCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drainTimer != nil {
		s.drainTimer.Stop()
	}
	s.drainGen++
	gen := s.drainGen
	s.drainTimer = time.AfterFunc(drainPollInterval, func() { s.drainCheck(gen) })
}

func (s *Session) drainCheck(gen int) {
	s.mu.Lock()
	if gen != s.drainGen || s.drainTimer == nil {
		s.mu.Unlock()
		return
	}
	if s.out.IsSpeaking() {
		s.drainTimer.Reset(drainPollInterval)
		s.mu.Unlock()
		return
	}
	s.drainTimer = nil
	s.mu.Unlock()
	s.coord.Set(status.Idle)
}

func (s *Session) stopDrainCheck() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.drainTimer != nil {
		s.drainTimer.Stop()
		s.drainTimer = nil
	}
	s.drainGen++
}

// Close tears the session down: pending poll cleared, queued speech
// cancelled, recognition aborted.
func (s *Session) Close() {
	s.stopDrainCheck()
	s.mu.Lock()
	s.generation++
	s.listening = false
	s.mu.Unlock()
	s.out.CancelAll()
	s.in.Abort()
}
