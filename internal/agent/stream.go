package agent

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/status"
	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/transcript"
)

// langTagRE matches the bracketed BCP-47 tag the model is contractually
// required to prefix onto its reply, anchored at the very start.
var langTagRE = regexp.MustCompile(`^\[([a-zA-Z0-9-]+)\]`)

// langFallbackLen is the accumulation threshold past which, with no '[' seen
// anywhere, the language falls back to the ambient default. Known
// approximation: a legitimate '[' early in the reply suppresses the fallback
// until a tag match or stream end.
const langFallbackLen = 20

// sentenceTerminators are the characters that complete a speakable sentence.
const sentenceTerminators = ".!?"

// stripEmphasis removes paired double-asterisk emphasis markers, keeping the
// contents, so they are never spoken aloud.
func stripEmphasis(s string) string {
	return strings.ReplaceAll(s, "**", "")
}

// streamState is the transient per-response state owned by one processStream
// call and discarded on completion or failure.
type streamState struct {
	raw              string // everything received; committed to history
	display          string // post-tag text shown in the transcript
	sentenceBuf      string // post-tag text not yet handed to speech
	langCode         string
	langResolved     bool
	firstChunkSpoken bool
}

// processStream consumes the model's incremental text stream: it detects the
// leading language tag, renders partial text into the trailing transcript
// entry, and hands completed sentences to speech output as soon as terminal
// punctuation appears. It returns the full raw accumulated text for the
// history commit, or an error when the stream failed (nothing is committed).
func (s *Session) processStream(chunks <-chan string, errc <-chan error, isGreeting bool) (string, error) {
	st := &streamState{}

	if isGreeting {
		s.store.StartModelEntry()
	} else {
		s.store.EnsureTrailingModelEntry()
	}

	for chunks != nil || errc != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			s.consumeChunk(st, chunk)
		case err, ok := <-errc:
			if !ok {
				errc = nil
				continue
			}
			if err != nil {
				s.reportError("Failed to stream response from AI.")
				s.coord.Set(status.Error)
				return "", fmt.Errorf("response stream: %w", err)
			}
		}
	}

	s.flushRemainder(st)
	s.scheduleDrainCheck()
	return st.raw, nil
}

// consumeChunk runs the per-chunk algorithm: accumulate raw, resolve the
// language once, extend display and sentence buffers, update the transcript,
// and drain any completed sentences.
func (s *Session) consumeChunk(st *streamState, chunk string) {
	st.raw += chunk

	if !st.langResolved {
		if m := langTagRE.FindStringSubmatch(st.raw); m != nil {
			st.langCode = m[1]
			st.langResolved = true
			afterTag := st.raw[len(m[0]):]
			st.display = afterTag
			st.sentenceBuf = afterTag
		} else if len(st.raw) > langFallbackLen && !strings.Contains(st.raw, "[") {
			st.langCode = s.defaultLang
			st.langResolved = true
			st.display = st.raw
			st.sentenceBuf = st.raw
		}
	} else {
		st.display += chunk
		st.sentenceBuf += chunk
	}

	if st.langResolved {
		s.store.SetModelText(st.display)
	} else {
		s.store.SetModelText(transcript.Placeholder)
		return
	}

	s.drainSentences(st)
}

// drainSentences slices completed sentences off the front of the buffer and
// hands each to speech output tagged with the resolved language. The first
// hand-off arms a one-shot callback that flips the coordinator to Speaking
// when audio actually begins.
func (s *Session) drainSentences(st *streamState) {
	for {
		idx := strings.IndexAny(st.sentenceBuf, sentenceTerminators)
		if idx < 0 {
			return
		}
		sentence := strings.TrimSpace(st.sentenceBuf[:idx+1])
		st.sentenceBuf = st.sentenceBuf[idx+1:]
		s.speak(st, sentence, st.langCode)
	}
}

// flushRemainder speaks any leftover buffer content after stream end, even
// without terminal punctuation, picking the fallback language when the tag
// never resolved.
func (s *Session) flushRemainder(st *streamState) {
	remaining := strings.TrimSpace(st.sentenceBuf)
	st.sentenceBuf = ""
	lang := st.langCode
	if !st.langResolved {
		// The tag never arrived and the length fallback never fired, so
		// nothing reached the sentence buffer: the whole reply still sits
		// in raw. Speak it with the ambient default.
		remaining = strings.TrimSpace(st.raw)
		lang = s.defaultLang
	}
	if remaining == "" {
		return
	}
	s.speak(st, remaining, lang)
}

func (s *Session) speak(st *streamState, text, lang string) {
	spoken := strings.TrimSpace(stripEmphasis(text))
	if spoken == "" {
		return
	}
	var onStart func()
	if !st.firstChunkSpoken {
		st.firstChunkSpoken = true
		onStart = func() { s.coord.Set(status.Speaking) }
	}
	s.out.Enqueue(spoken, lang, onStart)
}
