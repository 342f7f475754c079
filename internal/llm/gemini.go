package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/conversation"
)

// SystemInstruction pins the assistant persona and the reply contract: topic
// locked to Revolt Motors, emphasis restricted to paired double-asterisks,
// and a mandatory leading BCP-47 language tag in square brackets.
const SystemInstruction = "You are Bolt, a knowledgeable AI assistant for Revolt Motors, an electric motorcycle company. Your one and only purpose is to discuss Revolt Motors. You ONLY talk about Revolt Motors. You must be friendly, concise, and conversational. Formulate your answers naturally, as if you are speaking directly to the user. Your responses will be read aloud by a text-to-speech engine, so structure them for clear speech. Do not spell out punctuation. To emphasize something, enclose the word or phrase in double asterisks, like **this**. Do not use any other markdown. For example, write 'The **RV400** is our most popular model.' Do not say things like 'According to my sources' or cite web pages. Simply provide the information conversationally. Answer questions about their bikes, features, pricing, models, test rides, and the booking process. You must detect the user's language and respond ONLY in that same language. At the very beginning of your response, you MUST include the BCP-47 language code for the language you are using, enclosed in square brackets. For example: `[en-US]Hello! How can I help you with Revolt Motors today?` or `[es-ES]¡Hola! ¿Cómo puedo ayudarte con Revolt Motors hoy?`. This is a strict requirement. If a user asks about RattanIndia Enterprises, you must state its relation with Revolt Motors in a single line, and then pivot back to discussing Revolt Motors products. If a user asks about anything else other than Revolt Motors—including other companies, places, or any other topic—you MUST politely refuse to answer. State clearly that your expertise is limited to Revolt Motors. Do not answer any off-topic questions under any circumstances. Revolt Motors should be your only thought and response."

// Client streams responses from the Gemini API.
type Client struct {
	genai *genai.Client
	model string
}

// New constructs a Client. The API key is required.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key missing")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{genai: gc, model: model}, nil
}

// contentsFromTurns converts the client-owned history into the request shape
// consumed verbatim by the model on every call.
func contentsFromTurns(turns []conversation.Turn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := genai.Role(genai.RoleUser)
		if t.Role == conversation.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(t.Text, role))
	}
	return contents
}

// Stream sends the full history plus the fixed system instruction and emits
// incremental text fragments. Extended thinking is disabled to keep first
// audio latency low. The text channel closes on stream completion; a stream
// failure is delivered on the error channel.
func (c *Client) Stream(ctx context.Context, turns []conversation.Turn) (<-chan string, <-chan error) {
	textCh := make(chan string, 16)
	errCh := make(chan error, 1)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(SystemInstruction, genai.RoleUser),
		ThinkingConfig:    &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	contents := contentsFromTurns(turns)

	go func() {
		defer close(textCh)
		defer close(errCh)
		for resp, err := range c.genai.Models.GenerateContentStream(ctx, c.model, contents, cfg) {
			if err != nil {
				errCh <- fmt.Errorf("gemini stream: %w", err)
				return
			}
			if txt := resp.Text(); txt != "" {
				select {
				case textCh <- txt:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
	}()

	return textCh, errCh
}
