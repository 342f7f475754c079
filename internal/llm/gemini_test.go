package llm

import (
	"context"
	"testing"
	"time"

	"github.com/gracesfrankness-cloud/bolt-ai-assistant/internal/conversation"
)

func TestNew_NoKey(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := New(ctx, "", "gemini-2.5-flash"); err == nil {
		t.Fatalf("expected error with missing key")
	}
}

func TestContentsFromTurns_RolesAndOrder(t *testing.T) {
	turns := []conversation.Turn{
		{Role: conversation.RoleModel, Text: "[en-US]Hi, I am Bolt."},
		{Role: conversation.RoleUser, Text: "Tell me about the RV400."},
	}
	contents := contentsFromTurns(turns)
	if len(contents) != 2 {
		t.Fatalf("expected 2 contents, got %d", len(contents))
	}
	if string(contents[0].Role) != "model" || string(contents[1].Role) != "user" {
		t.Fatalf("unexpected roles: %q %q", contents[0].Role, contents[1].Role)
	}
	if len(contents[1].Parts) != 1 || contents[1].Parts[0].Text != "Tell me about the RV400." {
		t.Fatalf("turn text not carried: %+v", contents[1].Parts)
	}
}
