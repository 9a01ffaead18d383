package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"concierge/internal/llm"
	"concierge/internal/store"
)

const extractPrompt = `Analyze this customer conversation and extract key facts to remember about this customer.

Format your response as a JSON array of memories, each with:
- type: "preference", "fact", "purchase_intent", "concern", or "goal"
- key: short description (e.g., "budget", "lifestyle")
- value: the actual information
- confidence: 0.0 to 1.0

Conversation:
%s

Return ONLY the JSON array, no other text.`

type transcriptSource interface {
	History(ctx context.Context, conversationID uint64, limit int) ([]store.Message, error)
}

// Extractor turns a conversation transcript into stored memories via the
// language model. It runs off the request path; every failure degrades to
// "no memories found".
type Extractor struct {
	LLM      llm.Client
	Memories *Store
	Messages transcriptSource
	Logger   *slog.Logger
}

type extracted struct {
	Type       string  `json:"type"`
	Key        string  `json:"key"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Extract reads the conversation's full history, asks the model for a JSON
// array of durable facts, and persists each one tagged as an AI extraction.
// An empty conversation or a malformed model reply yields zero memories with
// no side effect.
func (e *Extractor) Extract(ctx context.Context, customerID, conversationID uint64) (int, error) {
	msgs, err := e.Messages.History(ctx, conversationID, 0)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}

	lines := make([]string, 0, len(msgs))
	for _, m := range msgs {
		lines = append(lines, m.Role+": "+m.Content)
	}
	transcript := strings.Join(lines, "\n")

	reply, err := e.LLM.Complete(ctx, "", []llm.Message{
		{Role: store.RoleUser, Content: fmt.Sprintf(extractPrompt, transcript)},
	}, 1024)
	if err != nil {
		return 0, err
	}

	var records []extracted
	if err := json.Unmarshal([]byte(stripCodeFence(reply)), &records); err != nil {
		e.Logger.Error("failed to parse extraction reply", slog.Any("error", err))
		return 0, nil
	}

	stored := 0
	for _, rec := range records {
		if rec.Type == "" || rec.Key == "" {
			continue
		}
		confidence := rec.Confidence
		if confidence == 0 {
			confidence = 0.8
		}
		err := e.Memories.Upsert(ctx, customerID, rec.Type, rec.Key, rec.Value, UpsertOptions{
			Confidence: confidence,
			Source:     SourceAIExtraction,
			Metadata:   map[string]any{"conversation_id": conversationID},
		})
		if err != nil {
			e.Logger.Error("failed to store extracted memory",
				slog.String("key", rec.Key), slog.Any("error", err))
			continue
		}
		stored++
	}
	return stored, nil
}

// Models often wrap JSON in a markdown fence despite instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
