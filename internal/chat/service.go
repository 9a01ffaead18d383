package chat

import (
	"context"
	"log/slog"

	"concierge/internal/llm"
	"concierge/internal/memory"
	"concierge/internal/shopify"
	"concierge/internal/store"
)

// extraction fires once the transcript, including the inbound message,
// reaches this many messages.
const extractionThreshold = 4

const historyLimit = 50

type Catalog interface {
	FetchProducts(ctx context.Context, limit int) []shopify.Product
}

type OrderTracker interface {
	TrackOrder(ctx context.Context, identifier string) []shopify.Order
}

type MemoryExtractor interface {
	Extract(ctx context.Context, customerID, conversationID uint64) (int, error)
}

type WorkspaceSync interface {
	SyncCustomer(ctx context.Context, customerID uint64) bool
}

// Service orchestrates one chat turn: identity resolution, context assembly,
// the model call, persistence of both sides of the turn, and the best-effort
// background fan-out.
type Service struct {
	Store     *store.Store
	Memories  *memory.Store
	LLM       llm.Client
	Catalog   Catalog
	Orders    OrderTracker
	Extractor MemoryExtractor
	Workspace WorkspaceSync
	Logger    *slog.Logger
}

// ProcessMessage handles an inbound message and returns the reply text.
// Failures up to and including the model call abort the request; everything
// after the reply is persisted is fire-and-forget.
func (s *Service) ProcessMessage(ctx context.Context, sessionID, message, email, name string) (string, error) {
	customer, created, err := s.Store.GetOrCreateCustomer(ctx, email, name)
	if err != nil {
		return "", err
	}
	if created && s.Workspace != nil {
		go func(id uint64) {
			if !s.Workspace.SyncCustomer(context.Background(), id) {
				s.Logger.Warn("workspace sync skipped", slog.Uint64("customer_id", id))
			}
		}(customer.ID)
	}

	conv, err := s.Store.GetOrCreateConversation(ctx, sessionID, customer.ID)
	if err != nil {
		return "", err
	}

	if _, err := s.Store.AppendMessage(ctx, conv.ID, store.RoleUser, message); err != nil {
		return "", err
	}

	customerContext, err := s.Memories.Summary(ctx, customer.ID)
	if err != nil {
		return "", err
	}
	products := s.Catalog.FetchProducts(ctx, 50)

	if reply, ok := s.shortCircuit(ctx, message, customer); ok {
		if _, err := s.Store.AppendMessage(ctx, conv.ID, store.RoleAssistant, reply); err != nil {
			return "", err
		}
		return reply, nil
	}

	history, err := s.Store.History(ctx, conv.ID, historyLimit)
	if err != nil {
		return "", err
	}
	msgs := make([]llm.Message, 0, len(history))
	for _, m := range history {
		msgs = append(msgs, llm.Message{Role: m.Role, Content: m.Content})
	}

	reply, err := s.LLM.Complete(ctx, buildSystemPrompt(customerContext, products), msgs, 2048)
	if err != nil {
		return "", err
	}

	if _, err := s.Store.AppendMessage(ctx, conv.ID, store.RoleAssistant, reply); err != nil {
		return "", err
	}

	if len(history) >= extractionThreshold {
		go func(customerID, conversationID uint64) {
			if _, err := s.Extractor.Extract(context.Background(), customerID, conversationID); err != nil {
				s.Logger.Error("memory extraction failed",
					slog.Uint64("conversation_id", conversationID), slog.Any("error", err))
			}
		}(customer.ID, conv.ID)
	}

	if err := s.Store.TouchCustomer(ctx, customer.ID); err != nil {
		s.Logger.Error("failed to bump last interaction", slog.Any("error", err))
	}

	if err := s.Store.LogEvent(ctx, "message_processed", customer.ID, conv.ID, map[string]any{
		"message_length":  len(message),
		"response_length": len(reply),
	}); err != nil {
		s.Logger.Error("failed to log analytics event", slog.Any("error", err))
	}

	return reply, nil
}
