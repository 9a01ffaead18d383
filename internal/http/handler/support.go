package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"concierge/internal/store"
	"concierge/internal/support"
)

type ticketService interface {
	Create(ctx context.Context, customerID, conversationID uint64, in support.TicketInput) (support.TicketResult, error)
}

type SupportHandler struct {
	Svc ticketService
}

type ticketReq struct {
	CustomerID     uint64 `json:"customerId"`
	ConversationID uint64 `json:"conversationId"`
	Subject        string `json:"subject"`
	Description    string `json:"description"`
	Type           string `json:"type"`
	Priority       string `json:"priority"`
}

func (h *SupportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ticketReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.Subject = strings.TrimSpace(req.Subject)
	req.Description = strings.TrimSpace(req.Description)
	if req.CustomerID == 0 || req.Subject == "" || req.Description == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	res, err := h.Svc.Create(r.Context(), req.CustomerID, req.ConversationID, support.TicketInput{
		Subject:     req.Subject,
		Description: req.Description,
		Type:        req.Type,
		Priority:    req.Priority,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to create support ticket", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(res)
}
