package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type chatService interface {
	ProcessMessage(ctx context.Context, sessionID, message, email, name string) (string, error)
}

type ChatHandler struct {
	Svc chatService
}

type chatReq struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	UserEmail string `json:"userEmail"`
	UserName  string `json:"userName"`
}

func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	req.SessionID = strings.TrimSpace(req.SessionID)
	req.Message = strings.TrimSpace(req.Message)
	req.UserEmail = strings.TrimSpace(req.UserEmail)
	if req.SessionID == "" || req.Message == "" || req.UserEmail == "" {
		http.Error(w, "missing required fields", http.StatusBadRequest)
		return
	}

	reply, err := h.Svc.ProcessMessage(r.Context(), req.SessionID, req.Message, req.UserEmail, req.UserName)
	if err != nil {
		http.Error(w, "failed to process message", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"reply": reply})
}
