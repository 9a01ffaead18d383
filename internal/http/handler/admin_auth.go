package handler

import (
	"encoding/json"
	"net/http"

	"concierge/internal/auth"
)

type AdminAuthHandler struct {
	Sessions     *auth.Sessions
	PasswordHash string
}

type loginReq struct {
	Password string `json:"password"`
}

func (h *AdminAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if h.PasswordHash == "" || !auth.ComparePassword(h.PasswordHash, req.Password) {
		http.Error(w, "invalid password", http.StatusUnauthorized)
		return
	}

	token, err := h.Sessions.Issue()
	if err != nil {
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, h.Sessions.Cookie(token))
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *AdminAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.Sessions.ClearCookie())
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
}

func (h *AdminAuthHandler) Check(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"authenticated": h.Sessions.Authenticated(r),
	})
}
