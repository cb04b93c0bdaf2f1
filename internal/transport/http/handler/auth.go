package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/runease-api/internal/application/auth"
	"github.com/runease-api/internal/domain"
)

type AuthHandler struct {
	svc auth.Service
}

func NewAuthHandler(svc auth.Service) *AuthHandler { return &AuthHandler{svc: svc} }

// Login answers 401 for a wrong email or password and 403 while the email is
// still unverified.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid request body")
		return
	}
	sess, err := h.svc.Login(r.Context(), req)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Logged in", Data: sess})
}
