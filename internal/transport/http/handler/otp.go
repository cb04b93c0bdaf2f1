package handler

import (
	"net/http"

	"github.com/go-chi/render"
	"github.com/runease-api/internal/application/verification"
	"github.com/runease-api/internal/domain"
)

// OTPHandler serves code issuance and verification.
type OTPHandler struct {
	svc verification.Service
}

func NewOTPHandler(svc verification.Service) *OTPHandler { return &OTPHandler{svc: svc} }

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req domain.SendCodeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid request body")
		return
	}
	if err := h.svc.IssueCode(r.Context(), req.Email); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Verification code sent to " + req.Email})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req domain.VerifyCodeRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid request body")
		return
	}
	if err := h.svc.VerifyCode(r.Context(), req.Email, req.Code); err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "Email verified"})
}
