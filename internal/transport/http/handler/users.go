package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/rs/zerolog"
	"github.com/runease-api/internal/application/user"
	"github.com/runease-api/internal/domain"
	"github.com/runease-api/internal/transport/http/middleware"
)

// UserHandler handles registration and account lookup.
type UserHandler struct {
	svc user.Service
}

func NewUserHandler(svc user.Service) *UserHandler { return &UserHandler{svc: svc} }

// Register creates the account. Once the row exists the response is 201 even
// if the first code could not be sent; the reason travels in "code".
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateUserRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "validation_failed", "Invalid request body")
		return
	}
	u, err := h.svc.Register(r.Context(), req)
	if u == nil {
		respondError(w, r, err)
		return
	}
	if err != nil {
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("user_id", u.UserID).Msg("first verification code not sent")
		writeJSON(w, http.StatusCreated, Envelope{
			Success: true,
			Message: "Account created, but the verification email could not be sent. Request a new code.",
			Code:    domain.ReasonCode(err),
			Data:    u,
		})
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{
		Success: true,
		Message: "Account created, check your email for the verification code",
		Data:    u,
	})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ok", Data: u})
}

// Me returns the account behind the bearer token.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid authorization header")
		return
	}
	u, err := h.svc.Get(r.Context(), claims.UserID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ok", Data: u})
}
