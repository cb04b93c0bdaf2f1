package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/runease-api/internal/application/statistics"
)

type StatisticsHandler struct {
	svc statistics.Service
}

func NewStatisticsHandler(svc statistics.Service) *StatisticsHandler {
	return &StatisticsHandler{svc: svc}
}

func (h *StatisticsHandler) ForAthlete(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.ForAthlete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "ok", Data: stats})
}
