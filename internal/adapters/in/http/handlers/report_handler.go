// internal/adapters/in/http/handlers/report_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	usecase "hanami/internal/application/usecase"
)

type ReportHandler struct {
	uc *usecase.ReportUsecase
}

func NewReportHandler(uc *usecase.ReportUsecase) *ReportHandler {
	return &ReportHandler{uc: uc}
}

func (h *ReportHandler) Routes(r chi.Router) {
	r.Post("/reports", h.create)
}

type reportRequest struct {
	TreasureID string `json:"treasureID"`
	Reason     string `json:"reason"`
}

// POST /v1/reports
func (h *ReportHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var req reportRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	rep, err := h.uc.ReportTreasure(r.Context(), uid, req.TreasureID, req.Reason)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rep)
}
