// internal/adapters/in/http/handlers/treasure_handler.go
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	usecase "hanami/internal/application/usecase"
	"hanami/internal/domain/common"
	"hanami/internal/domain/treasure"
)

// TreasureHandler は /v1/treasures と /v1/public/treasures を担当します。
type TreasureHandler struct {
	uc *usecase.TreasureUsecase
}

func NewTreasureHandler(uc *usecase.TreasureUsecase) *TreasureHandler {
	return &TreasureHandler{uc: uc}
}

func (h *TreasureHandler) Routes(r chi.Router) {
	r.Post("/treasures", h.create)
	r.Get("/treasures", h.list)
	r.Get("/treasures/{id}", h.get)
	r.Patch("/treasures/{id}", h.update)
	r.Delete("/treasures/{id}", h.delete)
	r.Post("/treasures/{id}/contents", h.appendContents)
	r.Get("/public/treasures/{id}", h.getPublic)
}

// POST /v1/treasures
func (h *TreasureHandler) create(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var in usecase.SaveTreasureInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	in.OwnerID = uid

	t, err := h.uc.SaveTreasure(r.Context(), in)
	if err != nil {
		var pw *common.PartialWriteError
		if errors.As(err, &pw) {
			// 採番済み ID を返してクライアント側で再試行・削除できるようにする
			writeJSON(w, http.StatusInternalServerError, map[string]any{
				"error":       err.Error(),
				"failedPaths": pw.FailedPaths(),
				"id":          t.ID,
			})
			return
		}
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// GET /v1/treasures[?category=]
func (h *TreasureHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var (
		ts  []treasure.Treasure
		err error
	)
	if cat := strings.TrimSpace(r.URL.Query().Get("category")); cat != "" {
		ts, err = h.uc.ListTreasuresByCategory(r.Context(), uid, cat)
	} else {
		ts, err = h.uc.ListUserTreasures(r.Context(), uid)
	}
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"treasures": ts})
}

// GET /v1/treasures/{id}
func (h *TreasureHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	t, err := h.uc.FetchTreasure(r.Context(), uid, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// GET /v1/public/treasures/{id}
// 非公開の treasure は所有者以外には 404 として見せる。
func (h *TreasureHandler) getPublic(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	t, err := h.uc.FetchTreasureFromGlobal(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	if !t.IsPublic && t.UserID != uid {
		writeErr(w, common.NotFoundError(treasure.GlobalPath(id)))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type updateTreasureRequest struct {
	Category string `json:"category"`
	IsPublic *bool  `json:"isPublic"`
}

// PATCH /v1/treasures/{id}
func (h *TreasureHandler) update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var req updateTreasureRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if req.IsPublic == nil {
		writeErr(w, errInvalidBody)
		return
	}
	if err := h.uc.UpdateTreasureFields(r.Context(), uid, chi.URLParam(r, "id"), req.Category, *req.IsPublic); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/treasures/{id}
func (h *TreasureHandler) delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	if err := h.uc.DeleteSingleTreasure(r.Context(), uid, chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type appendContentsRequest struct {
	Contents []treasure.Content `json:"contents"`
}

// POST /v1/treasures/{id}/contents
func (h *TreasureHandler) appendContents(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var req appendContentsRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	added, err := h.uc.AppendContents(r.Context(), uid, chi.URLParam(r, "id"), req.Contents)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"contents": added})
}
