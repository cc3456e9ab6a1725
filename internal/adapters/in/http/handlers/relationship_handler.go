// internal/adapters/in/http/handlers/relationship_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	usecase "hanami/internal/application/usecase"
)

// RelationshipHandler は block と favorite を担当します。
type RelationshipHandler struct {
	uc *usecase.RelationshipUsecase
}

func NewRelationshipHandler(uc *usecase.RelationshipUsecase) *RelationshipHandler {
	return &RelationshipHandler{uc: uc}
}

func (h *RelationshipHandler) Routes(r chi.Router) {
	r.Get("/blocks", h.relationships)
	r.Post("/blocks/{uid}", h.block)
	r.Delete("/blocks/{uid}", h.unblock)

	r.Get("/favorites", h.favorites)
	r.Post("/favorites/{tid}", h.addFavorite)
	r.Delete("/favorites/{tid}", h.removeFavorite)
}

// GET /v1/blocks
func (h *RelationshipHandler) relationships(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	rel, err := h.uc.GetRelationships(r.Context(), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rel)
}

// POST /v1/blocks/{uid}
func (h *RelationshipHandler) block(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	if err := h.uc.BlockUser(r.Context(), uid, chi.URLParam(r, "uid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/blocks/{uid}
func (h *RelationshipHandler) unblock(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	if err := h.uc.RemoveBlock(r.Context(), uid, chi.URLParam(r, "uid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/favorites
func (h *RelationshipHandler) favorites(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	ts, err := h.uc.ListFavorites(r.Context(), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"treasures": ts})
}

// POST /v1/favorites/{tid}
func (h *RelationshipHandler) addFavorite(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	if err := h.uc.AddTreasureToFavorites(r.Context(), uid, chi.URLParam(r, "tid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/favorites/{tid}
func (h *RelationshipHandler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	if err := h.uc.RemoveTreasureFromFavorites(r.Context(), uid, chi.URLParam(r, "tid")); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
