// internal/adapters/in/http/handlers/map_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hanami/internal/application/query"
)

// MapHandler serves bounding-box queries for the map view.
type MapHandler struct {
	q *query.TreasureGeoQuery
}

func NewMapHandler(q *query.TreasureGeoQuery) *MapHandler {
	return &MapHandler{q: q}
}

func (h *MapHandler) Routes(r chi.Router) {
	r.Get("/map/public", h.public)
	r.Get("/map/mine", h.mine)
}

// GET /v1/map/public?minLat=&maxLat=&minLng=&maxLng=
func (h *MapHandler) public(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	b, err := parseBounds(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := h.q.FetchPublicTreasuresNear(r.Context(), b, uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"treasures": out})
}

// GET /v1/map/mine?minLat=&maxLat=&minLng=&maxLng=
func (h *MapHandler) mine(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	b, err := parseBounds(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	out, err := h.q.FetchUserTreasuresNear(r.Context(), uid, b)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"treasures": out})
}
