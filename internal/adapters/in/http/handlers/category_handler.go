// internal/adapters/in/http/handlers/category_handler.go
package handlers

import (
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	usecase "hanami/internal/application/usecase"
	"hanami/internal/domain/treasure"
)

type CategoryHandler struct {
	uc *usecase.CategoryUsecase
}

func NewCategoryHandler(uc *usecase.CategoryUsecase) *CategoryHandler {
	return &CategoryHandler{uc: uc}
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/categories", h.list)
	r.Post("/categories", h.add)
	r.Put("/categories/{name}", h.rename)
	r.Delete("/categories/{name}", h.delete)
}

// GET /v1/categories[?q=]
func (h *CategoryHandler) list(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	cats, err := h.uc.SearchCategories(r.Context(), uid, r.URL.Query().Get("q"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"categories": cats})
}

type addCategoryRequest struct {
	Name string `json:"name"`
}

// POST /v1/categories
func (h *CategoryHandler) add(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var req addCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.uc.AddCategory(r.Context(), uid, req.Name); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type renameCategoryRequest struct {
	NewName string `json:"newName"`
}

// PUT /v1/categories/{name}
func (h *CategoryHandler) rename(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	name, err := categoryParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req renameCategoryRequest
	if err := decodeBody(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := h.uc.RenameCategory(r.Context(), uid, name, req.NewName); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DELETE /v1/categories/{name}
func (h *CategoryHandler) delete(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	name, err := categoryParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := h.uc.DeleteCategoryAndTreasures(r.Context(), uid, name); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// カテゴリ名は日本語や "%" "/" を含みうるのでパーセントエンコードされて届く。
// デコードはちょうど 1 回: chi は RawPath があればそれでルーティングするので
// URLParam はエンコードされたまま、RawPath が無ければ Path 由来でデコード済み。
func categoryParam(r *http.Request) (string, error) {
	raw := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return raw, nil
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		return "", treasure.ErrInvalidCategory
	}
	return name, nil
}
