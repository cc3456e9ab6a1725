// internal/adapters/in/http/handlers/user_handler.go
package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hanami/internal/application/query"
	usecase "hanami/internal/application/usecase"
	userdom "hanami/internal/domain/user"
)

// UserHandler は /v1/me（自分のプロフィールと整合性チェック）を担当します。
type UserHandler struct {
	uc    *usecase.UserUsecase
	audit *query.PartitionAuditQuery
}

func NewUserHandler(uc *usecase.UserUsecase, audit *query.PartitionAuditQuery) *UserHandler {
	return &UserHandler{uc: uc, audit: audit}
}

func (h *UserHandler) Routes(r chi.Router) {
	r.Get("/me", h.get)
	r.Patch("/me", h.update)
	r.Get("/me/audit", h.auditPartitions)
}

// GET /v1/me
func (h *UserHandler) get(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	u, err := h.uc.GetByID(r.Context(), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// PATCH /v1/me
func (h *UserHandler) update(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	var in userdom.UpdateProfileInput
	if err := decodeBody(r, &in); err != nil {
		writeErr(w, err)
		return
	}
	u, err := h.uc.UpdateProfile(r.Context(), uid, in)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// GET /v1/me/audit
func (h *UserHandler) auditPartitions(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUID(w, r)
	if !ok {
		return
	}
	a, err := h.audit.Audit(r.Context(), uid)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"audit": a, "consistent": a.Consistent()})
}
