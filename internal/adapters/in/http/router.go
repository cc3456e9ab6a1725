// internal/adapters/in/http/router.go
package httpin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"hanami/internal/adapters/in/http/handlers"
	"hanami/internal/adapters/in/http/middleware"
	"hanami/internal/application/query"
	usecase "hanami/internal/application/usecase"
)

// RouterDeps collects all usecases (and other dependencies) injected from main.go.
type RouterDeps struct {
	TreasureUC     *usecase.TreasureUsecase
	CategoryUC     *usecase.CategoryUsecase
	RelationshipUC *usecase.RelationshipUsecase
	ReportUC       *usecase.ReportUsecase
	UserUC         *usecase.UserUsecase

	GeoQuery   *query.TreasureGeoQuery
	AuditQuery *query.PartitionAuditQuery

	Auth       *middleware.UserAuthMiddleware
	CORSOrigin string
	Logger     zerolog.Logger

	// Health is called by /healthz. nil なら常に ok。
	Health func(r *http.Request) error
}

// NewRouter builds the HTTP handler.
//
// チェーン順: CORS（最外） → Recover → RequestID → AccessLog → Auth（/v1 のみ）
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CORS(deps.CORSOrigin))
	r.Use(middleware.Recover(deps.Logger))
	r.Use(chimw.RequestID)
	r.Use(middleware.AccessLog(deps.Logger))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Health != nil {
			if err := deps.Health(req); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("unavailable"))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Route("/v1", func(v1 chi.Router) {
		if deps.Auth != nil {
			v1.Use(deps.Auth.Handler)
		}
		handlers.NewTreasureHandler(deps.TreasureUC).Routes(v1)
		handlers.NewMapHandler(deps.GeoQuery).Routes(v1)
		handlers.NewCategoryHandler(deps.CategoryUC).Routes(v1)
		handlers.NewRelationshipHandler(deps.RelationshipUC).Routes(v1)
		handlers.NewReportHandler(deps.ReportUC).Routes(v1)
		handlers.NewUserHandler(deps.UserUC, deps.AuditQuery).Routes(v1)
	})

	return r
}
