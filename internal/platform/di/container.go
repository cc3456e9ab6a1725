// internal/platform/di/container.go
package di

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	httpin "hanami/internal/adapters/in/http"
	"hanami/internal/adapters/in/http/middleware"
	"hanami/internal/adapters/out/cache"
	fsrepo "hanami/internal/adapters/out/firestore"
	"hanami/internal/adapters/out/gcs"
	"hanami/internal/adapters/out/mail"
	"hanami/internal/adapters/out/memstore"
	"hanami/internal/application/query"
	usecase "hanami/internal/application/usecase"
	"hanami/internal/domain/docstore"
	appcfg "hanami/internal/infra/config"
	"hanami/internal/platform/di/shared"
)

// Container は main.go から使う依存オブジェクトの束。
// main.go を極限まで薄くするためにここで全部つなぐ。
type Container struct {
	Store docstore.Store

	TreasureUC     *usecase.TreasureUsecase
	CategoryUC     *usecase.CategoryUsecase
	RelationshipUC *usecase.RelationshipUsecase
	ReportUC       *usecase.ReportUsecase
	UserUC         *usecase.UserUsecase
	GeoQuery       *query.TreasureGeoQuery
	AuditQuery     *query.PartitionAuditQuery

	Router http.Handler

	infra *shared.Infra
}

// Close は Cloud Run 終了時などに呼んで安全にリソースを閉じる。
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	return c.infra.Close()
}

// NewContainer builds every dependency for cfg.StoreBackend.
func NewContainer(ctx context.Context, cfg *appcfg.Config, logger zerolog.Logger) (*Container, error) {
	c := &Container{}

	var (
		media usecase.MediaCleaner
		auth  = &middleware.UserAuthMiddleware{Disabled: cfg.AuthDisabled, Logger: logger}
	)

	// ------------------------------------------------------------
	// 1. Store backend
	// ------------------------------------------------------------
	switch cfg.StoreBackend {
	case appcfg.BackendMemory:
		c.Store = memstore.New(memstore.WithMultiFieldRange(cfg.FirestoreMultiRange))
		logger.Warn().Str("component", "di").Msg("using in-memory store; data is lost on exit")
	case appcfg.BackendFirestore:
		inf, err := shared.NewInfra(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		c.infra = inf
		c.Store = fsrepo.NewDocStoreFS(inf.Firestore.Client, cfg.FirestoreMultiRange)
		if inf.GCS != nil {
			media = gcs.NewMediaRepositoryGCS(inf.GCS, cfg.MediaBucket, logger)
		}
		if inf.FirebaseAuth != nil {
			auth.Verifier = inf.FirebaseAuth
		}
	default:
		return nil, fmt.Errorf("di: unknown store backend %q", cfg.StoreBackend)
	}

	// ------------------------------------------------------------
	// 2. Usecases
	// ------------------------------------------------------------
	opts := usecase.Options{
		OpTimeout:   cfg.OpTimeout,
		FanoutLimit: cfg.FanoutLimit,
		Logger:      logger,
	}

	c.TreasureUC = usecase.NewTreasureUsecase(c.Store, opts)
	if media != nil {
		c.TreasureUC.WithMediaCleaner(media)
	}
	treasureCache, err := cache.NewTreasureCacheLRU(cfg.TreasureCacheSize)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("di: treasure cache: %w", err)
	}
	if treasureCache != nil {
		c.TreasureUC.WithCache(treasureCache)
	}

	var notifier usecase.ReportNotifier
	if n := mail.NewReportNotifierWithSendGrid(cfg.SendGridAPIKey, cfg.SendGridFrom, cfg.ReportTo, logger); n != nil {
		notifier = n
	}

	c.CategoryUC = usecase.NewCategoryUsecase(c.TreasureUC, opts)
	c.RelationshipUC = usecase.NewRelationshipUsecase(c.Store, c.TreasureUC, opts)
	c.ReportUC = usecase.NewReportUsecase(c.Store, c.TreasureUC, notifier, opts)
	c.UserUC = usecase.NewUserUsecase(c.Store, opts)
	c.GeoQuery = query.NewTreasureGeoQuery(c.Store, cfg.OpTimeout, logger)
	c.AuditQuery = query.NewPartitionAuditQuery(c.Store, 0)

	// ------------------------------------------------------------
	// 3. HTTP
	// ------------------------------------------------------------
	c.Router = httpin.NewRouter(httpin.RouterDeps{
		TreasureUC:     c.TreasureUC,
		CategoryUC:     c.CategoryUC,
		RelationshipUC: c.RelationshipUC,
		ReportUC:       c.ReportUC,
		UserUC:         c.UserUC,
		GeoQuery:       c.GeoQuery,
		AuditQuery:     c.AuditQuery,
		Auth:           auth,
		CORSOrigin:     cfg.CORSOrigin,
		Logger:         logger,
		Health: func(r *http.Request) error {
			if c.infra == nil {
				return nil
			}
			return c.infra.Firestore.Ping(r.Context())
		},
	})

	return c, nil
}
