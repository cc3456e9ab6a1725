// internal/application/query/treasure_geo_query.go
package query

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

var (
	ErrGeoQueryNotConfigured = errors.New("geo query: store not configured")
)

// ============================================================
// Service
// ============================================================

// TreasureGeoQuery translates a map viewport into the treasures visible on it.
//
// 結果は集合として扱う（順序は store 依存で保証しない）。
type TreasureGeoQuery struct {
	store   docstore.Store
	timeout time.Duration
	log     zerolog.Logger
}

func NewTreasureGeoQuery(store docstore.Store, timeout time.Duration, logger zerolog.Logger) *TreasureGeoQuery {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &TreasureGeoQuery{
		store:   store,
		timeout: timeout,
		log:     logger.With().Str("component", "geo_query").Logger(),
	}
}

// FetchPublicTreasuresNear returns public treasures of other users inside b,
// excluding owners the viewer blocked or was blocked by.
// viewer 自身の treasure は FetchUserTreasuresNear 側で取得する。
func (q *TreasureGeoQuery) FetchPublicTreasuresNear(ctx context.Context, b treasure.Bounds, viewerID string) ([]treasure.Summary, error) {
	if q == nil || q.store == nil {
		return nil, ErrGeoQueryNotConfigured
	}
	viewerID = strings.TrimSpace(viewerID)
	if err := userdom.ValidateID(viewerID); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	// viewer の block list 読み込みと範囲クエリは互いに独立なので並列に投げる
	var (
		viewer userdom.User
		docs   []docstore.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := q.loadUser(gctx, viewerID)
		if err != nil {
			return err
		}
		viewer = u
		return nil
	})
	g.Go(func() error {
		filters := append(
			[]docstore.Filter{{Field: treasure.FieldIsPublic, Op: docstore.OpEqual, Value: true}},
			q.boundsFilters(b)...,
		)
		res, err := q.store.Query(gctx, treasure.GlobalCollection, filters)
		if err != nil {
			return err
		}
		docs = res
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hidden := viewer.Hidden()
	out := make([]treasure.Summary, 0, len(docs))
	for _, s := range q.decodeInBounds(docs, b) {
		if s.UserID == viewerID {
			continue
		}
		if _, ok := hidden[s.UserID]; ok {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

// FetchUserTreasuresNear returns the owner's own treasures inside b,
// regardless of visibility and without block filtering.
func (q *TreasureGeoQuery) FetchUserTreasuresNear(ctx context.Context, ownerID string, b treasure.Bounds) ([]treasure.Summary, error) {
	if q == nil || q.store == nil {
		return nil, ErrGeoQueryNotConfigured
	}
	ownerID = strings.TrimSpace(ownerID)
	if err := userdom.ValidateID(ownerID); err != nil {
		return nil, err
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, q.timeout)
	defer cancel()

	docs, err := q.store.Query(ctx, treasure.OwnerCollection(ownerID), q.boundsFilters(b))
	if err != nil {
		return nil, err
	}
	return q.decodeInBounds(docs, b), nil
}

// boundsFilters returns the store-side range filters.
// 複数フィールド範囲に対応しない store では緯度だけを store 側で絞り、経度はメモリ上で絞る。
func (q *TreasureGeoQuery) boundsFilters(b treasure.Bounds) []docstore.Filter {
	filters := []docstore.Filter{
		{Field: treasure.FieldLatitude, Op: docstore.OpGreaterEqual, Value: b.MinLat},
		{Field: treasure.FieldLatitude, Op: docstore.OpLessEqual, Value: b.MaxLat},
	}
	if q.store.Capabilities().MultiFieldRange {
		filters = append(filters,
			docstore.Filter{Field: treasure.FieldLongitude, Op: docstore.OpGreaterEqual, Value: b.MinLng},
			docstore.Filter{Field: treasure.FieldLongitude, Op: docstore.OpLessEqual, Value: b.MaxLng},
		)
	}
	return filters
}

// decodeInBounds projects docs to summaries and applies the in-memory bounds check.
// 壊れたドキュメントは地図表示を止めないようにスキップしてログに残す。
func (q *TreasureGeoQuery) decodeInBounds(docs []docstore.Document, b treasure.Bounds) []treasure.Summary {
	out := make([]treasure.Summary, 0, len(docs))
	for _, d := range docs {
		s, err := treasure.DecodeSummary(d)
		if err != nil {
			q.log.Warn().Err(err).Str("path", d.Path).Msg("skip undecodable treasure")
			continue
		}
		if !b.Contains(s.Latitude, s.Longitude) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func (q *TreasureGeoQuery) loadUser(ctx context.Context, uid string) (userdom.User, error) {
	doc, err := q.store.Get(ctx, treasure.UserPath(uid))
	if errors.Is(err, common.ErrNotFound) {
		return userdom.User{ID: uid}, nil
	}
	if err != nil {
		return userdom.User{}, err
	}
	return userdom.Decode(doc)
}
