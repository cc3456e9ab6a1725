package query

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/adapters/out/memstore"
	"hanami/internal/domain/common"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

var tokyo = treasure.Bounds{MinLat: 35.0, MaxLat: 36.0, MinLng: 139.0, MaxLng: 140.0}

// seed writes t to both partitions, the same way the treasure usecase does.
func seed(t *testing.T, s *memstore.Store, tr treasure.Treasure) {
	t.Helper()
	ctx := context.Background()
	tr.CreatedTime = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	if tr.Category == "" {
		tr.Category = "花見"
	}
	for _, p := range treasure.Partitions(tr.UserID, tr.ID) {
		require.NoError(t, s.Set(ctx, p, treasure.ToFields(tr)))
	}
	require.NoError(t, s.ArrayUnion(ctx, treasure.UserPath(tr.UserID), userdom.FieldTreasureList, tr.ID))
}

func seedMap(t *testing.T, s *memstore.Store) {
	seed(t, s, treasure.Treasure{ID: "p1", UserID: "u1", IsPublic: true, Latitude: 35.5, Longitude: 139.5})
	seed(t, s, treasure.Treasure{ID: "p2", UserID: "u1", IsPublic: false, Latitude: 35.6, Longitude: 139.6})
	seed(t, s, treasure.Treasure{ID: "p3", UserID: "u2", IsPublic: true, Latitude: 10.0, Longitude: 10.0})
	// 緯度は範囲内だが経度が範囲外
	seed(t, s, treasure.Treasure{ID: "p4", UserID: "u2", IsPublic: true, Latitude: 35.5, Longitude: 141.0})
	// 境界上は含む
	seed(t, s, treasure.Treasure{ID: "p5", UserID: "u2", IsPublic: true, Latitude: 36.0, Longitude: 139.0})
}

func summaryIDs(xs []treasure.Summary) []string {
	out := make([]string, 0, len(xs))
	for _, x := range xs {
		out = append(out, x.ID)
	}
	return out
}

func TestFetchPublicTreasuresNear(t *testing.T) {
	for _, multi := range []bool{true, false} {
		s := memstore.New(memstore.WithMultiFieldRange(multi))
		seedMap(t, s)
		q := NewTreasureGeoQuery(s, time.Second, zerolog.Nop())
		ctx := context.Background()

		got, err := q.FetchPublicTreasuresNear(ctx, tokyo, "u3")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p1", "p5"}, summaryIDs(got), "multiRange=%v", multi)

		// 自分の treasure は含めない
		got, err = q.FetchPublicTreasuresNear(ctx, tokyo, "u1")
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p5"}, summaryIDs(got), "multiRange=%v", multi)
	}
}

func TestFetchPublicTreasuresNear_BlockFiltering(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seedMap(t, s)
	q := NewTreasureGeoQuery(s, time.Second, zerolog.Nop())

	// u3 が u1 をブロック
	require.NoError(t, s.ArrayUnion(ctx, treasure.UserPath("u3"), userdom.FieldBlockList, "u1"))
	got, err := q.FetchPublicTreasuresNear(ctx, tokyo, "u3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p5"}, summaryIDs(got))

	// u4 は u2 にブロックされている
	require.NoError(t, s.ArrayUnion(ctx, treasure.UserPath("u4"), userdom.FieldWasBlockedByList, "u2"))
	got, err = q.FetchPublicTreasuresNear(ctx, tokyo, "u4")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1"}, summaryIDs(got))
}

func TestFetchUserTreasuresNear(t *testing.T) {
	for _, multi := range []bool{true, false} {
		s := memstore.New(memstore.WithMultiFieldRange(multi))
		seedMap(t, s)
		q := NewTreasureGeoQuery(s, time.Second, zerolog.Nop())

		got, err := q.FetchUserTreasuresNear(context.Background(), "u1", tokyo)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{"p1", "p2"}, summaryIDs(got), "multiRange=%v", multi)

		got, err = q.FetchUserTreasuresNear(context.Background(), "u1", treasure.Bounds{MinLat: 0, MaxLat: 1, MinLng: 0, MaxLng: 1})
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestGeoQuery_SkipsUndecodable(t *testing.T) {
	ctx := context.Background()
	s := memstore.New(memstore.WithMultiFieldRange(false))
	seedMap(t, s)
	require.NoError(t, s.Set(ctx, treasure.GlobalPath("broken"), map[string]any{
		treasure.FieldIsPublic: true,
		treasure.FieldLatitude: 35.5,
		// longitude / userID が欠落
	}))
	q := NewTreasureGeoQuery(s, time.Second, zerolog.Nop())

	got, err := q.FetchPublicTreasuresNear(ctx, tokyo, "u3")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"p1", "p5"}, summaryIDs(got))
}

func TestGeoQuery_Errors(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	q := NewTreasureGeoQuery(s, 0, zerolog.Nop())

	_, err := q.FetchPublicTreasuresNear(ctx, treasure.Bounds{MinLat: 1, MaxLat: 0, MinLng: 0, MaxLng: 1}, "u1")
	assert.ErrorIs(t, err, treasure.ErrInvalidBounds)

	_, err = q.FetchUserTreasuresNear(ctx, "u1", treasure.Bounds{MinLat: 0, MaxLat: 1, MinLng: 170, MaxLng: -170})
	assert.ErrorIs(t, err, treasure.ErrInvalidBounds)

	_, err = q.FetchUserTreasuresNear(ctx, "", tokyo)
	assert.ErrorIs(t, err, userdom.ErrInvalidID)

	s.SetFault(func(method, _ string) error {
		if method == memstore.MethodQuery {
			return common.ErrStoreUnavailable
		}
		return nil
	})
	_, err = q.FetchPublicTreasuresNear(ctx, tokyo, "u1")
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)

	var nilQ *TreasureGeoQuery
	_, err = nilQ.FetchUserTreasuresNear(ctx, "u1", tokyo)
	assert.ErrorIs(t, err, ErrGeoQueryNotConfigured)
}
