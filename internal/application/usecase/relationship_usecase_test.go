package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/adapters/out/memstore"
	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

func newRelationshipUC(t *testing.T) (*RelationshipUsecase, *TreasureUsecase, *memstore.Store) {
	t.Helper()
	tuc, s := newTreasureUC(t)
	return NewRelationshipUsecase(s, tuc, testOptions()), tuc, s
}

func TestBlockUser_RoundTrip(t *testing.T) {
	ctx := context.Background()
	ruc, _, _ := newRelationshipUC(t)

	require.NoError(t, ruc.BlockUser(ctx, "u1", "u2"))

	r1, err := ruc.GetRelationships(ctx, "u1")
	require.NoError(t, err)
	r2, err := ruc.GetRelationships(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, r1.BlockList)
	assert.Empty(t, r1.WasBlockedByList)
	assert.Equal(t, []string{"u1"}, r2.WasBlockedByList)

	// 冪等
	require.NoError(t, ruc.BlockUser(ctx, "u1", "u2"))
	r1, err = ruc.GetRelationships(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u2"}, r1.BlockList)

	require.NoError(t, ruc.RemoveBlock(ctx, "u1", "u2"))
	r1, err = ruc.GetRelationships(ctx, "u1")
	require.NoError(t, err)
	r2, err = ruc.GetRelationships(ctx, "u2")
	require.NoError(t, err)
	assert.Empty(t, r1.BlockList)
	assert.Empty(t, r2.WasBlockedByList)
	assert.NotNil(t, r1.BlockList)
}

func TestBlockUser_Errors(t *testing.T) {
	ctx := context.Background()
	ruc, _, s := newRelationshipUC(t)

	assert.ErrorIs(t, ruc.BlockUser(ctx, "u1", "u1"), userdom.ErrSelfBlock)
	assert.ErrorIs(t, ruc.BlockUser(ctx, "u1", ""), userdom.ErrInvalidID)

	// batch は全体で失敗し、片方だけ書かれることはない
	s.SetFault(failOn(memstore.MethodCommit, "Users/u2"))
	assert.ErrorIs(t, ruc.BlockUser(ctx, "u1", "u2"), common.ErrStoreUnavailable)
	s.SetFault(nil)

	r1, err := ruc.GetRelationships(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, r1.BlockList)
}

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	ruc, tuc, _ := newRelationshipUC(t)

	pub := mustSave(t, tuc, saveInput("u1", "花見", true))
	priv := mustSave(t, tuc, saveInput("u1", "花見", false))
	blocked := mustSave(t, tuc, saveInput("u3", "花見", true))
	mine := mustSave(t, tuc, saveInput("u2", "花見", false))
	gone := mustSave(t, tuc, saveInput("u1", "花見", true))

	for _, id := range []string{pub.ID, priv.ID, blocked.ID, mine.ID, gone.ID, pub.ID} {
		require.NoError(t, ruc.AddTreasureToFavorites(ctx, "u2", id))
	}
	require.NoError(t, ruc.BlockUser(ctx, "u2", "u3"))
	require.NoError(t, tuc.DeleteSingleTreasure(ctx, "u1", gone.ID))

	favs, err := ruc.ListFavorites(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{pub.ID, mine.ID}, ids(favs))

	require.NoError(t, ruc.RemoveTreasureFromFavorites(ctx, "u2", pub.ID))
	favs, err = ruc.ListFavorites(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{mine.ID}, ids(favs))

	empty, err := ruc.ListFavorites(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	assert.Error(t, ruc.AddTreasureToFavorites(ctx, "u2", "a/b"))
}

func TestListFavorites_ReadFailures(t *testing.T) {
	ctx := context.Background()
	ruc, tuc, s := newRelationshipUC(t)

	good := mustSave(t, tuc, saveInput("u1", "花見", true))
	broken := mustSave(t, tuc, saveInput("u1", "花見", true))
	for _, id := range []string{good.ID, broken.ID} {
		require.NoError(t, ruc.AddTreasureToFavorites(ctx, "u2", id))
	}
	require.NoError(t, s.Update(ctx, treasure.GlobalPath(broken.ID), []docstore.FieldUpdate{
		{Field: treasure.FieldLatitude, Value: "north"},
	}))

	// 壊れたドキュメントは飛ばす
	favs, err := ruc.ListFavorites(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, []string{good.ID}, ids(favs))

	// 読み込み失敗は書き込み失敗として報告しない
	s.SetFault(failOn(memstore.MethodGet, treasure.GlobalPath(good.ID)))
	_, err = ruc.ListFavorites(ctx, "u2")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrPartialWrite)
}
