package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/adapters/out/memstore"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
	userdom "hanami/internal/domain/user"
)

func TestPartitionAudit_Consistent(t *testing.T) {
	s := memstore.New()
	seedMap(t, s)

	a, err := NewPartitionAuditQuery(s, 0).Audit(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, a.Checked)
	assert.True(t, a.Consistent())

	none, err := NewPartitionAuditQuery(s, 0).Audit(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Equal(t, 0, none.Checked)
	assert.True(t, none.Consistent())
}

func TestPartitionAudit_Divergence(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	seedMap(t, s)
	seed(t, s, treasure.Treasure{ID: "p6", UserID: "u1", IsPublic: true, Latitude: 1, Longitude: 1})
	seed(t, s, treasure.Treasure{ID: "p7", UserID: "u1", IsPublic: true, Latitude: 1, Longitude: 1})

	require.NoError(t, s.Delete(ctx, treasure.GlobalPath("p1")))
	require.NoError(t, s.Delete(ctx, treasure.OwnerPath("u1", "p2")))
	require.NoError(t, s.Update(ctx, treasure.GlobalPath("p6"), []docstore.FieldUpdate{
		{Field: treasure.FieldCategory, Value: "カフェ"},
	}))
	require.NoError(t, s.ArrayRemove(ctx, treasure.UserPath("u1"), userdom.FieldTreasureList, "p7"))
	require.NoError(t, s.ArrayUnion(ctx, treasure.UserPath("u1"), userdom.FieldTreasureList, "ghost"))

	a, err := NewPartitionAuditQuery(s, 0).Audit(ctx, "u1")
	require.NoError(t, err)

	assert.False(t, a.Consistent())
	assert.Equal(t, 3, a.Checked)
	assert.Equal(t, []string{"p1"}, a.MissingGlobal)
	assert.Equal(t, []string{"p2"}, a.MissingOwner)
	assert.Equal(t, []string{"p6"}, a.Diverged)
	assert.Equal(t, []string{"p7"}, a.NotListed)
	assert.ElementsMatch(t, []string{"ghost", "p2"}, a.Dangling)
}

func TestPartitionAudit_InvalidOwner(t *testing.T) {
	_, err := NewPartitionAuditQuery(memstore.New(), 0).Audit(context.Background(), "")
	assert.ErrorIs(t, err, userdom.ErrInvalidID)
}
