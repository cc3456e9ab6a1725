package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/domain/common"
)

func TestPathHelpers(t *testing.T) {
	assert.Equal(t, "Users/u1/Treasures", Join("Users", " u1 ", "", "/Treasures/"))
	assert.Equal(t, "t1", LastSegment("Users/u1/Treasures/t1"))
	assert.Equal(t, "Users/u1/Treasures", Parent("Users/u1/Treasures/t1"))
	assert.Equal(t, "", Parent("Users"))

	assert.True(t, IsDocumentPath("Users/u1"))
	assert.True(t, IsDocumentPath("/AllTreasures/t1/Contents/c1/"))
	assert.False(t, IsDocumentPath("Users"))
	assert.False(t, IsDocumentPath("Users/u1/Treasures"))
	assert.False(t, IsDocumentPath(""))
}

func TestOp_IsRange(t *testing.T) {
	assert.False(t, OpEqual.IsRange())
	for _, op := range []Op{OpLess, OpLessEqual, OpGreater, OpGreaterEqual} {
		assert.True(t, op.IsRange(), op)
	}
}

func TestReader(t *testing.T) {
	ts := time.Date(2024, 4, 1, 0, 0, 0, 0, time.FixedZone("JST", 9*60*60))
	r := NewReader(Document{Path: "X/1", ID: "1", Data: map[string]any{
		"s":     "hello",
		"n":     int64(3),
		"f":     2.5,
		"b":     true,
		"t":     ts,
		"list":  []any{"a", "b"},
		"mixed": []any{"a", int64(1)},
		"nil":   nil,
	}})

	s, err := r.String("s")
	require.NoError(t, err)
	assert.Equal(t, "hello", s)

	opt, err := r.OptString("absent")
	require.NoError(t, err)
	assert.Equal(t, "", opt)
	_, err = r.OptString("n")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	f, err := r.Float("n")
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	n, err := r.Int("n")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	_, err = r.Int("f")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	b, err := r.Bool("b")
	require.NoError(t, err)
	assert.True(t, b)

	tt, err := r.Time("t")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, tt.Location())
	assert.True(t, tt.Equal(ts))

	list, err := r.StringList("list")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, list)

	_, err = r.StringList("mixed")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
	_, err = r.StringList("s")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)

	absent, err := r.StringList("nil")
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = r.String("nil")
	assert.ErrorIs(t, err, common.ErrSchemaMismatch)
}
