package firestore

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

func TestRelPath(t *testing.T) {
	assert.Equal(t, "Users/u1/Treasures/t1",
		relPath("projects/hanami/databases/(default)/documents/Users/u1/Treasures/t1"))
	assert.Equal(t, "AllTreasures/t1", relPath("AllTreasures/t1"))
}

func TestClassify(t *testing.T) {
	full := "projects/hanami/databases/(default)/documents/AllTreasures/t1"

	assert.NoError(t, classify(full, nil))

	err := classify(full, status.Error(codes.NotFound, "no doc"))
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Contains(t, err.Error(), "AllTreasures/t1")
	assert.NotContains(t, err.Error(), "projects/")

	for _, c := range []codes.Code{codes.Unavailable, codes.DeadlineExceeded, codes.PermissionDenied, codes.ResourceExhausted} {
		assert.ErrorIs(t, classify(full, status.Error(c, "x")), common.ErrStoreUnavailable, c.String())
	}

	err = classify(full, fmt.Errorf("wrapped: %w", context.DeadlineExceeded))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	other := errors.New("boom")
	err = classify(full, other)
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrNotFound)
}

func TestToUpdates(t *testing.T) {
	ups := toUpdates([]docstore.FieldUpdate{{Field: "category", Value: "花見"}, {Field: "isPublic", Value: false}})
	assert.Len(t, ups, 2)
	assert.Equal(t, "category", ups[0].Path)
	assert.Equal(t, false, ups[1].Value)
}

func TestDocStoreFS_NilClient(t *testing.T) {
	var r *DocStoreFS
	assert.False(t, r.Capabilities().MultiFieldRange)
	assert.ErrorIs(t, r.Commit(context.Background(), []docstore.WriteOp{{Path: "a/b"}}), ErrDocStoreFSInvalid)

	_, err := NewDocStoreFS(nil, true).Get(context.Background(), "Users/u1")
	assert.Error(t, err)
	assert.ErrorIs(t, r.Merge(context.Background(), "Users/u1", map[string]any{"userName": "x"}), ErrDocStoreFSInvalid)
}
