package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPartialWriteError(t *testing.T) {
	boom := errors.New("boom")
	err := error(&PartialWriteError{
		Op: "saveTreasure",
		Failed: []FailedWrite{
			{Path: "AllTreasures/t1", Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, boom)},
			{Path: "Users/u1/Treasures/t1", Err: NotFoundError("Users/u1/Treasures/t1")},
		},
	})

	assert.ErrorIs(t, err, ErrPartialWrite)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrSchemaMismatch)

	var pw *PartialWriteError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &pw))
	assert.Equal(t, []string{"AllTreasures/t1", "Users/u1/Treasures/t1"}, pw.FailedPaths())
	assert.Contains(t, err.Error(), "2 failed")
	assert.Contains(t, err.Error(), "AllTreasures/t1")
}

func TestSchemaError(t *testing.T) {
	err := SchemaError("AllTreasures/t1", "latitude", "is missing")
	assert.ErrorIs(t, err, ErrSchemaMismatch)
	assert.Contains(t, err.Error(), `"latitude"`)
	assert.Contains(t, err.Error(), "AllTreasures/t1")
}
