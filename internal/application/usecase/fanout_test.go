package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hanami/internal/domain/common"
)

func TestFanout_RunsEverythingAndCollectsFailures(t *testing.T) {
	ctx := context.Background()
	fo := newFanout(3)

	var ran, inflight, peak int32
	for i := 0; i < 12; i++ {
		i := i
		fo.Go(ctx, fmt.Sprintf("X/%d", i), func(context.Context) error {
			n := atomic.AddInt32(&inflight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			time.Sleep(2 * time.Millisecond)
			atomic.AddInt32(&inflight, -1)
			atomic.AddInt32(&ran, 1)
			if i%5 == 0 {
				return common.ErrStoreUnavailable
			}
			return nil
		})
	}
	err := fo.Wait("test")

	assert.Equal(t, int32(12), atomic.LoadInt32(&ran))
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(3))

	var pw *common.PartialWriteError
	require.True(t, errors.As(err, &pw))
	assert.Equal(t, "test", pw.Op)
	assert.ElementsMatch(t, []string{"X/0", "X/5", "X/10"}, pw.FailedPaths())
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, newFanout(0).Wait("noop"))
}

func TestCollapseNotFound(t *testing.T) {
	both := &common.PartialWriteError{Failed: []common.FailedWrite{
		{Path: "a/1", Err: common.NotFoundError("a/1")},
		{Path: "b/1", Err: common.NotFoundError("b/1")},
	}}
	err := collapseNotFound(both, 2, "a/1")
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrPartialWrite)

	one := &common.PartialWriteError{Failed: []common.FailedWrite{
		{Path: "a/1", Err: common.NotFoundError("a/1")},
	}}
	assert.ErrorIs(t, collapseNotFound(one, 2, "a/1"), common.ErrPartialWrite)
}
