// internal/application/usecase/fanout.go
package usecase

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"hanami/internal/domain/common"
)

// fanout runs independent store calls in parallel and waits for all of them
// (join barrier). 最初の失敗でキャンセルはしない: 全件を最後まで実行し、
// 失敗した path をすべて集めて 1 つの PartialWriteError にまとめる。
type fanout struct {
	g      errgroup.Group
	mu     sync.Mutex
	failed []common.FailedWrite
}

func newFanout(limit int) *fanout {
	f := &fanout{}
	if limit > 0 {
		f.g.SetLimit(limit)
	}
	return f
}

// Go schedules fn for path. fn の戻り値は集約されるだけで他のタスクを止めない。
func (f *fanout) Go(ctx context.Context, path string, fn func(ctx context.Context) error) {
	f.g.Go(func() error {
		if err := fn(ctx); err != nil {
			f.mu.Lock()
			f.failed = append(f.failed, common.FailedWrite{Path: path, Err: err})
			f.mu.Unlock()
		}
		return nil
	})
}

// Wait blocks until every scheduled call has settled.
func (f *fanout) Wait(op string) error {
	_ = f.g.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.failed) == 0 {
		return nil
	}
	failed := make([]common.FailedWrite, len(f.failed))
	copy(failed, f.failed)
	return &common.PartialWriteError{Op: op, Failed: failed}
}
