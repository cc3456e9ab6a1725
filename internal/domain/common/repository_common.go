// internal/domain/common/repository_common.go
package common

import (
	"errors"
	"fmt"
	"strings"
)

// ドキュメントストア共通のエラー分類。
// adapter 側は必ずこれらに寄せて返す（errors.Is で判定できるように %w で包む）。
var (
	ErrNotFound         = errors.New("not found")
	ErrSchemaMismatch   = errors.New("schema mismatch")
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrPartialWrite     = errors.New("partial write failure")
)

// FailedWrite は fan-out 中に失敗した 1 件の書き込み（path 単位）。
type FailedWrite struct {
	Path string
	Err  error
}

// PartialWriteError は複数書き込みのうち 1 件以上が失敗したことを表す。
// 既に成功した書き込みはロールバックされない。
type PartialWriteError struct {
	Op     string
	Failed []FailedWrite
}

func (e *PartialWriteError) Error() string {
	if e == nil {
		return ""
	}
	paths := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		paths = append(paths, f.Path)
	}
	return fmt.Sprintf("%s: %s (%d failed: %s)", e.Op, ErrPartialWrite, len(e.Failed), strings.Join(paths, ", "))
}

// Is lets errors.Is(err, ErrPartialWrite) match.
func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}

// Unwrap exposes the underlying store errors so that
// errors.Is(err, ErrStoreUnavailable) also works on a partial failure.
func (e *PartialWriteError) Unwrap() []error {
	if e == nil {
		return nil
	}
	out := make([]error, 0, len(e.Failed))
	for _, f := range e.Failed {
		if f.Err != nil {
			out = append(out, f.Err)
		}
	}
	return out
}

// FailedPaths returns the failed sub-paths in the order they were recorded.
func (e *PartialWriteError) FailedPaths() []string {
	if e == nil {
		return nil
	}
	out := make([]string, 0, len(e.Failed))
	for _, f := range e.Failed {
		out = append(out, f.Path)
	}
	return out
}

// SchemaError builds an ErrSchemaMismatch for a specific field.
func SchemaError(path, field, reason string) error {
	return fmt.Errorf("%w: %s: field %q %s", ErrSchemaMismatch, path, field, reason)
}

// NotFoundError builds an ErrNotFound for the given document path.
func NotFoundError(path string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, path)
}
