// internal/application/usecase/helper_usecase.go
package usecase

import (
	"errors"
	"strings"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
	"hanami/internal/domain/treasure"
)

// 共通ヘルパー: 重複排除 + 空白除去
func dedupStrings(xs []string) []string {
	seen := make(map[string]struct{}, len(xs))
	out := make([]string, 0, len(xs))
	for _, v := range xs {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func categoryFilter(name string) []docstore.Filter {
	return []docstore.Filter{{Field: treasure.FieldCategory, Op: docstore.OpEqual, Value: name}}
}

func categoryUpdate(name string) []docstore.FieldUpdate {
	return []docstore.FieldUpdate{{Field: treasure.FieldCategory, Value: name}}
}

// flattenPartial merges nested PartialWriteErrors (fan-out of cascades)
// so that the caller sees the leaf paths that actually failed.
func flattenPartial(err error) error {
	var outer *common.PartialWriteError
	if !errors.As(err, &outer) {
		return err
	}
	flat := &common.PartialWriteError{Op: outer.Op}
	for _, f := range outer.Failed {
		var inner *common.PartialWriteError
		if errors.As(f.Err, &inner) {
			flat.Failed = append(flat.Failed, inner.Failed...)
			continue
		}
		flat.Failed = append(flat.Failed, f)
	}
	return flat
}
