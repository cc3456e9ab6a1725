// internal/domain/docstore/repository_port.go
package docstore

import (
	"context"
	"strings"
)

// 契約（インターフェース）のみを定義します。
// 実装は adapters/out/firestore（本番）と adapters/out/memstore（テスト・ローカル）。
//
// パスは "Users/{uid}/Treasures/{tid}" のようなスラッシュ区切り。
// 偶数セグメント = ドキュメント、奇数セグメント = コレクション。

// Document is one schema-less document returned by the store.
type Document struct {
	Path string
	ID   string
	Data map[string]any
}

// Op is a query comparison operator.
type Op string

const (
	OpEqual        Op = "=="
	OpLess         Op = "<"
	OpLessEqual    Op = "<="
	OpGreater      Op = ">"
	OpGreaterEqual Op = ">="
)

// IsRange reports whether op is an inequality (range) operator.
func (o Op) IsRange() bool {
	switch o {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// Filter is a single field predicate.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// FieldUpdate is a single field assignment for Update.
type FieldUpdate struct {
	Field string
	Value any
}

// WriteKind selects the mutation carried by a WriteOp.
type WriteKind int

const (
	WriteSet WriteKind = iota
	WriteUpdate
	WriteDelete
	WriteArrayUnion
	WriteArrayRemove
)

// WriteOp is one mutation inside a batch commit.
type WriteOp struct {
	Kind    WriteKind
	Path    string
	Fields  map[string]any // WriteSet
	Updates []FieldUpdate  // WriteUpdate
	Field   string         // WriteArrayUnion / WriteArrayRemove
	Values  []any          // WriteArrayUnion / WriteArrayRemove
}

// Capabilities describes optional query features of a backend.
type Capabilities struct {
	// MultiFieldRange: 1 クエリ内で複数フィールドに範囲条件を付けられるか。
	MultiFieldRange bool
}

// Store is the document-store capability set the core depends on.
//
// Errors: 不在は common.ErrNotFound、通信/認証系は common.ErrStoreUnavailable を %w で包む。
type Store interface {
	Get(ctx context.Context, path string) (Document, error)
	Set(ctx context.Context, path string, fields map[string]any) error
	// Merge writes only the given fields, creating the document when it is missing.
	Merge(ctx context.Context, path string, fields map[string]any) error
	// Update fails with ErrNotFound when the document does not exist.
	Update(ctx context.Context, path string, updates []FieldUpdate) error
	Delete(ctx context.Context, path string) error
	Query(ctx context.Context, collectionPath string, filters []Filter) ([]Document, error)
	// ArrayUnion / ArrayRemove create the document when it is missing (merge semantics).
	ArrayUnion(ctx context.Context, path, field string, values ...any) error
	ArrayRemove(ctx context.Context, path, field string, values ...any) error
	// Commit applies all ops atomically or none of them.
	Commit(ctx context.Context, ops []WriteOp) error
	NewID(collectionPath string) string
	Capabilities() Capabilities
}

// Join builds a store path from segments (empty segments are skipped).
func Join(segments ...string) string {
	parts := make([]string, 0, len(segments))
	for _, s := range segments {
		s = strings.Trim(strings.TrimSpace(s), "/")
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "/")
}

// LastSegment returns the document ID (or collection ID) at the end of path.
func LastSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// Parent returns the collection path that contains the document at path.
func Parent(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[:i]
	}
	return ""
}

// IsDocumentPath reports whether path has an even, non-zero number of segments.
func IsDocumentPath(path string) bool {
	path = strings.Trim(path, "/")
	if path == "" {
		return false
	}
	return len(strings.Split(path, "/"))%2 == 0
}
