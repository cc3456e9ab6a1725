// internal/adapters/out/memstore/store.go
package memstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

// ErrUnsupportedQuery is returned for range filters on more than one field
// when the store is configured without multi-field range support.
var ErrUnsupportedQuery = errors.New("memstore: range filters on multiple fields are not supported")

// Method names passed to a FaultFunc.
const (
	MethodGet         = "get"
	MethodSet         = "set"
	MethodMerge       = "merge"
	MethodUpdate      = "update"
	MethodDelete      = "delete"
	MethodQuery       = "query"
	MethodArrayUnion  = "arrayUnion"
	MethodArrayRemove = "arrayRemove"
	MethodCommit      = "commit"
)

// FaultFunc lets tests fail a call before it touches the data.
// path is the document path (collection path for queries).
type FaultFunc func(method, path string) error

// Store is an in-memory docstore.Store.
// サブコレクションは親ドキュメントの削除では消えない（Firestore と同じ）。
type Store struct {
	mu    sync.RWMutex
	docs  map[string]map[string]any
	caps  docstore.Capabilities
	fault FaultFunc
}

type Option func(*Store)

// WithMultiFieldRange toggles multi-field range query support (default true).
func WithMultiFieldRange(v bool) Option {
	return func(s *Store) { s.caps.MultiFieldRange = v }
}

// WithFault installs a fault hook at construction time.
func WithFault(f FaultFunc) Option {
	return func(s *Store) { s.fault = f }
}

func New(opts ...Option) *Store {
	s := &Store{
		docs: map[string]map[string]any{},
		caps: docstore.Capabilities{MultiFieldRange: true},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// SetFault replaces the fault hook (nil disables it).
func (s *Store) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *Store) check(method, path string) error {
	if s.fault == nil {
		return nil
	}
	if err := s.fault(method, path); err != nil {
		return fmt.Errorf("memstore: %s %s: %w", method, path, err)
	}
	return nil
}

func cleanDocPath(path string) (string, error) {
	p := strings.Trim(strings.TrimSpace(path), "/")
	if !docstore.IsDocumentPath(p) {
		return "", fmt.Errorf("memstore: invalid document path %q", path)
	}
	return p, nil
}

// ----------
// docstore.Store
// ----------

func (s *Store) Get(ctx context.Context, path string) (docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return docstore.Document{}, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return docstore.Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(MethodGet, p); err != nil {
		return docstore.Document{}, err
	}
	data, ok := s.docs[p]
	if !ok {
		return docstore.Document{}, common.NotFoundError(p)
	}
	return docstore.Document{Path: p, ID: docstore.LastSegment(p), Data: copyMap(data)}, nil
}

func (s *Store) Set(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodSet, p); err != nil {
		return err
	}
	s.docs[p] = copyMap(fields)
	return nil
}

func (s *Store) Merge(ctx context.Context, path string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodMerge, p); err != nil {
		return err
	}
	data, ok := s.docs[p]
	if !ok {
		data = map[string]any{}
		s.docs[p] = data
	}
	for k, v := range fields {
		data[k] = copyValue(v)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, path string, updates []docstore.FieldUpdate) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodUpdate, p); err != nil {
		return err
	}
	return s.applyUpdate(p, updates)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodDelete, p); err != nil {
		return err
	}
	// Firestore と同様、存在しないドキュメントの削除は成功扱い
	delete(s.docs, p)
	return nil
}

func (s *Store) Query(ctx context.Context, collectionPath string, filters []docstore.Filter) ([]docstore.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	col := strings.Trim(strings.TrimSpace(collectionPath), "/")
	if col == "" || docstore.IsDocumentPath(col) {
		return nil, fmt.Errorf("memstore: invalid collection path %q", collectionPath)
	}
	if !s.caps.MultiFieldRange && rangeFieldCount(filters) > 1 {
		return nil, ErrUnsupportedQuery
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(MethodQuery, col); err != nil {
		return nil, err
	}

	var out []docstore.Document
	for p, data := range s.docs {
		if docstore.Parent(p) != col {
			continue
		}
		if !matchAll(data, filters) {
			continue
		}
		out = append(out, docstore.Document{Path: p, ID: docstore.LastSegment(p), Data: copyMap(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (s *Store) ArrayUnion(ctx context.Context, path, field string, values ...any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodArrayUnion, p); err != nil {
		return err
	}
	s.applyArray(p, field, values, true)
	return nil
}

func (s *Store) ArrayRemove(ctx context.Context, path, field string, values ...any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	p, err := cleanDocPath(path)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(MethodArrayRemove, p); err != nil {
		return err
	}
	s.applyArray(p, field, values, false)
	return nil
}

// Commit validates every op first and then applies all of them under one lock.
func (s *Store) Commit(ctx context.Context, ops []docstore.WriteOp) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	if len(ops) == 0 {
		return nil
	}

	cleaned := make([]string, len(ops))
	for i, op := range ops {
		p, err := cleanDocPath(op.Path)
		if err != nil {
			return err
		}
		cleaned[i] = p
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, op := range ops {
		if err := s.check(MethodCommit, cleaned[i]); err != nil {
			return err
		}
		if op.Kind == docstore.WriteUpdate {
			if _, ok := s.docs[cleaned[i]]; !ok {
				return common.NotFoundError(cleaned[i])
			}
		}
	}

	for i, op := range ops {
		p := cleaned[i]
		switch op.Kind {
		case docstore.WriteSet:
			s.docs[p] = copyMap(op.Fields)
		case docstore.WriteUpdate:
			_ = s.applyUpdate(p, op.Updates)
		case docstore.WriteDelete:
			delete(s.docs, p)
		case docstore.WriteArrayUnion:
			s.applyArray(p, op.Field, op.Values, true)
		case docstore.WriteArrayRemove:
			s.applyArray(p, op.Field, op.Values, false)
		}
	}
	return nil
}

func (s *Store) NewID(string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func (s *Store) Capabilities() docstore.Capabilities {
	return s.caps
}

// ----------
// mutation helpers (caller holds s.mu)
// ----------

func (s *Store) applyUpdate(p string, updates []docstore.FieldUpdate) error {
	data, ok := s.docs[p]
	if !ok {
		return common.NotFoundError(p)
	}
	for _, u := range updates {
		data[u.Field] = copyValue(u.Value)
	}
	return nil
}

func (s *Store) applyArray(p, field string, values []any, union bool) {
	data, ok := s.docs[p]
	if !ok {
		data = map[string]any{}
		s.docs[p] = data
	}
	cur, _ := data[field].([]any)

	if union {
		for _, v := range values {
			v = copyValue(v)
			if !containsValue(cur, v) {
				cur = append(cur, v)
			}
		}
		if cur == nil {
			cur = []any{}
		}
		data[field] = cur
		return
	}

	kept := make([]any, 0, len(cur))
	for _, x := range cur {
		if !containsValue(values, x) {
			kept = append(kept, x)
		}
	}
	data[field] = kept
}

// ----------
// value helpers
// ----------

func copyMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

// copyValue deep-copies v and normalizes numbers the way Firestore returns them
// (integers as int64, floats as float64, arrays as []any).
func copyValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return copyMap(t)
	case []any:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = copyValue(x)
		}
		return out
	case []string:
		out := make([]any, len(t))
		for i, x := range t {
			out[i] = x
		}
		return out
	case int:
		return int64(t)
	case int32:
		return int64(t)
	case float32:
		return float64(t)
	case time.Time:
		return t.UTC()
	default:
		return v
	}
}

func containsValue(xs []any, v any) bool {
	v = copyValue(v)
	for _, x := range xs {
		if c, ok := compare(x, v); ok && c == 0 {
			return true
		}
	}
	return false
}

func rangeFieldCount(filters []docstore.Filter) int {
	seen := map[string]struct{}{}
	for _, f := range filters {
		if f.Op.IsRange() {
			seen[f.Field] = struct{}{}
		}
	}
	return len(seen)
}

func matchAll(data map[string]any, filters []docstore.Filter) bool {
	for _, f := range filters {
		v, ok := data[f.Field]
		if !ok {
			return false
		}
		c, ok := compare(v, copyValue(f.Value))
		if !ok {
			return false
		}
		switch f.Op {
		case docstore.OpEqual:
			if c != 0 {
				return false
			}
		case docstore.OpLess:
			if c >= 0 {
				return false
			}
		case docstore.OpLessEqual:
			if c > 0 {
				return false
			}
		case docstore.OpGreater:
			if c <= 0 {
				return false
			}
		case docstore.OpGreaterEqual:
			if c < 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// compare orders two values of the same kind; ok is false when they are not comparable.
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		switch {
		case fa < fb:
			return -1, true
		case fa > fb:
			return 1, true
		}
		return 0, true
	}
	switch x := a.(type) {
	case string:
		y, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(x, y), true
	case bool:
		y, ok := b.(bool)
		if !ok {
			return 0, false
		}
		if x == y {
			return 0, true
		}
		if !x {
			return -1, true
		}
		return 1, true
	case time.Time:
		y, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return x.Compare(y), true
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}
