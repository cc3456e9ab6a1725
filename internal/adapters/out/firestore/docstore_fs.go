// internal/adapters/out/firestore/docstore_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

var (
	ErrDocStoreFSInvalid = errors.New("firestore: docstore invalid")
)

// DocStoreFS implements docstore.Store using Cloud Firestore.
type DocStoreFS struct {
	Client *firestore.Client

	// 複数フィールドの不等号フィルタ（Firestore の multiple inequality）を使うか
	MultiFieldRange bool
}

func NewDocStoreFS(client *firestore.Client, multiFieldRange bool) *DocStoreFS {
	return &DocStoreFS{Client: client, MultiFieldRange: multiFieldRange}
}

func (r *DocStoreFS) doc(path string) (*firestore.DocumentRef, error) {
	if r == nil || r.Client == nil {
		return nil, ErrDocStoreFSInvalid
	}
	ref := r.Client.Doc(strings.Trim(path, "/"))
	if ref == nil {
		return nil, fmt.Errorf("firestore: invalid document path %q", path)
	}
	return ref, nil
}

func (r *DocStoreFS) col(path string) (*firestore.CollectionRef, error) {
	if r == nil || r.Client == nil {
		return nil, ErrDocStoreFSInvalid
	}
	ref := r.Client.Collection(strings.Trim(path, "/"))
	if ref == nil {
		return nil, fmt.Errorf("firestore: invalid collection path %q", path)
	}
	return ref, nil
}

// ----------
// docstore.Store
// ----------

func (r *DocStoreFS) Get(ctx context.Context, path string) (docstore.Document, error) {
	ref, err := r.doc(path)
	if err != nil {
		return docstore.Document{}, err
	}
	snap, err := ref.Get(ctx)
	if err != nil {
		return docstore.Document{}, classify(ref.Path, err)
	}
	if !snap.Exists() {
		return docstore.Document{}, common.NotFoundError(relPath(ref.Path))
	}
	return toDocument(snap), nil
}

func (r *DocStoreFS) Set(ctx context.Context, path string, fields map[string]any) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, fields)
	return classify(ref.Path, err)
}

func (r *DocStoreFS) Merge(ctx context.Context, path string, fields map[string]any) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	if len(fields) == 0 {
		return nil
	}
	_, err = ref.Set(ctx, fields, firestore.MergeAll)
	return classify(ref.Path, err)
}

func (r *DocStoreFS) Update(ctx context.Context, path string, updates []docstore.FieldUpdate) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}
	_, err = ref.Update(ctx, toUpdates(updates))
	return classify(ref.Path, err)
}

func (r *DocStoreFS) Delete(ctx context.Context, path string) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Delete(ctx)
	return classify(ref.Path, err)
}

func (r *DocStoreFS) Query(ctx context.Context, collectionPath string, filters []docstore.Filter) ([]docstore.Document, error) {
	c, err := r.col(collectionPath)
	if err != nil {
		return nil, err
	}

	q := c.Query
	for _, f := range filters {
		q = q.Where(f.Field, string(f.Op), f.Value)
	}

	it := q.Documents(ctx)
	defer it.Stop()

	snaps, err := it.GetAll()
	if err != nil {
		return nil, classify(c.Path, err)
	}
	out := make([]docstore.Document, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, toDocument(snap))
	}
	return out, nil
}

// ArrayUnion は Set+MergeAll で行う（Users/{uid} が未作成でも成功させるため）。
func (r *DocStoreFS) ArrayUnion(ctx context.Context, path, field string, values ...any) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, map[string]any{field: firestore.ArrayUnion(values...)}, firestore.MergeAll)
	return classify(ref.Path, err)
}

func (r *DocStoreFS) ArrayRemove(ctx context.Context, path, field string, values ...any) error {
	ref, err := r.doc(path)
	if err != nil {
		return err
	}
	_, err = ref.Set(ctx, map[string]any{field: firestore.ArrayRemove(values...)}, firestore.MergeAll)
	return classify(ref.Path, err)
}

// Commit uses a WriteBatch: all ops are applied atomically or none are.
func (r *DocStoreFS) Commit(ctx context.Context, ops []docstore.WriteOp) error {
	if r == nil || r.Client == nil {
		return ErrDocStoreFSInvalid
	}
	if len(ops) == 0 {
		return nil
	}

	batch := r.Client.Batch()
	for _, op := range ops {
		ref, err := r.doc(op.Path)
		if err != nil {
			return err
		}
		switch op.Kind {
		case docstore.WriteSet:
			batch.Set(ref, op.Fields)
		case docstore.WriteUpdate:
			batch.Update(ref, toUpdates(op.Updates))
		case docstore.WriteDelete:
			batch.Delete(ref)
		case docstore.WriteArrayUnion:
			batch.Set(ref, map[string]any{op.Field: firestore.ArrayUnion(op.Values...)}, firestore.MergeAll)
		case docstore.WriteArrayRemove:
			batch.Set(ref, map[string]any{op.Field: firestore.ArrayRemove(op.Values...)}, firestore.MergeAll)
		default:
			return fmt.Errorf("firestore: unknown write kind %d", op.Kind)
		}
	}

	if _, err := batch.Commit(ctx); err != nil {
		return classify("batch", err)
	}
	return nil
}

func (r *DocStoreFS) NewID(collectionPath string) string {
	c, err := r.col(collectionPath)
	if err != nil {
		return ""
	}
	return c.NewDoc().ID
}

func (r *DocStoreFS) Capabilities() docstore.Capabilities {
	return docstore.Capabilities{MultiFieldRange: r != nil && r.MultiFieldRange}
}
