// internal/adapters/out/firestore/helper_repository_fs.go
package firestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"hanami/internal/domain/common"
	"hanami/internal/domain/docstore"
)

func toDocument(snap *firestore.DocumentSnapshot) docstore.Document {
	return docstore.Document{
		Path: relPath(snap.Ref.Path),
		ID:   snap.Ref.ID,
		Data: snap.Data(),
	}
}

func toUpdates(src []docstore.FieldUpdate) []firestore.Update {
	ups := make([]firestore.Update, 0, len(src))
	for _, u := range src {
		ups = append(ups, firestore.Update{Path: u.Field, Value: u.Value})
	}
	return ups
}

// relPath strips "projects/{p}/databases/{d}/documents/" from a full resource path.
func relPath(full string) string {
	const marker = "/documents/"
	if i := strings.Index(full, marker); i >= 0 {
		return full[i+len(marker):]
	}
	return full
}

// classify maps gRPC status codes onto the common error taxonomy.
func classify(path string, err error) error {
	if err == nil {
		return nil
	}
	path = relPath(path)

	switch status.Code(err) {
	case codes.NotFound:
		return common.NotFoundError(path)
	case codes.Unavailable,
		codes.DeadlineExceeded,
		codes.Canceled,
		codes.Unauthenticated,
		codes.PermissionDenied,
		codes.ResourceExhausted:
		return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, path, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, path, err)
	}
	return fmt.Errorf("firestore: %s: %w", path, err)
}
