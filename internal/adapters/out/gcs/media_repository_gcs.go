// internal/adapters/out/gcs/media_repository_gcs.go
package gcs

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/rs/zerolog"
)

// MediaRepositoryGCS removes uploaded treasure media (image / video / audio).
//
// 削除対象は設定されたバケット内のオブジェクトのみ。
// 外部サイトの URL や別バケットの URL はスキップする。
type MediaRepositoryGCS struct {
	Client *storage.Client
	Bucket string
	log    zerolog.Logger
}

func NewMediaRepositoryGCS(client *storage.Client, bucket string, logger zerolog.Logger) *MediaRepositoryGCS {
	return &MediaRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
		log:    logger.With().Str("component", "media_gcs").Logger(),
	}
}

func (r *MediaRepositoryGCS) bucket() (*storage.BucketHandle, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("media_repository_gcs: storage client is nil")
	}
	if r.Bucket == "" {
		return nil, errors.New("media_repository_gcs: bucket is empty")
	}
	return r.Client.Bucket(r.Bucket), nil
}

// DeleteByURL deletes the object referenced by rawURL.
// 既に存在しない場合は成功扱い。
func (r *MediaRepositoryGCS) DeleteByURL(ctx context.Context, rawURL string) error {
	bh, err := r.bucket()
	if err != nil {
		return err
	}
	b, obj, ok := ParseMediaURL(rawURL)
	if !ok || b != r.Bucket {
		r.log.Debug().Str("url", rawURL).Msg("skip non-managed media url")
		return nil
	}
	if err := bh.Object(obj).Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	r.log.Debug().Str("object", obj).Msg("media deleted")
	return nil
}
