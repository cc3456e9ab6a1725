// internal/infra/firestore/client.go
package firestoreinfra

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"
)

// ClientWrapper は Firestore クライアントとその設定をラップします。
type ClientWrapper struct {
	Client    *firestore.Client
	ProjectID string
}

// NewClient は Firestore クライアントを初期化します。
// opts が空の場合は ADC(Application Default Credentials)を使用します。
func NewClient(ctx context.Context, projectID string, logger zerolog.Logger, opts ...option.ClientOption) (*ClientWrapper, error) {
	if projectID == "" {
		return nil, errors.New("firestore: project id is empty")
	}
	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info().Str("component", "firestore").Str("project", projectID).Msg("firestore connected")
	return &ClientWrapper{Client: client, ProjectID: projectID}, nil
}

// Ping は Firestore 接続をテストします。
// Firestore は Ping API を持たないため、存在しない可能性のあるドキュメントを 1 件読む。
func (cw *ClientWrapper) Ping(ctx context.Context) error {
	if cw == nil || cw.Client == nil {
		return errors.New("firestore client is nil")
	}
	_, err := cw.Client.Collection("Users").Limit(1).Documents(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("firestore ping failed: %w", err)
	}
	return nil
}

// Close は Firestore クライアントをクローズします。
func (cw *ClientWrapper) Close() error {
	if cw == nil || cw.Client == nil {
		return nil
	}
	return cw.Client.Close()
}
