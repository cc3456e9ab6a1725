// internal/platform/di/shared/infra.go
package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	firebaseauth "firebase.google.com/go/v4/auth"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	appcfg "hanami/internal/infra/config"
	firestoreinfra "hanami/internal/infra/firestore"
	"hanami/internal/infra/secrets"
)

// Infra is shared runtime infrastructure for DI.
// - owns external clients (Firestore / GCS / Firebase Auth)
// - Firestore は必須、GCS と Firebase Auth は best-effort（warn + continue）
type Infra struct {
	Config    *appcfg.Config
	ProjectID string

	// Clients (owned; Close-managed)
	Firestore    *firestoreinfra.ClientWrapper
	GCS          *storage.Client
	FirebaseAuth *firebaseauth.Client
}

// NewInfra initializes the GCP clients for the firestore backend.
func NewInfra(ctx context.Context, cfg *appcfg.Config, logger zerolog.Logger) (*Infra, error) {
	if cfg == nil {
		return nil, errors.New("shared.infra: config is nil")
	}
	log := logger.With().Str("component", "shared.infra").Logger()

	projectID := strings.TrimSpace(cfg.FirestoreProjectID)
	if projectID == "" {
		return nil, errors.New("shared.infra: projectID is empty (set FIRESTORE_PROJECT_ID or GCP_PROJECT_ID)")
	}
	inf := &Infra{Config: cfg, ProjectID: projectID}

	clientOpts, err := resolveClientOptions(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	// 1) Firestore (strict)
	inf.Firestore, err = firestoreinfra.NewClient(ctx, projectID, logger, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("shared.infra: firestore (project=%s): %w", projectID, err)
	}

	// 2) GCS (best-effort; MEDIA_BUCKET 未設定ならメディア削除は無効)
	if strings.TrimSpace(cfg.MediaBucket) != "" {
		gcsClient, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			log.Warn().Err(err).Msg("storage.NewClient failed; media cleanup disabled")
		} else {
			inf.GCS = gcsClient
			log.Info().Str("bucket", cfg.MediaBucket).Msg("GCS storage client initialized")
		}
	} else {
		log.Info().Msg("MEDIA_BUCKET is empty; media cleanup disabled")
	}

	// 3) Firebase App/Auth (best-effort; 失敗時は全リクエストが 503)
	if !cfg.AuthDisabled {
		fbApp, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, clientOpts...)
		if err != nil {
			log.Warn().Err(err).Msg("firebase app init failed")
		} else {
			authClient, err := fbApp.Auth(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("firebase auth init failed")
			} else {
				inf.FirebaseAuth = authClient
				log.Info().Msg("Firebase Auth initialized")
			}
		}
	}

	return inf, nil
}

// resolveClientOptions picks the credentials for every GCP client.
// 優先順位: CREDENTIALS_SECRET（Secret Manager） > FIRESTORE_CREDENTIALS_FILE > ADC
func resolveClientOptions(ctx context.Context, cfg *appcfg.Config, log zerolog.Logger) ([]option.ClientOption, error) {
	if ref := strings.TrimSpace(cfg.CredentialsSecret); ref != "" {
		// Secret Manager 自体は ADC（またはファイル）で認証する
		var smOpts []option.ClientOption
		if f := strings.TrimSpace(cfg.FirestoreCredentialsFile); f != "" {
			smOpts = append(smOpts, option.WithCredentialsFile(f))
		}
		acc, err := secrets.NewSecretManagerAccessor(ctx, smOpts...)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: %w", err)
		}
		defer acc.Close()

		data, err := secrets.CredentialsJSON(ctx, acc, ref, cfg.FirestoreProjectID)
		if err != nil {
			return nil, fmt.Errorf("shared.infra: credentials secret: %w", err)
		}
		log.Info().Msg("using credentials from Secret Manager")
		return []option.ClientOption{option.WithCredentialsJSON(data)}, nil
	}

	if f := strings.TrimSpace(cfg.FirestoreCredentialsFile); f != "" {
		log.Info().Str("file", redactPath(f)).Msg("using credentials file for GCP clients")
		return []option.ClientOption{option.WithCredentialsFile(f)}, nil
	}

	log.Info().Msg("using Application Default Credentials")
	return nil, nil
}

func (i *Infra) Close() error {
	if i == nil {
		return nil
	}
	if i.Firestore != nil {
		_ = i.Firestore.Close()
	}
	if i.GCS != nil {
		_ = i.GCS.Close()
	}
	return nil
}

func redactPath(p string) string {
	// フルパスはログに出さない（最後のセグメントのみ）
	p = strings.ReplaceAll(strings.TrimSpace(p), "\\", "/")
	if p == "" {
		return ""
	}
	parts := strings.Split(p, "/")
	last := parts[len(parts)-1]
	if last == "" {
		return "***"
	}
	return "***/" + last
}
