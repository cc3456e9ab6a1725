// internal/infra/secrets/credentials_sm.go
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"google.golang.org/api/option"
)

var ErrEmptySecret = errors.New("secrets: secret payload is empty")

// SecretAccessor is the subset of the Secret Manager client used here.
type SecretAccessor interface {
	AccessSecretVersion(ctx context.Context, name string) ([]byte, error)
}

// SecretManagerAccessor reads secret versions from Secret Manager.
type SecretManagerAccessor struct {
	Client *secretmanager.Client
}

func NewSecretManagerAccessor(ctx context.Context, opts ...option.ClientOption) (*SecretManagerAccessor, error) {
	c, err := secretmanager.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("secretmanager.NewClient: %w", err)
	}
	return &SecretManagerAccessor{Client: c}, nil
}

func (a *SecretManagerAccessor) AccessSecretVersion(ctx context.Context, name string) ([]byte, error) {
	if a == nil || a.Client == nil {
		return nil, errors.New("secrets: secretmanager client is nil")
	}
	res, err := a.Client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return nil, fmt.Errorf("AccessSecretVersion(%s): %w", name, err)
	}
	if res == nil || res.Payload == nil {
		return nil, ErrEmptySecret
	}
	return res.Payload.Data, nil
}

func (a *SecretManagerAccessor) Close() error {
	if a == nil || a.Client == nil {
		return nil
	}
	return a.Client.Close()
}

// VersionName normalizes a secret reference.
//
//	projects/p/secrets/s/versions/3 → そのまま
//	projects/p/secrets/s            → .../versions/latest
//	s (+ projectID)                 → projects/{projectID}/secrets/s/versions/latest
func VersionName(ref, projectID string) (string, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", errors.New("secrets: empty secret reference")
	}
	if strings.HasPrefix(ref, "projects/") {
		if strings.Contains(ref, "/versions/") {
			return ref, nil
		}
		return ref + "/versions/latest", nil
	}
	if strings.Contains(ref, "/") {
		return "", fmt.Errorf("secrets: malformed secret reference %q", ref)
	}
	if projectID == "" {
		return "", errors.New("secrets: project id required for short secret name")
	}
	return fmt.Sprintf("projects/%s/secrets/%s/versions/latest", projectID, ref), nil
}

// CredentialsJSON loads a service-account JSON stored as a secret.
func CredentialsJSON(ctx context.Context, acc SecretAccessor, ref, projectID string) ([]byte, error) {
	name, err := VersionName(ref, projectID)
	if err != nil {
		return nil, err
	}
	data, err := acc.AccessSecretVersion(ctx, name)
	if err != nil {
		return nil, err
	}
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 {
		return nil, ErrEmptySecret
	}
	if data[0] != '{' {
		return nil, fmt.Errorf("secrets: %s does not hold a JSON credential", name)
	}
	return data, nil
}
