package config

import (
	"context"
	"fmt"
	"os"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"

	"logicmonitor.com/gcp-flowlogs-relay/logger"
)

// Project id environment variables set by the Cloud Functions runtime
const (
	projectIDVar    = "GCP_PROJECT"
	altProjectIDVar = "GOOGLE_CLOUD_PROJECT"
)

var configLogger = logger.NewLogger("config")

// SecretManagerSource reads secrets from GCP Secret Manager. It backs the
// env-var fallback when the relay runs inside a GCP project.
type SecretManagerSource struct {
	client  *secretmanager.Client
	project string
}

// NewSecretManagerSource returns nil when no runtime project is configured or
// Secret Manager is unreachable; loading then proceeds on environment
// variables alone.
func NewSecretManagerSource(ctx context.Context) *SecretManagerSource {
	project := os.Getenv(projectIDVar)
	if project == "" {
		project = os.Getenv(altProjectIDVar)
	}
	if project == "" {
		return nil
	}

	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		configLogger.Warn(fmt.Sprintf("Secret Manager unavailable, using environment variables only: %v", err))
		return nil
	}
	return &SecretManagerSource{client: client, project: project}
}

func (s *SecretManagerSource) Lookup(ctx context.Context, name string) (string, error) {
	version := fmt.Sprintf("projects/%s/secrets/%s/versions/latest", s.project, name)
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: version})
	if err != nil {
		return "", fmt.Errorf("accessing secret %s: %w", name, err)
	}
	return string(resp.GetPayload().GetData()), nil
}
