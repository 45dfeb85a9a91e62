package storage

import (
	"context"
	"fmt"
	"net/http"

	"github.com/inkbloom/inkbloom/internal/config"
)

// MinIOConfig holds MinIO connection configuration
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
	// PublicURL overrides the scheme://endpoint origin used in returned URLs.
	PublicURL string
}

func (c *MinIOConfig) publicBase() string {
	if c.PublicURL != "" {
		return c.PublicURL
	}
	scheme := "http"
	if c.UseSSL {
		scheme = "https"
	}
	return scheme + "://" + c.Endpoint
}

// NewUploader builds the uploader selected by cfg.Backend.
func NewUploader(ctx context.Context, cfg config.StorageConfig, client *http.Client) (Uploader, error) {
	switch cfg.Backend {
	case "minio":
		s, err := NewMinIOStorage(ctx, &MinIOConfig{
			Endpoint:  cfg.MinIOEndpoint,
			AccessKey: cfg.MinIOAccessKey,
			SecretKey: cfg.MinIOSecretKey,
			UseSSL:    cfg.MinIOUseSSL,
			Bucket:    cfg.MinIOBucket,
			PublicURL: cfg.MinIOPublicURL,
		})
		if err != nil {
			return nil, err
		}
		return WithMetrics("minio", s), nil
	case "cdn", "":
		return WithMetrics("cdn", NewCDNUploader(cfg.CDNUploadURL, cfg.CDNAPIKey, client)), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}
