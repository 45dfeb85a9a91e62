package storage

import (
	"context"

	"github.com/inkbloom/inkbloom/pkg/metrics"
)

// Uploader stores an object under objectPath and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error)
}

// instrumented counts uploads per backend.
type instrumented struct {
	backend string
	next    Uploader
}

// WithMetrics wraps u so every call is counted under backend.
func WithMetrics(backend string, u Uploader) Uploader {
	return &instrumented{backend: backend, next: u}
}

func (i *instrumented) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	url, err := i.next.Upload(ctx, objectPath, data, contentType)
	if err != nil {
		metrics.Uploads.WithLabelValues(i.backend, "error").Inc()
		return "", err
	}
	metrics.Uploads.WithLabelValues(i.backend, "ok").Inc()
	return url, nil
}
