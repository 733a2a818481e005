package media

import (
	"context"
	"errors"
	"fmt"
	"path"

	"github.com/matheuscscp/obrawiser/config"

	"cloud.google.com/go/storage"
)

type (
	// Service archives media downloaded from WhatsApp.
	Service interface {
		Store(ctx context.Context, name, contentType string, data []byte) error
		Close()
	}

	service struct {
		bucket *storage.BucketHandle
		prefix string
		close  func()
	}
)

var (
	// ErrServiceNotConfigured ...
	ErrServiceNotConfigured = errors.New("the media archive was not configured with a bucket")
)

// NewService returns a Service writing to the configured Cloud Storage
// bucket, or a no-op Service when no bucket is configured.
func NewService(ctx context.Context, conf *config.Media) (Service, error) {
	if conf.Bucket == "" {
		return &service{}, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating cloud storage client: %w", err)
	}
	return NewServiceWithClient(client, conf), nil
}

// NewServiceWithClient takes ownership of client.
func NewServiceWithClient(client *storage.Client, conf *config.Media) Service {
	return &service{
		bucket: client.Bucket(conf.Bucket),
		prefix: conf.Prefix,
		close:  func() { client.Close() },
	}
}

func (s *service) Close() {
	if s.close != nil {
		s.close()
	}
}

func (s *service) Store(ctx context.Context, name, contentType string, data []byte) error {
	if s.bucket == nil {
		return ErrServiceNotConfigured
	}

	objectName := path.Join(s.prefix, name)
	w := s.bucket.Object(objectName).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("error writing media object '%s': %w", objectName, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("error closing media object '%s': %w", objectName, err)
	}

	return nil
}
