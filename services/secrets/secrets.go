package secrets

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"
	"strconv"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/sirupsen/logrus"
)

type (
	// Service ...
	Service interface {
		Read(ctx context.Context, id string) (string, error)
		Rotate(ctx context.Context, id string) error
		Close()
	}

	service struct {
		client *secretmanager.Client
	}
)

const (
	numBytesLabel = "num-bytes"
)

var (
	// ErrNilSecretPayload ...
	ErrNilSecretPayload = errors.New("nil secret payload")

	// ErrNilSecretLabels ...
	ErrNilSecretLabels = errors.New("nil secret labels")

	// ErrSecretNumBytesMissing ...
	ErrSecretNumBytesMissing = errors.New("secret label 'num-bytes' is not present")

	crc32cTable = crc32.MakeTable(crc32.Castagnoli)
)

// NewService ...
func NewService(ctx context.Context) (Service, error) {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("error creating secret manager client: %w", err)
	}
	return &service{client}, nil
}

func (s *service) Close() {
	s.client.Close()
}

// Read returns the latest version of the secret. The id has the form
// projects/<project>/secrets/<name>.
func (s *service) Read(ctx context.Context, id string) (string, error) {
	resp, err := s.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", id),
	})
	if err != nil {
		return "", fmt.Errorf("error accessing secret version: %w", err)
	}
	payload := resp.GetPayload()
	if payload == nil {
		return "", ErrNilSecretPayload
	}
	if payload.DataCrc32C != nil {
		want := payload.GetDataCrc32C()
		got := int64(crc32.Checksum(payload.Data, crc32cTable))
		if want != got {
			return "", fmt.Errorf("secret checksum mismatch, want %v, got %v", want, got)
		}
	}
	return string(payload.GetData()), nil
}

// Rotate adds a new random version to the secret and destroys the previous
// one. The size of the random token comes from the secret's num-bytes label.
func (s *service) Rotate(ctx context.Context, id string) error {
	// fetch number of bytes from secret labels
	secret, err := s.client.GetSecret(ctx, &secretmanagerpb.GetSecretRequest{
		Name: id,
	})
	if err != nil {
		return fmt.Errorf("error getting secret '%s': %w", id, err)
	}
	labels := secret.GetLabels()
	if labels == nil {
		return ErrNilSecretLabels
	}
	secretNumBytes, ok := labels[numBytesLabel]
	if !ok {
		return ErrSecretNumBytesMissing
	}
	numBytes, err := strconv.Atoi(secretNumBytes)
	if err != nil {
		return fmt.Errorf("error parsing 'num-bytes' label for secret '%s': %w", id, err)
	}

	// generate random token
	token, err := Generate(numBytes)
	if err != nil {
		return fmt.Errorf("error generating token for secret '%s': %w", id, err)
	}
	payload := []byte(token)
	checksum := int64(crc32.Checksum(payload, crc32cTable))

	// find previous version
	latest, err := s.client.GetSecretVersion(ctx, &secretmanagerpb.GetSecretVersionRequest{
		Name: fmt.Sprintf("%s/versions/latest", id),
	})
	if err != nil {
		logrus.Warnf("error fetching latest version of secret '%s': %v", id, err)
		latest = nil
	}

	// add version
	newVersion, err := s.client.AddSecretVersion(ctx, &secretmanagerpb.AddSecretVersionRequest{
		Parent: id,
		Payload: &secretmanagerpb.SecretPayload{
			Data:       payload,
			DataCrc32C: &checksum,
		},
	})
	if err != nil {
		return fmt.Errorf("error adding secret version: %w", err)
	}

	// destroy previous version
	if latest != nil {
		_, err = s.client.DestroySecretVersion(ctx, &secretmanagerpb.DestroySecretVersionRequest{
			Name: latest.Name,
		})
		if err != nil {
			return fmt.Errorf("error destroying previous secret version: %w", err)
		}
	}

	logrus.Infof("secret rotated: %s", newVersion.Name)
	return nil
}
