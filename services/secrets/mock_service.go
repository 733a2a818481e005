package secrets

import (
	"context"
	"fmt"
	"sync"
)

type (
	mockService struct {
		cache   map[string]string
		cacheMu sync.Mutex
	}
)

// NewMockService returns an in-memory Service. Secrets given in values are
// returned as is, unknown secrets are generated on first read.
func NewMockService(values map[string]string) Service {
	cache := make(map[string]string, len(values))
	for k, v := range values {
		cache[k] = v
	}
	return &mockService{cache: cache}
}

func (m *mockService) Close() {
}

func (m *mockService) Read(ctx context.Context, id string) (string, error) {
	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()

	if c, ok := m.cache[id]; ok {
		return c, nil
	}

	secret, err := Generate(DefaultTokenBytes)
	if err != nil {
		return "", err
	}
	m.cache[id] = secret

	return secret, nil
}

func (m *mockService) Rotate(ctx context.Context, id string) error {
	secret, err := Generate(DefaultTokenBytes)
	if err != nil {
		return fmt.Errorf("error generating token for secret '%s': %w", id, err)
	}

	m.cacheMu.Lock()
	defer m.cacheMu.Unlock()
	m.cache[id] = secret

	return nil
}
