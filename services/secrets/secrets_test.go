package secrets_test

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/matheuscscp/obrawiser/services/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	token, err := secrets.Generate(secrets.DefaultTokenBytes)
	require.NoError(t, err)

	b, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	assert.Len(t, b, secrets.DefaultTokenBytes)
	assert.NotContains(t, token, "+")
	assert.NotContains(t, token, "/")
	assert.NotContains(t, token, "=")

	other, err := secrets.Generate(secrets.DefaultTokenBytes)
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestGenerateInvalidSize(t *testing.T) {
	_, err := secrets.Generate(0)
	assert.Error(t, err)
}

func TestMockService(t *testing.T) {
	ctx := context.Background()
	svc := secrets.NewMockService(map[string]string{"known": "value"})
	defer svc.Close()

	v, err := svc.Read(ctx, "known")
	require.NoError(t, err)
	assert.Equal(t, "value", v)

	generated, err := svc.Read(ctx, "unknown")
	require.NoError(t, err)
	again, err := svc.Read(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, generated, again)

	require.NoError(t, svc.Rotate(ctx, "known"))
	rotated, err := svc.Read(ctx, "known")
	require.NoError(t, err)
	assert.NotEqual(t, "value", rotated)
}
