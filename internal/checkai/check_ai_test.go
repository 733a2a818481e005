package checkai_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/matheuscscp/obrawiser/internal/checkai"
	"github.com/matheuscscp/obrawiser/services/extraction"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type (
	fakeGenerator struct {
		replies []string
		err     error
		prompts []string
	}
)

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, m *extraction.Media) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return reply, nil
}

func TestCheck(t *testing.T) {
	t.Run("hello only", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{`{"message":"Olá Mundo"}`}}
		var out bytes.Buffer

		require.NoError(t, checkai.Check(context.Background(), &out, gen, ""))
		assert.Equal(t, "model reply: {\"message\":\"Olá Mundo\"}\n", out.String())
		require.Len(t, gen.prompts, 1)
		assert.Contains(t, gen.prompts[0], "JSON")
	})

	t.Run("with extraction", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{
			`{"message":"Olá Mundo"}`,
			`{"item":"cimento","price":50,"project":"Centro"}`,
		}}
		var out bytes.Buffer

		require.NoError(t, checkai.Check(context.Background(), &out, gen, "Comprei cimento por 50 para obra Centro"))
		assert.Contains(t, out.String(), "item: cimento\nprice: 50\nquantity: N/A\ncategory: N/A\nproject: Centro\n")
	})

	t.Run("no record", func(t *testing.T) {
		gen := &fakeGenerator{replies: []string{`{"message":"Olá"}`, "não sei"}}
		err := checkai.Check(context.Background(), &bytes.Buffer{}, gen, "oi")
		assert.ErrorIs(t, err, checkai.ErrNoRecord)
	})

	t.Run("model error", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("API key not valid")}
		err := checkai.Check(context.Background(), &bytes.Buffer{}, gen, "")
		assert.ErrorContains(t, err, "API key not valid")
	})
}
