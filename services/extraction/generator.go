package extraction

import (
	"context"
	"errors"
	"fmt"

	"github.com/matheuscscp/obrawiser/config"
)

var (
	// ErrEmptyReply ...
	ErrEmptyReply = errors.New("model returned an empty reply")

	// ErrUnsupportedMedia ...
	ErrUnsupportedMedia = errors.New("unsupported media type")
)

// NewGenerator creates the Generator of the configured provider.
func NewGenerator(ctx context.Context, conf *config.AI) (Generator, error) {
	switch conf.Provider {
	case config.ProviderGemini:
		return NewGeminiGenerator(ctx, conf)
	case config.ProviderOpenAI:
		return NewOpenAIGenerator(conf), nil
	default:
		return nil, fmt.Errorf("%w: '%s'", config.ErrUnknownProvider, conf.Provider)
	}
}
