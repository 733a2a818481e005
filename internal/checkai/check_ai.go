package checkai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/matheuscscp/obrawiser/config"
	_ "github.com/matheuscscp/obrawiser/logging"
	"github.com/matheuscscp/obrawiser/services/extraction"

	"github.com/sirupsen/logrus"
)

// The OpenAI JSON mode rejects prompts that do not mention JSON, so the
// greeting asks for a JSON object on every provider.
const helloPrompt = `Diga 'Olá Mundo' em uma linha curta. Responda em JSON no formato {"message": "..."}.`

var (
	// ErrMissingAPIKey ...
	ErrMissingAPIKey = errors.New("the ai api key is empty")

	// ErrNoRecord ...
	ErrNoRecord = errors.New("no record extracted")
)

// Run checks the connectivity with the configured generative AI provider. When
// text is not empty, it also runs a full extraction and prints the record.
func Run(ctx context.Context, out io.Writer, text string) error {
	conf, err := config.Load()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}
	if conf.AI.APIKey == "" {
		return ErrMissingAPIKey
	}
	gen, err := extraction.NewGenerator(ctx, &conf.AI)
	if err != nil {
		return fmt.Errorf("error creating generator: %w", err)
	}
	logrus.Infof("checking provider '%s' with model '%s'", conf.AI.Provider, conf.AI.Model)
	return Check(ctx, out, gen, text)
}

// Check sends a greeting to gen and, when text is not empty, extracts an
// expense record from it.
func Check(ctx context.Context, out io.Writer, gen extraction.Generator, text string) error {
	reply, err := gen.Generate(ctx, helloPrompt, nil)
	if err != nil {
		return fmt.Errorf("error calling the model: %w", err)
	}
	fmt.Fprintf(out, "model reply: %s\n", strings.TrimSpace(reply))

	if text == "" {
		return nil
	}
	record := extraction.NewService(gen, nil, nil).ParseText(ctx, text)
	if record == nil {
		return ErrNoRecord
	}
	fmt.Fprintf(out, "item: %s\nprice: %s\nquantity: %s\ncategory: %s\nproject: %s\n",
		record.Item, record.Price, record.Quantity, record.Category, record.Project)
	return nil
}
