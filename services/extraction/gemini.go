package extraction

import (
	"context"
	"fmt"

	"github.com/matheuscscp/obrawiser/config"

	"google.golang.org/genai"
)

type (
	geminiGenerator struct {
		client *genai.Client
		model  string
	}
)

// NewGeminiGenerator ...
func NewGeminiGenerator(ctx context.Context, conf *config.AI) (Generator, error) {
	clientConf := &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if conf.BaseURL != "" {
		clientConf.HTTPOptions.BaseURL = conf.BaseURL
	}
	client, err := genai.NewClient(ctx, clientConf)
	if err != nil {
		return nil, fmt.Errorf("error creating gemini client: %w", err)
	}
	return &geminiGenerator{
		client: client,
		model:  conf.Model,
	}, nil
}

func (g *geminiGenerator) Generate(ctx context.Context, prompt string, m *Media) (string, error) {
	var parts []*genai.Part
	if m != nil {
		parts = append(parts, genai.NewPartFromBytes(m.Data, m.MIMEType))
	}
	parts = append(parts, genai.NewPartFromText(prompt))

	resp, err := g.client.Models.GenerateContent(
		ctx,
		g.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		&genai.GenerateContentConfig{ResponseMIMEType: "application/json"},
	)
	if err != nil {
		return "", fmt.Errorf("error calling gemini: %w", err)
	}
	text := resp.Text()
	if text == "" {
		return "", ErrEmptyReply
	}
	return text, nil
}
