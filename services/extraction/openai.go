package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/matheuscscp/obrawiser/config"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

type (
	openAIGenerator struct {
		client             *openai.Client
		model              string
		transcriptionModel string
		language           string
	}
)

// Whisper detects the audio format from the file name.
var audioFileNames = map[string]string{
	"audio/ogg":  "audio.ogg",
	"audio/opus": "audio.ogg",
	"audio/mpeg": "audio.mp3",
	"audio/mp4":  "audio.m4a",
	"audio/wav":  "audio.wav",
	"audio/webm": "audio.webm",
}

// NewOpenAIGenerator ...
func NewOpenAIGenerator(conf *config.AI) Generator {
	clientConf := openai.DefaultConfig(conf.APIKey)
	if conf.BaseURL != "" {
		clientConf.BaseURL = conf.BaseURL
	}
	return &openAIGenerator{
		client:             openai.NewClientWithConfig(clientConf),
		model:              conf.Model,
		transcriptionModel: conf.TranscriptionModel,
		language:           conf.Language,
	}
}

// Generate sends audio through Whisper first, since chat models take the
// transcript as text. Images go inline as a data URL.
func (g *openAIGenerator) Generate(ctx context.Context, prompt string, m *Media) (string, error) {
	msg := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser}

	switch {
	case m == nil:
		msg.Content = prompt
	case strings.HasPrefix(m.MIMEType, "audio/"):
		transcript, err := g.transcribe(ctx, m)
		if err != nil {
			return "", err
		}
		msg.Content = fmt.Sprintf("%s\nText: \"%s\"", prompt, transcript)
	case strings.HasPrefix(m.MIMEType, "image/"):
		image := base64.StdEncoding.EncodeToString(m.Data)
		msg.MultiContent = []openai.ChatMessagePart{
			{
				Type: openai.ChatMessagePartTypeText,
				Text: prompt,
			},
			{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL: fmt.Sprintf("data:%s;base64,%s", m.MIMEType, image),
				},
			},
		}
	default:
		return "", fmt.Errorf("%w: '%s'", ErrUnsupportedMedia, m.MIMEType)
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: []openai.ChatCompletionMessage{msg},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", fmt.Errorf("error calling openai: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyReply
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *openAIGenerator) transcribe(ctx context.Context, m *Media) (string, error) {
	fileName, ok := audioFileNames[m.MIMEType]
	if !ok {
		fileName = "audio.ogg"
	}
	resp, err := g.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    g.transcriptionModel,
		FilePath: fileName,
		Reader:   bytes.NewReader(m.Data),
		Language: g.language,
	})
	if err != nil {
		return "", fmt.Errorf("error transcribing audio: %w", err)
	}
	logrus.WithField("transcript", resp.Text).Debug("audio transcribed")
	return resp.Text, nil
}
