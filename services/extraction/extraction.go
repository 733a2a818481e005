package extraction

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"strings"

	"github.com/matheuscscp/obrawiser/internal/llmjson"
	"github.com/matheuscscp/obrawiser/models"
	"github.com/matheuscscp/obrawiser/services/media"
	"github.com/matheuscscp/obrawiser/services/whatsapp"

	"github.com/sirupsen/logrus"
)

type (
	// Generator sends one single-turn prompt to a generative model, with an
	// optional inline media blob, and returns the model's text reply.
	Generator interface {
		Generate(ctx context.Context, prompt string, m *Media) (string, error)
	}

	// Media is an inline binary part of a prompt.
	Media struct {
		MIMEType string
		Data     []byte
	}

	// MediaFetcher resolves and downloads a WhatsApp media id.
	MediaFetcher interface {
		FetchMedia(ctx context.Context, mediaID string) ([]byte, *whatsapp.MediaInfo, error)
	}

	// Service turns WhatsApp message content into expense records.
	Service struct {
		generator Generator
		fetcher   MediaFetcher
		archive   media.Service
	}
)

const extractionPrompt = `
Extract the following details from the expense report in JSON format:
- item: Name of the material/service
- price: Cost (number only)
- quantity: Amount bought (string with unit, e.g., "10 un", "50kg")
- category: Construction category (e.g., Hidraulica, Eletrica, Alvenaria, Pintura)
- project: Name of the construction site (Obra) based on context.

If any field is missing, use "N/A" or 0.
Return ONLY raw JSON, no markdown formatting.
`

// NewService ...
func NewService(generator Generator, fetcher MediaFetcher, archive media.Service) *Service {
	return &Service{
		generator: generator,
		fetcher:   fetcher,
		archive:   archive,
	}
}

// TextPrompt is the prompt sent for a text message.
func TextPrompt(text string) string {
	return fmt.Sprintf("%s\nText: \"%s\"", extractionPrompt, text)
}

// ParseText extracts a record from a text message. It returns nil when the
// model fails or its reply is not a JSON object.
func (s *Service) ParseText(ctx context.Context, text string) *models.ExpenseRecord {
	reply, err := s.generator.Generate(ctx, TextPrompt(text), nil)
	if err != nil {
		logrus.WithError(err).Error("error generating content for text message")
		return nil
	}
	return parseReply(reply)
}

// ParseAudio extracts a record from a voice note or audio message.
func (s *Service) ParseAudio(ctx context.Context, mediaID, mimeType string) *models.ExpenseRecord {
	return s.parseMedia(ctx, whatsapp.MessageTypeAudio, mediaID, mimeType)
}

// ParseImage extracts a record from a photo, e.g. of a receipt.
func (s *Service) ParseImage(ctx context.Context, mediaID, mimeType string) *models.ExpenseRecord {
	return s.parseMedia(ctx, whatsapp.MessageTypeImage, mediaID, mimeType)
}

func (s *Service) parseMedia(ctx context.Context, kind, mediaID, mimeType string) *models.ExpenseRecord {
	l := logrus.WithField("media_id", mediaID).WithField("kind", kind)
	l.Info("downloading media")

	b, info, err := s.fetcher.FetchMedia(ctx, mediaID)
	if err != nil {
		l.WithError(err).Error("error fetching media")
		return nil
	}
	if mimeType == "" && info != nil {
		mimeType = info.MimeType
	}
	mimeType = baseMIMEType(mimeType)

	s.archiveMedia(ctx, l, mediaID, mimeType, b)

	reply, err := s.generator.Generate(ctx, extractionPrompt, &Media{
		MIMEType: mimeType,
		Data:     b,
	})
	if err != nil {
		l.WithError(err).Error("error generating content for media message")
		return nil
	}
	return parseReply(reply)
}

func (s *Service) archiveMedia(ctx context.Context, l *logrus.Entry, mediaID, mimeType string, b []byte) {
	if s.archive == nil {
		return
	}
	if err := s.archive.Store(ctx, mediaID, mimeType, b); err != nil {
		if errors.Is(err, media.ErrServiceNotConfigured) {
			return
		}
		l.WithError(err).Warn("error archiving media")
	}
}

func parseReply(reply string) *models.ExpenseRecord {
	record, err := models.ParseExpenseRecord([]byte(llmjson.Clean(reply)))
	if err != nil {
		logrus.WithError(err).WithField("reply", reply).Error("error parsing model reply")
		return nil
	}
	return record
}

// baseMIMEType drops parameters, "audio/ogg; codecs=opus" becomes "audio/ogg".
func baseMIMEType(s string) string {
	mediaType, _, err := mime.ParseMediaType(s)
	if err != nil {
		if i := strings.IndexByte(s, ';'); i >= 0 {
			s = s[:i]
		}
		return strings.TrimSpace(strings.ToLower(s))
	}
	return mediaType
}
