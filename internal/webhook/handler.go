package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/matheuscscp/obrawiser/config"
	_ "github.com/matheuscscp/obrawiser/logging"
	"github.com/matheuscscp/obrawiser/models"
	"github.com/matheuscscp/obrawiser/services/events"
	"github.com/matheuscscp/obrawiser/services/whatsapp"

	"github.com/sirupsen/logrus"
)

type (
	// Extractor turns message content into an expense record, or nil.
	Extractor interface {
		ParseText(ctx context.Context, text string) *models.ExpenseRecord
		ParseAudio(ctx context.Context, mediaID, mimeType string) *models.ExpenseRecord
		ParseImage(ctx context.Context, mediaID, mimeType string) *models.ExpenseRecord
	}

	// Recorder persists a record. Failures are absorbed by the implementation.
	Recorder interface {
		AddRow(ctx context.Context, record *models.ExpenseRecord)
	}

	// Messenger replies to the sender.
	Messenger interface {
		SendText(ctx context.Context, to, body string) error
	}

	// Publisher announces recorded expenses.
	Publisher interface {
		Publish(ctx context.Context, event *events.ExpenseRecorded) (string, error)
	}

	// Deps are the collaborators of a Handler. Publisher may be nil.
	Deps struct {
		Extractor Extractor
		Recorder  Recorder
		Messenger Messenger
		Publisher Publisher
	}

	// Handler serves the WhatsApp webhook.
	Handler struct {
		conf           *config.WhatsApp
		deps           Deps
		allowedSenders map[string]struct{}
	}
)

const (
	queryMode        = "hub.mode"
	queryVerifyToken = "hub.verify_token"
	queryChallenge   = "hub.challenge"

	modeSubscribe = "subscribe"

	headerSignature = "X-Hub-Signature-256"
	signaturePrefix = "sha256="

	// MaxBodyBytes is the largest webhook delivery accepted.
	MaxBodyBytes = 1 << 20

	// FailureReply is sent when no record could be extracted.
	FailureReply = `❌ Não entendi. Tente áudio ou texto: "Comprei x por y para obra z".`
)

var (
	// ErrNoMessage ...
	ErrNoMessage = errors.New("envelope has no message")

	// ErrInvalidSignature ...
	ErrInvalidSignature = errors.New("invalid payload signature")
)

// NewHandler ...
func NewHandler(conf *config.WhatsApp, deps Deps) *Handler {
	h := &Handler{
		conf: conf,
		deps: deps,
	}
	if len(conf.AllowedSenders) > 0 {
		h.allowedSenders = make(map[string]struct{}, len(conf.AllowedSenders))
		for _, s := range conf.AllowedSenders {
			h.allowedSenders[s] = struct{}{}
		}
	}
	return h
}

// ServeHTTP dispatches on the method so the Handler can be mounted as a
// single Cloud Function.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.Verify(w, r)
	case http.MethodPost:
		h.Receive(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		replyStatusCode(w, http.StatusMethodNotAllowed)
	}
}

// Verify answers the subscription handshake.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get(queryMode)
	token := q.Get(queryVerifyToken)
	challenge := q.Get(queryChallenge)

	if mode == "" || token == "" {
		replyStatusCode(w, http.StatusBadRequest)
		return
	}
	if mode != modeSubscribe || !hmac.Equal([]byte(token), []byte(h.conf.VerifyToken)) {
		logrus.Warn("webhook verification failed")
		replyStatusCode(w, http.StatusForbidden)
		return
	}

	logrus.Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// Receive acknowledges every well-formed envelope with 200, processing the
// message before replying.
func (h *Handler) Receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	if err != nil {
		logrus.WithError(err).Error("error reading webhook body")
		replyStatusCode(w, http.StatusBadRequest)
		return
	}
	if len(body) > MaxBodyBytes {
		logrus.Warnf("webhook body larger than %d bytes", MaxBodyBytes)
		replyStatusCode(w, http.StatusRequestEntityTooLarge)
		return
	}

	if err := h.checkSignature(r.Header.Get(headerSignature), body); err != nil {
		logrus.WithError(err).Warn("rejecting webhook delivery")
		replyStatusCode(w, http.StatusUnauthorized)
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logrus.WithError(err).Warn("error unmarshaling webhook payload")
		replyStatusCode(w, http.StatusBadRequest)
		return
	}
	if payload.Object == "" {
		replyStatusCode(w, http.StatusNotFound)
		return
	}

	h.process(context.WithoutCancel(r.Context()), &payload)
	replyStatusCode(w, http.StatusOK)
}

func (h *Handler) checkSignature(header string, body []byte) error {
	if h.conf.AppSecret == "" {
		return nil
	}
	got, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil || !strings.HasPrefix(header, signaturePrefix) {
		return fmt.Errorf("%w: malformed header", ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, []byte(h.conf.AppSecret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// process never lets a failure reach the HTTP response.
func (h *Handler) process(ctx context.Context, payload *whatsapp.WebhookPayload) {
	defer func() {
		if p := recover(); p != nil {
			logrus.Errorf("panic processing webhook: %v\n%s", p, debug.Stack())
		}
	}()

	if err := h.handleMessage(ctx, payload); err != nil {
		if errors.Is(err, ErrNoMessage) {
			logrus.Debug("envelope without messages, nothing to do")
			return
		}
		logrus.WithError(err).Error("error handling message")
	}
}

func (h *Handler) handleMessage(ctx context.Context, payload *whatsapp.WebhookPayload) error {
	msg := payload.FirstMessage()
	if msg == nil {
		return ErrNoMessage
	}
	l := logrus.WithField("from", msg.From).WithField("message_id", msg.ID).WithField("type", msg.Type)

	if h.shouldSkip(msg.From) {
		l.Warn("message from sender not allowed, skipping")
		return nil
	}
	l.Info("message received")

	record := h.extract(ctx, msg)
	if record == nil {
		l.Info("no record extracted")
		return h.reply(ctx, msg.From, FailureReply)
	}

	h.deps.Recorder.AddRow(ctx, record)
	h.publish(ctx, l, msg, record)
	return h.reply(ctx, msg.From, record.ConfirmationMessage())
}

func (h *Handler) shouldSkip(from string) bool {
	if h.allowedSenders == nil {
		return false
	}
	_, ok := h.allowedSenders[from]
	return !ok
}

func (h *Handler) extract(ctx context.Context, msg *whatsapp.Message) *models.ExpenseRecord {
	switch msg.Type {
	case whatsapp.MessageTypeText:
		if msg.Text == nil {
			return nil
		}
		return h.deps.Extractor.ParseText(ctx, msg.Text.Body)
	case whatsapp.MessageTypeAudio, whatsapp.MessageTypeImage:
		m := msg.Media()
		if m == nil {
			return nil
		}
		if msg.Type == whatsapp.MessageTypeAudio {
			return h.deps.Extractor.ParseAudio(ctx, m.ID, m.MimeType)
		}
		return h.deps.Extractor.ParseImage(ctx, m.ID, m.MimeType)
	default:
		logrus.Infof("unsupported message type '%s'", msg.Type)
		return nil
	}
}

func (h *Handler) publish(ctx context.Context, l *logrus.Entry, msg *whatsapp.Message, record *models.ExpenseRecord) {
	if h.deps.Publisher == nil {
		return
	}
	id, err := h.deps.Publisher.Publish(ctx, &events.ExpenseRecorded{
		From:        msg.From,
		MessageID:   msg.ID,
		MessageType: msg.Type,
		Record:      record,
		RecordedAt:  time.Now(),
	})
	if err != nil {
		if errors.Is(err, events.ErrServiceNotConfigured) {
			l.Debug("events not configured, skipping publish")
			return
		}
		l.WithError(err).Warn("error publishing expense event")
		return
	}
	l.WithField("event_id", id).Debug("expense event published")
}

func (h *Handler) reply(ctx context.Context, to, body string) error {
	if err := h.deps.Messenger.SendText(ctx, to, body); err != nil {
		return fmt.Errorf("error sending reply: %w", err)
	}
	return nil
}

// Health ...
func Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func replyStatusCode(w http.ResponseWriter, statusCode int) {
	w.WriteHeader(statusCode)
	w.Write([]byte(http.StatusText(statusCode)))
}
