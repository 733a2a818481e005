package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheuscscp/obrawiser/models"

	"cloud.google.com/go/pubsub"
)

type (
	// Service publishes one event per recorded expense.
	Service interface {
		Publish(ctx context.Context, event *ExpenseRecorded) (id string, err error)
		Close()
	}

	// ExpenseRecorded is the payload of the messages published to the topic.
	ExpenseRecorded struct {
		From        string                `json:"from"`
		MessageID   string                `json:"messageId"`
		MessageType string                `json:"messageType"`
		Record      *models.ExpenseRecord `json:"record"`
		RecordedAt  time.Time             `json:"recordedAt"`
	}

	service struct {
		client *pubsub.Client
		topic  *pubsub.Topic
	}
)

const (
	messageTypeAttribute = "messageType"
)

var (
	// ErrServiceNotConfigured ...
	ErrServiceNotConfigured = errors.New("the pubsub client was not configured with a projectID and a topicID")
)

// NewService returns a no-op Service when either projectID or topicID is empty.
func NewService(ctx context.Context, projectID, topicID string) (Service, error) {
	if projectID == "" || topicID == "" {
		return &service{}, nil
	}
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("error creating pubsub client: %w", err)
	}
	return NewServiceWithClient(client, topicID), nil
}

// NewServiceWithClient takes ownership of client.
func NewServiceWithClient(client *pubsub.Client, topicID string) Service {
	return &service{
		client: client,
		topic:  client.Topic(topicID),
	}
}

func (s *service) Close() {
	if s.client == nil {
		return
	}
	s.topic.Stop()
	s.client.Close()
}

func (s *service) Publish(ctx context.Context, event *ExpenseRecorded) (id string, err error) {
	if s.client == nil {
		return "", ErrServiceNotConfigured
	}
	data, err := json.Marshal(event)
	if err != nil {
		return "", fmt.Errorf("error marshaling event: %w", err)
	}
	msg := &pubsub.Message{
		Data:       data,
		Attributes: map[string]string{messageTypeAttribute: event.MessageType},
	}
	id, err = s.topic.Publish(ctx, msg).Get(ctx)
	if err != nil {
		return "", fmt.Errorf("error publishing pubsub message: %w", err)
	}
	return
}
