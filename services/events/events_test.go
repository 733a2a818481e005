package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/matheuscscp/obrawiser/models"
	"github.com/matheuscscp/obrawiser/services/events"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/pubsub/pstest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

func TestPublish(t *testing.T) {
	ctx := context.Background()

	srv := pstest.NewServer()
	defer srv.Close()
	conn, err := grpc.NewClient(srv.Addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()

	client, err := pubsub.NewClient(ctx, "obrawiser", option.WithGRPCConn(conn))
	require.NoError(t, err)
	_, err = client.CreateTopic(ctx, "expenses")
	require.NoError(t, err)

	svc := events.NewServiceWithClient(client, "expenses")
	defer svc.Close()

	recordedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	id, err := svc.Publish(ctx, &events.ExpenseRecorded{
		From:        "5511999999999",
		MessageID:   "wamid.1",
		MessageType: "text",
		Record: &models.ExpenseRecord{
			Item:     "cimento",
			Price:    50,
			Quantity: "N/A",
			Category: "N/A",
			Project:  "Centro",
		},
		RecordedAt: recordedAt,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs := srv.Messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "text", msgs[0].Attributes["messageType"])

	var event events.ExpenseRecorded
	require.NoError(t, json.Unmarshal(msgs[0].Data, &event))
	assert.Equal(t, "5511999999999", event.From)
	assert.Equal(t, "wamid.1", event.MessageID)
	assert.Equal(t, models.Text("Centro"), event.Record.Project)
	assert.True(t, recordedAt.Equal(event.RecordedAt))
}

func TestPublishNotConfigured(t *testing.T) {
	for _, tt := range []struct {
		name      string
		projectID string
		topicID   string
	}{
		{name: "no project", topicID: "expenses"},
		{name: "no topic", projectID: "obrawiser"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := events.NewService(context.Background(), tt.projectID, tt.topicID)
			require.NoError(t, err)
			defer svc.Close()

			_, err = svc.Publish(context.Background(), &events.ExpenseRecorded{})
			assert.ErrorIs(t, err, events.ErrServiceNotConfigured)
		})
	}
}
