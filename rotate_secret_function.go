package obrawiser

import (
	"context"

	"github.com/matheuscscp/obrawiser/internal/rotatesecret"
)

// RotateSecret is a Pub/Sub Cloud Function subscribed to Secret Manager
// notifications.
func RotateSecret(ctx context.Context, m PubSubMessage) error {
	return rotatesecret.HandleEvent(ctx, m.Attributes.EventType, m.Attributes.SecretID, rotatesecret.Run)
}
