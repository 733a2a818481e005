package rotatesecret

import (
	"context"
	"fmt"

	_ "github.com/matheuscscp/obrawiser/logging"
	"github.com/matheuscscp/obrawiser/services/secrets"

	"github.com/sirupsen/logrus"
)

const (
	// EventTypeRotate is the Secret Manager notification that asks for a
	// new version.
	EventTypeRotate = "SECRET_ROTATE"
)

// Run rotates the given secret.
func Run(ctx context.Context, secretID string) error {
	secretsService, err := secrets.NewService(ctx)
	if err != nil {
		return fmt.Errorf("error creating secrets service: %w", err)
	}
	defer secretsService.Close()
	return Rotate(ctx, secretsService, secretID)
}

// Rotate ...
func Rotate(ctx context.Context, secretsService secrets.Service, secretID string) error {
	if secretID == "" {
		return fmt.Errorf("empty secret id")
	}
	if err := secretsService.Rotate(ctx, secretID); err != nil {
		return fmt.Errorf("error rotating secret '%s': %w", secretID, err)
	}
	logrus.WithField("secret_id", secretID).Info("secret rotation done")
	return nil
}

// HandleEvent rotates the secret of a Secret Manager notification and skips
// every other event type.
func HandleEvent(ctx context.Context, eventType, secretID string, rotate func(ctx context.Context, secretID string) error) error {
	if eventType != EventTypeRotate {
		logrus.Infof("event %s skipped on secret %s", eventType, secretID)
		return nil
	}
	return rotate(ctx, secretID)
}
