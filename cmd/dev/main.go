package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/matheuscscp/obrawiser/internal/webhook"

	"github.com/sirupsen/logrus"
)

// Runs the webhook locally with the credentials of a downloaded service
// account key and debug logs.
func main() {
	os.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "gcloud.json")
	logrus.SetLevel(logrus.DebugLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := webhook.Run(ctx); err != nil {
		logrus.Fatal(err)
	}
}
