package obrawiser

import (
	"net/http"
	_ "time/tzdata"

	"github.com/matheuscscp/obrawiser/internal/webhook"
)

var webhookHandler = webhook.NewLazyHandler(webhook.BuildFromEnv)

// Webhook is an HTTP Cloud Function. The services are built on the first
// request and reused by the instance afterwards.
func Webhook(w http.ResponseWriter, r *http.Request) {
	webhookHandler.ServeHTTP(w, r)
}
