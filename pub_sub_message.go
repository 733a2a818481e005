package obrawiser

type (
	// PubSubMessage is the payload of a Pub/Sub event.
	// See the documentation for more details:
	// https://cloud.google.com/pubsub/docs/reference/rest/v1/PubsubMessage
	PubSubMessage struct {
		Attributes PubSubAttributes `json:"attributes"`
		Data       []byte           `json:"data"`
		MessageID  string           `json:"messageId"`
	}

	// PubSubAttributes are attributes from the Secret Manager notification.
	PubSubAttributes struct {
		EventType string `json:"eventType"`
		SecretID  string `json:"secretId"`
	}
)
