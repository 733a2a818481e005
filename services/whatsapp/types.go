package whatsapp

// Inbound webhook envelope.
// Reference: https://developers.facebook.com/docs/whatsapp/cloud-api/webhooks/components

type (
	// WebhookPayload is the envelope of one webhook delivery. Object is the
	// discriminator: Meta always sends "whatsapp_business_account".
	WebhookPayload struct {
		Object string  `json:"object"`
		Entry  []Entry `json:"entry"`
	}

	// Entry ...
	Entry struct {
		ID      string   `json:"id"`
		Changes []Change `json:"changes"`
	}

	// Change ...
	Change struct {
		Field string      `json:"field"`
		Value ChangeValue `json:"value"`
	}

	// ChangeValue carries either messages or delivery statuses.
	ChangeValue struct {
		MessagingProduct string    `json:"messaging_product"`
		Metadata         Metadata  `json:"metadata"`
		Contacts         []Contact `json:"contacts"`
		Messages         []Message `json:"messages"`
		Statuses         []Status  `json:"statuses"`
	}

	// Metadata ...
	Metadata struct {
		DisplayPhoneNumber string `json:"display_phone_number"`
		PhoneNumberID      string `json:"phone_number_id"`
	}

	// Contact ...
	Contact struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	}

	// Message is one inbound message. Exactly one of the content fields is
	// set, according to Type.
	Message struct {
		From      string       `json:"from"`
		ID        string       `json:"id"`
		Timestamp string       `json:"timestamp"`
		Type      string       `json:"type"`
		Text      *TextContent `json:"text,omitempty"`
		Audio     *MediaObject `json:"audio,omitempty"`
		Image     *MediaObject `json:"image,omitempty"`
	}

	// TextContent ...
	TextContent struct {
		Body string `json:"body"`
	}

	// MediaObject references a media upload that must be resolved through
	// the Graph API before download.
	MediaObject struct {
		ID       string `json:"id"`
		MimeType string `json:"mime_type"`
		SHA256   string `json:"sha256"`
		Caption  string `json:"caption"`
		Voice    bool   `json:"voice"`
	}

	// Status is a delivery/read receipt for a message we sent.
	Status struct {
		ID          string `json:"id"`
		Status      string `json:"status"`
		Timestamp   string `json:"timestamp"`
		RecipientID string `json:"recipient_id"`
	}
)

// Message types handled by the bot.
const (
	MessageTypeText  = "text"
	MessageTypeAudio = "audio"
	MessageTypeImage = "image"
)

// FirstMessage returns the first message of the first change of the first
// entry, which is where Meta puts the single message of a delivery.
func (p *WebhookPayload) FirstMessage() *Message {
	if len(p.Entry) == 0 || len(p.Entry[0].Changes) == 0 {
		return nil
	}
	messages := p.Entry[0].Changes[0].Value.Messages
	if len(messages) == 0 {
		return nil
	}
	return &messages[0]
}

// Media returns the media object of audio and image messages.
func (m *Message) Media() *MediaObject {
	switch m.Type {
	case MessageTypeAudio:
		return m.Audio
	case MessageTypeImage:
		return m.Image
	default:
		return nil
	}
}

type (
	textMessage struct {
		MessagingProduct string      `json:"messaging_product"`
		RecipientType    string      `json:"recipient_type"`
		To               string      `json:"to"`
		Type             string      `json:"type"`
		Text             textPayload `json:"text"`
	}

	textPayload struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	}

	// MediaInfo is the Graph API description of an uploaded media.
	MediaInfo struct {
		ID       string `json:"id"`
		URL      string `json:"url"`
		MimeType string `json:"mime_type"`
		SHA256   string `json:"sha256"`
		FileSize int64  `json:"file_size"`
	}

	apiErrorResponse struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
)
