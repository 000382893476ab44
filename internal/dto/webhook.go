package dto

// BusinessAccountObject is the envelope object type WhatsApp Cloud API uses
// for message notifications.
const BusinessAccountObject = "whatsapp_business_account"

type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypeImage    MessageType = "image"
	MessageTypeDocument MessageType = "document"
)

// WebhookEnvelope is the notification body posted by the Graph API.
// Every level is optional; use FirstMessage to navigate it.
type WebhookEnvelope struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

type WebhookChange struct {
	Field string        `json:"field"`
	Value *WebhookValue `json:"value"`
}

type WebhookValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Messages         []Message `json:"messages"`
}

// Message is one inbound user message.
type Message struct {
	ID        string      `json:"id"`
	From      string      `json:"from"`
	Timestamp string      `json:"timestamp"`
	Type      MessageType `json:"type"`
	Text      *TextBody   `json:"text,omitempty"`
	Image     *Media      `json:"image,omitempty"`
	Document  *Media      `json:"document,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// Media references an attachment held by the Graph API.
type Media struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

// FirstMessage returns entry[0].changes[0].value.messages[0] for business
// account notifications. Missing levels yield false, never a panic.
func (e *WebhookEnvelope) FirstMessage() (Message, bool) {
	if e == nil || e.Object != BusinessAccountObject {
		return Message{}, false
	}
	value := e.firstValue()
	if value == nil || len(value.Messages) == 0 {
		return Message{}, false
	}
	return value.Messages[0], true
}

func (e *WebhookEnvelope) firstValue() *WebhookValue {
	if len(e.Entry) == 0 || len(e.Entry[0].Changes) == 0 {
		return nil
	}
	return e.Entry[0].Changes[0].Value
}

// SendTextRequest is the payload of the messages endpoint for plain text replies.
type SendTextRequest struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             TextBody `json:"text"`
}

// NewSendTextRequest builds a WhatsApp text reply.
func NewSendTextRequest(to, body string) SendTextRequest {
	return SendTextRequest{
		MessagingProduct: "whatsapp",
		To:               to,
		Type:             "text",
		Text:             TextBody{Body: body},
	}
}
