package dto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstMessage(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
		want   Message
	}{
		{
			name:   "image message",
			body:   `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"919800000000","type":"image","image":{"id":"media-1","mime_type":"image/png"}}]}}]}]}`,
			wantOK: true,
			want: Message{
				From:  "919800000000",
				Type:  MessageTypeImage,
				Image: &Media{ID: "media-1", MimeType: "image/png"},
			},
		},
		{
			name:   "text message",
			body:   `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text","text":{"body":"hi"}}]}}]}]}`,
			wantOK: true,
			want:   Message{From: "1", Type: MessageTypeText, Text: &TextBody{Body: "hi"}},
		},
		{name: "other object", body: `{"object":"page","entry":[{"changes":[{"value":{"messages":[{"from":"1","type":"text"}]}}]}]}`},
		{name: "empty body", body: `{}`},
		{name: "no entry", body: `{"object":"whatsapp_business_account","entry":[]}`},
		{name: "no changes", body: `{"object":"whatsapp_business_account","entry":[{}]}`},
		{name: "null value", body: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":null}]}]}`},
		{name: "status update", body: `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"x"}]}}]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var env WebhookEnvelope
			require.NoError(t, json.Unmarshal([]byte(tt.body), &env))

			got, ok := env.FirstMessage()
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFirstMessageNilEnvelope(t *testing.T) {
	var env *WebhookEnvelope
	_, ok := env.FirstMessage()
	assert.False(t, ok)
}

func TestNewSendTextRequest(t *testing.T) {
	out, err := json.Marshal(NewSendTextRequest("919800000000", "hello"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"messaging_product":"whatsapp","to":"919800000000","type":"text","text":{"body":"hello"}}`, string(out))
}
