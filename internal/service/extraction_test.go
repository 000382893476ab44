package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "```json\n{\"a\":1}\n```", want: `{"a":1}`},
		{in: "```\n{\"a\":1}\n```\n", want: `{"a":1}`},
		{in: `  {"a":1}  `, want: `{"a":1}`},
		{in: "Here you go: ```json {\"a\":1} ```", want: `Here you go:  {"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stripCodeFences(tt.in))
	}
}

func TestParseExtraction(t *testing.T) {
	rec := ParseExtraction("```json\n{\"merchant_name\":\"Acme\",\"total_amount\":42.5,\"date\":\"2024-01-01\",\"category\":\"Travel\",\"doc_type\":\"Receipt\",\"gstin_supplier\":\"29ABCDE1234F1Z5\"}\n```")

	require.False(t, rec.Unreadable())
	assert.Equal(t, "Acme", rec.MerchantName)
	assert.Equal(t, 42.5, rec.TotalAmount)
	assert.Equal(t, "2024-01-01", rec.Date)
	assert.Equal(t, "Travel", rec.Category)
	assert.Equal(t, "Receipt", rec.DocType)
	assert.Equal(t, map[string]any{"gstin_supplier": "29ABCDE1234F1Z5"}, rec.Extra())
}

func TestParseExtractionFallsBackToSentinel(t *testing.T) {
	inputs := []string{
		"",
		"not json",
		"```json\n[1,2]\n```",
		"[]",
		"```json\n[]\n```",
		"null",
		"```json\nnull\n```",
		`"Acme"`,
		"42",
		`{"merchant_name":`,
		"```json\n{\"merchant_name\":\"Acme\",\"total_amount\":12}\n```\nLet me know if you need anything else.",
		"Sure! Here is the data: {\"merchant_name\":\"Acme\"}",
	}
	for _, text := range inputs {
		rec := ParseExtraction(text)
		assert.True(t, rec.Unreadable(), text)
		assert.Equal(t, "Unreadable", rec.MerchantName, text)
		assert.Zero(t, rec.TotalAmount, text)
		assert.Empty(t, rec.Extra(), text)
	}
}

func TestReplySaved(t *testing.T) {
	assert.Equal(t, "✅ Saved!\n\n🏪 Acme\n💰 ₹42.5", replySaved("Acme", 42.5, "₹"))
	assert.Equal(t, "✅ Saved!\n\n🏪 Unknown\n💰 $1250", replySaved("", 1250, "$"))
}
