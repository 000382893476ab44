package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractedRecordUnmarshal(t *testing.T) {
	raw := `{
		"merchant_name": "Acme",
		"total_amount": 42.5,
		"date": "2024-01-01",
		"category": "Travel",
		"doc_type": "Receipt",
		"invoice_number": "INV-7",
		"line_items": [{"name": "Taxi", "amount": 42.5}]
	}`

	var rec ExtractedRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	assert.Equal(t, "Acme", rec.MerchantName)
	assert.Equal(t, 42.5, rec.TotalAmount)
	assert.Equal(t, "2024-01-01", rec.Date)
	assert.Equal(t, "Travel", rec.Category)
	assert.Equal(t, "Receipt", rec.DocType)
	assert.False(t, rec.Unreadable())

	extra := rec.Extra()
	assert.Len(t, extra, 2)
	assert.Equal(t, "INV-7", extra["invoice_number"])
	assert.Contains(t, extra, "line_items")
}

func TestExtractedRecordAmountFromString(t *testing.T) {
	var rec ExtractedRecord
	require.NoError(t, json.Unmarshal([]byte(`{"merchant_name":"Shop","total_amount":"1,250.75"}`), &rec))
	assert.Equal(t, 1250.75, rec.TotalAmount)

	require.NoError(t, json.Unmarshal([]byte(`{"total_amount":"n/a"}`), &rec))
	assert.Zero(t, rec.TotalAmount)
	assert.Empty(t, rec.MerchantName)
}

func TestExtractedRecordRejectsNonObjects(t *testing.T) {
	for _, raw := range []string{`null`, `[1,2]`, `"text"`, `42`} {
		var rec ExtractedRecord
		assert.Error(t, json.Unmarshal([]byte(raw), &rec), raw)
	}
}

func TestExtractedRecordMarshalKeepsEveryField(t *testing.T) {
	raw := `{"merchant_name":"Acme","total_amount":10,"tax_amount":{"cgst":0.9,"sgst":0.9}}`

	var rec ExtractedRecord
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestUnreadableExtraction(t *testing.T) {
	rec := UnreadableExtraction()

	assert.True(t, rec.Unreadable())
	assert.Equal(t, UnreadableMerchant, rec.MerchantName)
	assert.Zero(t, rec.TotalAmount)

	out, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"merchant_name":"Unreadable","total_amount":0}`, string(out))
}

func TestUserDisplayNameAndEntitlement(t *testing.T) {
	u := &User{}
	assert.Equal(t, "Staff", u.DisplayName())
	assert.False(t, u.Entitled())

	u.Name = "Priya"
	u.Tenant.SubscriptionStatus = SubscriptionActive
	assert.Equal(t, "Priya", u.DisplayName())
	assert.True(t, u.Entitled())
}
