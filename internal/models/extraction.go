package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

const (
	FieldMerchantName = "merchant_name"
	FieldTotalAmount  = "total_amount"
	FieldDate         = "date"
	FieldCategory     = "category"
	FieldDocType      = "doc_type"

	UnreadableMerchant = "Unreadable"
)

var errExtractionNotObject = errors.New("extraction is not a JSON object")

// ExtractedRecord is the structured data the AI model read off a receipt or
// invoice. The five canonical fields are typed; Fields keeps every key the
// model returned, canonical ones included, and is what gets persisted.
type ExtractedRecord struct {
	MerchantName string
	TotalAmount  float64
	Date         string
	Category     string
	DocType      string
	Fields       map[string]any

	unreadable bool
}

// UnreadableExtraction is the record used when the model output cannot be parsed.
func UnreadableExtraction() *ExtractedRecord {
	return &ExtractedRecord{
		MerchantName: UnreadableMerchant,
		Fields: map[string]any{
			FieldMerchantName: UnreadableMerchant,
			FieldTotalAmount:  0,
		},
		unreadable: true,
	}
}

func (r *ExtractedRecord) Unreadable() bool {
	return r.unreadable
}

// Extra returns the non-canonical fields (invoice numbers, taxes, line items...).
func (r *ExtractedRecord) Extra() map[string]any {
	extra := make(map[string]any, len(r.Fields))
	for k, v := range r.Fields {
		switch k {
		case FieldMerchantName, FieldTotalAmount, FieldDate, FieldCategory, FieldDocType:
			continue
		}
		extra[k] = v
	}
	return extra
}

func (r *ExtractedRecord) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return err
	}
	if fields == nil {
		return errExtractionNotObject
	}

	*r = ExtractedRecord{
		MerchantName: stringField(fields[FieldMerchantName]),
		TotalAmount:  numberField(fields[FieldTotalAmount]),
		Date:         stringField(fields[FieldDate]),
		Category:     stringField(fields[FieldCategory]),
		DocType:      stringField(fields[FieldDocType]),
		Fields:       fields,
	}
	return nil
}

func (r ExtractedRecord) MarshalJSON() ([]byte, error) {
	if r.Fields != nil {
		return json.Marshal(r.Fields)
	}
	return json.Marshal(map[string]any{
		FieldMerchantName: r.MerchantName,
		FieldTotalAmount:  r.TotalAmount,
		FieldDate:         r.Date,
		FieldCategory:     r.Category,
		FieldDocType:      r.DocType,
	})
}

func stringField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

// numberField accepts JSON numbers and numeric strings such as "1,250.00".
func numberField(v any) float64 {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case float64:
		return t
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(t, ",", ""))
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}
