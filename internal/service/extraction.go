package service

import (
	"encoding/json"
	"strings"

	"expense-bot/internal/models"
)

// extractionPrompt asks for the five canonical fields plus every other field
// visible on the document.
const extractionPrompt = `You are an expert AI Data Extractor for accounting.
Extract ALL data from this image (which could be a Receipt, Tax Invoice, Purchase Order or Bank Statement).

Return a single JSON object with these specific requirements:

1. STANDARD FIELDS (use these exact keys):
   - "merchant_name": (string) Name of the vendor/seller.
   - "total_amount": (number) The final grand total.
   - "date": (string) YYYY-MM-DD.
   - "category": (string) Infer category (e.g. 'Travel', 'Inventory', 'Utilities').
   - "doc_type": (string) e.g. 'Invoice', 'Receipt', 'PO'.

2. COMPREHENSIVE EXTRACTION:
   - Extract EVERY other visible field as a key-value pair.
   - Look specifically for: "invoice_number", "po_number", "gstin_supplier", "gstin_buyer", "base_amount", "tax_amount" (IGST/CGST/SGST), "line_items" (as an array if possible).
   - If you see an address, extract it.`

// stripCodeFences removes Markdown code fences the model wraps JSON in.
func stripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

// ParseExtraction decodes the model output. Output that is not a JSON object
// yields the unreadable sentinel.
func ParseExtraction(text string) *models.ExtractedRecord {
	var parsed models.ExtractedRecord
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		return models.UnreadableExtraction()
	}
	return &parsed
}
