package service

import (
	"fmt"
	"strconv"
)

const (
	replyProcessing     = "🤖 Reading your receipt..."
	replyProcessingFail = "❌ Error reading file. Please try again."
	replyImagesOnly     = "⚠️ Please send an *Image (JPG/PNG)* of the document. PDF and other files are not processed."
	unknownMerchant     = "Unknown"
)

func replyInactive(name string) string {
	return fmt.Sprintf("Hi %s, account Inactive.", name)
}

func replyGreeting(name string) string {
	return fmt.Sprintf("👋 Hi %s! Send me a receipt photo.", name)
}

func replySaved(merchant string, amount float64, currencySymbol string) string {
	if merchant == "" {
		merchant = unknownMerchant
	}
	return fmt.Sprintf("✅ Saved!\n\n🏪 %s\n💰 %s%s", merchant, currencySymbol, strconv.FormatFloat(amount, 'f', -1, 64))
}
