package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const (
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
)

// SignatureMiddleware rejects POST requests whose X-Hub-Signature-256 header
// is not the HMAC-SHA256 of the body keyed with appSecret. An empty secret
// disables the check.
func SignatureMiddleware(appSecret string, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if appSecret == "" || c.Method() != fiber.MethodPost {
			return c.Next()
		}

		if !ValidSignature(appSecret, c.Body(), c.Get(SignatureHeader)) {
			logger.Warn("Invalid webhook signature", zap.String("ip", c.IP()))
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// ValidSignature reports whether header ("sha256=<hex>") signs body.
func ValidSignature(appSecret string, body []byte, header string) bool {
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	received, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(appSecret))
	mac.Write(body)
	return hmac.Equal(received, mac.Sum(nil))
}
