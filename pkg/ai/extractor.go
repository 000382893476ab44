package ai

import "context"

// ImageExtractor answers a prompt about an image. Implementations return the
// model's raw text; callers are responsible for parsing it.
type ImageExtractor interface {
	ExtractFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}
