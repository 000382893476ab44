package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"expense-bot/internal/dto"
	"expense-bot/pkg/config"

	"go.uber.org/zap"
)

const defaultMaxMediaBytes int64 = 16 << 20

var (
	// ErrNoMediaURL is returned when the media endpoint answers without a download URL.
	ErrNoMediaURL = errors.New("graph api returned no media url")
	// ErrMediaTooLarge is returned when a download exceeds the configured cap.
	ErrMediaTooLarge = errors.New("media too large")
)

// Client talks to the WhatsApp Cloud API (Graph API) with a system user token.
type Client struct {
	baseURL       string
	phoneID       string
	token         string
	maxMediaBytes int64
	httpClient    *http.Client
	logger        *zap.Logger
}

func NewClient(cfg *config.WhatsAppConfig, logger *zap.Logger) *Client {
	maxMedia := cfg.MaxMediaBytes
	if maxMedia <= 0 {
		maxMedia = defaultMaxMediaBytes
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.GraphURL, "/"),
		phoneID:       cfg.PhoneID,
		token:         cfg.APIToken,
		maxMediaBytes: maxMedia,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		logger:        logger,
	}
}

// SendText sends a plain text message to the given WhatsApp number.
func (c *Client) SendText(ctx context.Context, to, body string) error {
	payload, err := json.Marshal(dto.NewSendTextRequest(to, body))
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	url := fmt.Sprintf("%s/%s/messages", c.baseURL, c.phoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp sendResponse
	if err := c.doJSON(req, &resp); err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	messageID := ""
	if len(resp.Messages) > 0 {
		messageID = resp.Messages[0].ID
	}
	c.logger.Info("WhatsApp message sent", zap.String("to", to), zap.String("message_id", messageID))
	return nil
}

// MediaURL resolves a media id to its short-lived download URL.
func (c *Client) MediaURL(ctx context.Context, mediaID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.baseURL, mediaID), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	var resp mediaResponse
	if err := c.doJSON(req, &resp); err != nil {
		return "", fmt.Errorf("failed to get media info: %w", err)
	}
	if resp.URL == "" {
		return "", fmt.Errorf("media %s: %w", mediaID, ErrNoMediaURL)
	}
	return resp.URL, nil
}

// Download fetches the binary behind a URL returned by MediaURL.
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download failed with status %d", resp.StatusCode)
	}

	limited := &io.LimitedReader{R: resp.Body, N: c.maxMediaBytes + 1}
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read media: %w", err)
	}
	if int64(len(data)) > c.maxMediaBytes {
		return nil, fmt.Errorf("%w: max %d bytes", ErrMediaTooLarge, c.maxMediaBytes)
	}

	c.logger.Debug("Media downloaded", zap.Int("bytes", len(data)))
	return data, nil
}

func (c *Client) doJSON(req *http.Request, out any) error {
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	var apiErr errorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error != nil {
		return apiErr.Error
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("graph api status %d: %s", resp.StatusCode, string(body))
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type mediaResponse struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	FileSize int64  `json:"file_size"`
	ID       string `json:"id"`
}

type errorResponse struct {
	Error *APIError `json:"error"`
}

// APIError is the error object the Graph API embeds in failed responses.
type APIError struct {
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	FBTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("graph api error %d (%s): %s", e.Code, e.Type, e.Message)
}
