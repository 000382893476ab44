package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"expense-bot/pkg/config"

	"github.com/Role1776/gigago"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	gigaChatBaseURL  = "https://gigachat.devices.sberbank.ru/api/v1"
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"
	gigaChatModel    = "GigaChat"

	gigaChatOCRPrompt = `Extract all text visible on this financial document (receipt, invoice, purchase order or bank statement).
Return only the text, keeping line structure and table rows. Do not add comments.`
)

var errUnauthorized = errors.New("gigachat: unauthorized")

// GigaChatExtractor reads a document in two steps: the vision endpoint turns
// the uploaded image into plain text, then the generative model structures
// that text according to the caller's prompt.
type GigaChatExtractor struct {
	client     *gigago.Client
	model      *gigago.GenerativeModel
	cfg        *config.GigaChatConfig
	httpClient *http.Client
	baseURL    string
	oauthURL   string
	logger     *zap.Logger

	structure func(ctx context.Context, prompt, text string) (string, error)

	mu          sync.Mutex
	accessToken string
}

func NewGigaChatExtractor(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*GigaChatExtractor, error) {
	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}

	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(gigaChatModel)
	model.SystemInstruction = "You are an accounting data extractor. Answer with a single JSON object and nothing else."
	model.Temperature = 0.1

	g := &GigaChatExtractor{
		client:     client,
		model:      model,
		cfg:        cfg,
		httpClient: httpClient,
		baseURL:    gigaChatBaseURL,
		oauthURL:   gigaChatOAuthURL,
		logger:     logger,
	}
	g.structure = g.generate
	return g, nil
}

// ExtractFromImage implements ImageExtractor.
func (g *GigaChatExtractor) ExtractFromImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error) {
	fileID, err := g.uploadFile(ctx, image, mimeType)
	if err != nil {
		return "", err
	}

	text, err := g.readText(ctx, fileID)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", fmt.Errorf("gigachat vision returned no text")
	}

	content, err := g.structure(ctx, prompt, text)
	if err != nil {
		return "", err
	}

	g.logger.Info("GigaChat extraction completed",
		zap.String("file_id", fileID),
		zap.Int("ocr_length", len(text)),
	)
	return sanitizeUTF8(content), nil
}

// generate asks the generative model to turn OCR text into the prompt's JSON.
func (g *GigaChatExtractor) generate(ctx context.Context, prompt, text string) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: prompt + "\n\nDocument text:\n" + text},
	}
	resp, err := g.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}
	return resp.Choices[0].Message.Content, nil
}

func (g *GigaChatExtractor) Close() error {
	if g.client != nil {
		g.client.Close()
	}
	return nil
}

func (g *GigaChatExtractor) uploadFile(ctx context.Context, image []byte, mimeType string) (string, error) {
	var uploadResp struct {
		ID string `json:"id"`
	}
	err := g.doAuthorized(ctx, func() (*http.Request, error) {
		var body bytes.Buffer
		writer := multipart.NewWriter(&body)
		if err := writer.WriteField("purpose", "general"); err != nil {
			return nil, err
		}
		part, err := writer.CreatePart(map[string][]string{
			"Content-Type":        {mimeType},
			"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="receipt%s"`, extensionFor(mimeType))},
		})
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(image); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/files", &body)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	}, &uploadResp)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	if uploadResp.ID == "" {
		return "", fmt.Errorf("upload returned no file id")
	}
	return uploadResp.ID, nil
}

func (g *GigaChatExtractor) readText(ctx context.Context, fileID string) (string, error) {
	payload, err := json.Marshal(map[string]any{
		"model": gigaChatModel,
		"messages": []map[string]any{
			{
				"role":        "user",
				"content":     gigaChatOCRPrompt,
				"attachments": []string{fileID},
			},
		},
		"temperature": 0.1,
		"stream":      false,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	var visionResp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	err = g.doAuthorized(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	}, &visionResp)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	if len(visionResp.Choices) == 0 {
		return "", fmt.Errorf("no response from Vision API")
	}
	return strings.TrimSpace(sanitizeUTF8(visionResp.Choices[0].Message.Content)), nil
}

// doAuthorized sends the request built by build, refreshing the access token
// and resending once when the API answers 401. Other failures are returned as is.
func (g *GigaChatExtractor) doAuthorized(ctx context.Context, build func() (*http.Request, error), out any) error {
	err := g.doOnce(ctx, build, out, false)
	if errors.Is(err, errUnauthorized) {
		g.logger.Info("GigaChat token rejected, refreshing")
		err = g.doOnce(ctx, build, out, true)
	}
	return err
}

func (g *GigaChatExtractor) doOnce(ctx context.Context, build func() (*http.Request, error), out any, refresh bool) error {
	token, err := g.token(ctx, refresh)
	if err != nil {
		return err
	}
	req, err := build()
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return errUnauthorized
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (g *GigaChatExtractor) token(ctx context.Context, refresh bool) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.accessToken != "" && !refresh {
		return g.accessToken, nil
	}

	formData := url.Values{}
	formData.Set("scope", g.cfg.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauthURL, strings.NewReader(formData.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.New().String())
	req.Header.Set("Authorization", "Basic "+g.cfg.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	g.accessToken = oauthResp.AccessToken
	g.logger.Info("GigaChat access token obtained", zap.Int64("expires_at", oauthResp.ExpiresAt))
	return g.accessToken, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
