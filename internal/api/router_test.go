package api

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"expense-bot/internal/api/handlers"
	"expense-bot/internal/dto"
	"expense-bot/internal/service"
	"expense-bot/pkg/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingHandler struct{ calls int }

func (h *countingHandler) HandleMessage(context.Context, dto.Message) (service.Outcome, error) {
	h.calls++
	return service.OutcomeReceived, nil
}

const textBody = `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"15550001111","type":"text","text":{"body":"hi"}}]}}]}]}`

func newRouter(messages handlers.MessageHandler, secret string) *fiber.App {
	h := handlers.NewWebhookHandler(messages, "verify-me", time.Minute, zap.NewNop())
	return SetupRouter(h, RouterConfig{AppSecret: secret}, zap.NewNop())
}

func TestSwaggerRouteFollowsConfig(t *testing.T) {
	h := handlers.NewWebhookHandler(&countingHandler{}, "verify-me", time.Minute, zap.NewNop())

	disabled := SetupRouter(h, RouterConfig{Swagger: false}, zap.NewNop())
	status, _ := do(t, disabled, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.Equal(t, http.StatusNotFound, status)

	enabled := SetupRouter(h, RouterConfig{Swagger: true}, zap.NewNop())
	status, _ = do(t, enabled, httptest.NewRequest(http.MethodGet, "/swagger/index.html", nil))
	assert.NotEqual(t, http.StatusNotFound, status)
}

func do(t *testing.T, app *fiber.App, req *http.Request) (int, string) {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestHealthz(t *testing.T) {
	r := newRouter(&countingHandler{}, "")
	status, body := do(t, r, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"status":"ok"}`, body)
}

func TestWebhookRoutes(t *testing.T) {
	messages := &countingHandler{}
	r := newRouter(messages, "")

	status, body := do(t, r, httptest.NewRequest(http.MethodGet,
		WebhookPath+"?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "42", body)

	status, body = do(t, r, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(textBody)))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "EVENT_RECEIVED", body)
	assert.Equal(t, 1, messages.calls)

	status, _ = do(t, r, httptest.NewRequest(http.MethodPut, WebhookPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, status)
}

func TestWebhookSignatureEnforced(t *testing.T) {
	messages := &countingHandler{}
	r := newRouter(messages, "app-secret")

	status, _ := do(t, r, httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(textBody)))
	assert.Equal(t, http.StatusForbidden, status)
	assert.Zero(t, messages.calls)

	mac := hmac.New(sha256.New, []byte("app-secret"))
	mac.Write([]byte(textBody))
	req := httptest.NewRequest(http.MethodPost, WebhookPath, strings.NewReader(textBody))
	req.Header.Set(middleware.SignatureHeader, "sha256="+hex.EncodeToString(mac.Sum(nil)))

	status, _ = do(t, r, req)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 1, messages.calls)

	// verification handshake is never signed
	status, _ = do(t, r, httptest.NewRequest(http.MethodGet,
		WebhookPath+"?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=1", nil))
	assert.Equal(t, http.StatusOK, status)
}
