package handlers

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ProxyHandler relays requests to the upstream OpenAI Responses API without
// interpreting them. Clients that must not hold the real API key call this
// instead, optionally gated by a shared proxy token.
type ProxyHandler struct {
	upstreamBaseURL string
	apiKey          string
	proxyToken      string
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewProxyHandler creates a ProxyHandler for the given upstream.
func NewProxyHandler(upstreamBaseURL, apiKey, proxyToken string, timeout time.Duration, logger *zap.Logger) *ProxyHandler {
	if timeout <= 0 {
		timeout = 180 * time.Second
	}
	return &ProxyHandler{
		upstreamBaseURL: strings.TrimSuffix(upstreamBaseURL, "/"),
		apiKey:          apiKey,
		proxyToken:      proxyToken,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

// Health reports the proxy configuration without leaking secrets.
func (h *ProxyHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":                   true,
		"service":              "openai-proxy",
		"upstream_base_url":    h.upstreamBaseURL,
		"proxy_token_required": h.proxyToken != "",
		"openai_key_configured": h.apiKey != "",
	})
}

// Relay forwards the raw body to the upstream /responses endpoint and copies
// the upstream status and content back.
func (h *ProxyHandler) Relay(c *gin.Context) {
	// When a proxy token is configured, require an exact x-proxy-token match.
	if h.proxyToken != "" && c.GetHeader("x-proxy-token") != h.proxyToken {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.apiKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "OPENAI_API_KEY is not configured"})
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	upstreamURL := h.upstreamBaseURL + "/responses"
	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodPost, upstreamURL, bytes.NewReader(body))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build upstream request"})
		return
	}
	req.Header.Set("Authorization", "Bearer "+h.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		h.logger.Warn("openai proxy upstream request failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "OpenAI upstream request failed"})
		return
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to read upstream response"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}
	c.Header("x-openai-proxy", "epilog-ai")
	c.Data(resp.StatusCode, contentType, content)
}
