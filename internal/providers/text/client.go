package text

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
	"unicode/utf8"

	"shopgen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("text: api key is required")

const (
	defaultBaseURL = "https://open.bigmodel.cn/api/paas/v4"
	defaultModel   = "glm-4"
	defaultTimeout = 60 * time.Second

	// Error bodies are truncated before they end up in logs or errors.
	maxErrorBody = 512
)

var modelCanonical = map[string]string{
	"glm-4":         "glm-4",
	"glm-4-flash":   "glm-4-flash",
	"glm-4-plus":    "glm-4-plus",
	"gpt-4o-mini":   "gpt-4o-mini",
	"gpt-4o":        "gpt-4o",
	"gpt-3.5-turbo": "gpt-3.5-turbo",
}

var modelAliases = map[string]string{
	"glm4":        "glm-4",
	"glm-4.0":     "glm-4",
	"glm4-flash":  "glm-4-flash",
	"glm-4flash":  "glm-4-flash",
	"gpt4o-mini":  "gpt-4o-mini",
	"gpt4omini":   "gpt-4o-mini",
	"gpt-3.5":     "gpt-3.5-turbo",
	"gpt35-turbo": "gpt-3.5-turbo",
}

// Options configures an OpenAI-compatible chat completions client.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	HTTPClient  *http.Client
	Logger      *infra.Logger
	OnWarning   func(reason, detail string)
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client sends a single chat completion request per call and returns the raw
// text of the first choice. It never retries.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      infra.Logger
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// StatusError is returned for non-2xx provider responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("text: status %d: %s", e.StatusCode, e.Body)
}

func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	requested := strings.TrimSpace(opts.Model)
	model, reason := normalizeModel(requested)
	if reason != "" && opts.OnWarning != nil {
		opts.OnWarning("model_"+reason, fmt.Sprintf("requested=%s resolved=%s", requested, model))
	}
	temperature := opts.Temperature
	if temperature <= 0 {
		temperature = 0.7
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     baseURL,
		model:       model,
		temperature: temperature,
		httpClient:  client,
		logger:      infra.LoggerOrNop(opts.Logger),
	}
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c != nil && c.apiKey != ""
}

func (c *Client) Model() string {
	return c.model
}

// Complete posts messages to /chat/completions and returns the content of
// the first choice. Transport failures, non-2xx statuses and empty content
// are all errors.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	if !c.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	payload := chatRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("text: encode request: %w", err)
	}
	endpoint := c.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("text: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("text: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("text: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: truncate(strings.TrimSpace(string(raw)), maxErrorBody)}
	}

	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("text: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("text: no choices")
	}
	content := out.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", errors.New("text: empty response")
	}
	c.logger.Debug().
		Str("model", c.model).
		Int("chars", len(content)).
		Dur("elapsed", time.Since(start)).
		Msg("text: completion received")
	return content, nil
}

func normalizeModel(name string) (string, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return defaultModel, ""
	}
	normalized := strings.ToLower(trimmed)
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	if canonical, ok := modelCanonical[normalized]; ok {
		return canonical, ""
	}
	if alias, ok := modelAliases[normalized]; ok {
		return alias, "alias"
	}
	// Unknown names are passed through: compatible gateways host many models.
	return trimmed, "unrecognized"
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
