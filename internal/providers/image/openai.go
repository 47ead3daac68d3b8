package image

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

	"shopgen/internal/infra"
)

// ErrMissingAPIKey indicates that the generator was configured without credentials.
var ErrMissingAPIKey = errors.New("image: api key is required")

// Options configures an OpenAI-compatible /images/generations client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// OpenAIGenerator requests a single b64_json image per call.
type OpenAIGenerator struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	httpClient *http.Client
	logger     infra.Logger
}

type generationRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type generationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

func NewOpenAIGenerator(opts Options) *OpenAIGenerator {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "dall-e-3"
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = "1024x1024"
	}
	return &OpenAIGenerator{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		size:       size,
		httpClient: httpClient,
		logger:     infra.LoggerOrNop(opts.Logger),
	}
}

func (g *OpenAIGenerator) HasCredentials() bool {
	return g != nil && g.apiKey != ""
}

func (g *OpenAIGenerator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

// Generate returns the base64 payload of the first image in the response.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if !g.HasCredentials() {
		return "", ErrMissingAPIKey
	}
	body, err := json.Marshal(generationRequest{
		Model:          g.model,
		Prompt:         strings.TrimSpace(prompt),
		N:              1,
		Size:           g.size,
		ResponseFormat: "b64_json",
	})
	if err != nil {
		return "", fmt.Errorf("image: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("image: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	start := time.Now()
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("image: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("image: read response: %w", err)
	}

	var out generationResponse
	decodeErr := json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if decodeErr == nil && out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("image: status %d: %s", resp.StatusCode, msg)
	}
	if decodeErr != nil {
		return "", fmt.Errorf("image: decode response: %w", decodeErr)
	}
	if len(out.Data) == 0 || strings.TrimSpace(out.Data[0].B64JSON) == "" {
		return "", errors.New("image: response contained no image")
	}
	g.logger.Debug().
		Str("model", g.model).
		Int("bytes", len(out.Data[0].B64JSON)).
		Dur("elapsed", time.Since(start)).
		Msg("image: generated")
	return out.Data[0].B64JSON, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
