package upload

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
)

const (
	defaultCloudinaryBaseURL = "https://api.cloudinary.com/v1_1"
	defaultFolder            = "ai-products"
)

// ErrNotConfigured is returned when any of the three Cloudinary credentials is missing.
var ErrNotConfigured = errors.New("upload: cloudinary is not configured")

type CloudinaryOptions struct {
	CloudName  string
	APIKey     string
	APISecret  string
	Folder     string
	BaseURL    string
	HTTPClient *http.Client
	Logger     *infra.Logger
	Now        func() time.Time
}

// Cloudinary performs signed uploads of PNG images and returns their secure URL.
type Cloudinary struct {
	cloudName  string
	apiKey     string
	apiSecret  string
	folder     string
	baseURL    string
	httpClient *http.Client
	logger     infra.Logger
	now        func() time.Time
}

type cloudinaryResponse struct {
	SecureURL string `json:"secure_url"`
	Error     *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinary(opts CloudinaryOptions) *Cloudinary {
	c := &Cloudinary{
		cloudName:  strings.TrimSpace(opts.CloudName),
		apiKey:     strings.TrimSpace(opts.APIKey),
		apiSecret:  strings.TrimSpace(opts.APISecret),
		folder:     strings.TrimSpace(opts.Folder),
		baseURL:    strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/"),
		httpClient: opts.HTTPClient,
		logger:     infra.LoggerOrNop(opts.Logger),
		now:        opts.Now,
	}
	if c.folder == "" {
		c.folder = defaultFolder
	}
	if c.baseURL == "" {
		c.baseURL = defaultCloudinaryBaseURL
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

func (c *Cloudinary) Configured() bool {
	return c != nil && c.cloudName != "" && c.apiKey != "" && c.apiSecret != ""
}

// Upload sends data as a PNG data URI and returns the hosted https URL.
func (c *Cloudinary) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if !c.Configured() {
		return "", ErrNotConfigured
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrUpload)
	}
	params := map[string]string{
		"folder":    c.folder,
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	form := url.Values{}
	for k, v := range params {
		form.Set(k, v)
	}
	form.Set("file", "data:image/png;base64,"+base64.StdEncoding.EncodeToString(data))
	form.Set("api_key", c.apiKey)
	form.Set("signature", sign(params, c.apiSecret))

	endpoint := fmt.Sprintf("%s/%s/image/upload", c.baseURL, url.PathEscape(c.cloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("upload: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpload, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read response: %v", domain.ErrUpload, err)
	}
	var out cloudinaryResponse
	_ = json.Unmarshal(raw, &out)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(raw))
		if out.Error != nil && out.Error.Message != "" {
			msg = out.Error.Message
		}
		return "", fmt.Errorf("%w: status %d: %s", domain.ErrUpload, resp.StatusCode, msg)
	}
	if !strings.HasPrefix(out.SecureURL, "https://") {
		return "", fmt.Errorf("%w: response missing secure_url", domain.ErrUpload)
	}
	c.logger.Debug().Str("name", name).Str("url", out.SecureURL).Msg("upload: stored image")
	return out.SecureURL, nil
}

// sign implements Cloudinary's request signature: the sorted key=value pairs
// joined with '&', followed by the API secret, hashed with SHA-1.
func sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+params[k])
	}
	sum := sha1.Sum([]byte(strings.Join(parts, "&") + secret))
	return hex.EncodeToString(sum[:])
}
