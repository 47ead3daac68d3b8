package shopify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/time/rate"

	"shopgen/internal/infra"
)

const (
	DefaultAPIVersion = "2024-10"
	defaultRatePerSec = 2
	defaultBurst      = 4
)

var (
	ErrMissingShop  = errors.New("shopify: shop domain is required")
	ErrMissingToken = errors.New("shopify: access token is required")
)

// Options configures an Admin GraphQL client for one shop.
type Options struct {
	Shop        string
	AccessToken string
	APIVersion  string
	// Endpoint overrides https://{shop}/admin/api/{version}/graphql.json.
	Endpoint   string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
	Logger     *infra.Logger
}

// Client posts GraphQL documents to the Shopify Admin API.
type Client struct {
	shop       string
	token      string
	endpoint   string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     infra.Logger
}

// GraphQLError carries top-level GraphQL errors (syntax, throttling, access).
type GraphQLError struct {
	Messages []string
}

func (e *GraphQLError) Error() string {
	return "shopify: graphql: " + strings.Join(e.Messages, "; ")
}

// UserError is one entry of a mutation's userErrors list.
type UserError struct {
	Field   []string `json:"field"`
	Message string   `json:"message"`
}

// UserErrorsError is returned when a mutation reports userErrors.
type UserErrorsError struct {
	Mutation string
	Errors   []UserError
}

func (e *UserErrorsError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, ue := range e.Errors {
		msgs = append(msgs, ue.Message)
	}
	return fmt.Sprintf("shopify: %s: %s", e.Mutation, strings.Join(msgs, ", "))
}

func checkUserErrors(mutation string, errs []UserError) error {
	if len(errs) == 0 {
		return nil
	}
	return &UserErrorsError{Mutation: mutation, Errors: errs}
}

func NewClient(opts Options) (*Client, error) {
	shop := strings.ToLower(strings.TrimSpace(opts.Shop))
	if shop == "" {
		return nil, ErrMissingShop
	}
	token := strings.TrimSpace(opts.AccessToken)
	if token == "" {
		return nil, ErrMissingToken
	}
	version := strings.TrimSpace(opts.APIVersion)
	if version == "" {
		version = DefaultAPIVersion
	}
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s/admin/api/%s/graphql.json", shop, version)
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	limiter := opts.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(defaultRatePerSec, defaultBurst)
	}
	return &Client{
		shop:       shop,
		token:      token,
		endpoint:   endpoint,
		httpClient: httpClient,
		limiter:    limiter,
		logger:     infra.LoggerOrNop(opts.Logger),
	}, nil
}

func (c *Client) Shop() string {
	return c.shop
}

type graphQLRequest struct {
	Query     string `json:"query"`
	Variables any    `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Do executes one GraphQL document and decodes its data object into out.
func (c *Client) Do(ctx context.Context, query string, variables any, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("shopify: rate limiter: %w", err)
	}
	body, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("shopify: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("shopify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shopify-Access-Token", c.token)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("shopify: http request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("shopify: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("shopify: status %d: %s", resp.StatusCode, truncate(strings.TrimSpace(string(raw)), 300))
	}
	var envelope graphQLResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("shopify: decode response: %w", err)
	}
	if len(envelope.Errors) > 0 {
		msgs := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			msgs = append(msgs, e.Message)
		}
		return &GraphQLError{Messages: msgs}
	}
	c.logger.Debug().Str("shop", c.shop).Dur("elapsed", time.Since(start)).Msg("shopify: graphql call")
	if out == nil || len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("shopify: decode data: %w", err)
	}
	return nil
}

// LimiterPoolIdle is how long an unused shop keeps its bucket.
const LimiterPoolIdle = 10 * time.Minute

// LimiterPool hands out one token bucket per shop so concurrent requests for
// the same shop share Shopify's API budget. Shops idle for LimiterPoolIdle are
// dropped on the next lookup after a sweep interval.
type LimiterPool struct {
	mu        sync.Mutex
	perSec    rate.Limit
	burst     int
	now       func() time.Time
	lastSweep time.Time
	limiters  map[string]*pooledLimiter
}

type pooledLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewLimiterPool(perSec float64, burst int) *LimiterPool {
	if perSec <= 0 {
		perSec = defaultRatePerSec
	}
	if burst <= 0 {
		burst = defaultBurst
	}
	return &LimiterPool{
		perSec:    rate.Limit(perSec),
		burst:     burst,
		now:       time.Now,
		lastSweep: time.Now(),
		limiters:  map[string]*pooledLimiter{},
	}
}

func (p *LimiterPool) For(shop string) *rate.Limiter {
	key := strings.ToLower(strings.TrimSpace(shop))
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastSweep) >= LimiterPoolIdle {
		for k, l := range p.limiters {
			if now.Sub(l.lastSeen) >= LimiterPoolIdle {
				delete(p.limiters, k)
			}
		}
		p.lastSweep = now
	}
	l, ok := p.limiters[key]
	if !ok {
		l = &pooledLimiter{limiter: rate.NewLimiter(p.perSec, p.burst)}
		p.limiters[key] = l
	}
	l.lastSeen = now
	return l.limiter
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
