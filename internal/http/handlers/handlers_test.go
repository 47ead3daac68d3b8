package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"shopgen/internal/domain"
	"shopgen/internal/middleware"
	"shopgen/internal/shopify"
)

const testShop = "demo.myshopify.com"

type stubGenerator struct {
	got     domain.GenerationRequest
	product *domain.CanonicalProduct
	err     error
}

func (s *stubGenerator) Generate(ctx context.Context, req domain.GenerationRequest) (*domain.CanonicalProduct, error) {
	s.got = req
	return s.product, s.err
}

type stubPublisher struct {
	got domain.CanonicalProduct
	id  string
	err error
}

func (s *stubPublisher) Publish(ctx context.Context, p domain.CanonicalProduct) (string, error) {
	s.got = p
	return s.id, s.err
}

type memorySettings struct {
	items map[string]domain.Settings
}

func (m *memorySettings) Get(ctx context.Context, shop string) (*domain.Settings, error) {
	s, ok := m.items[shop]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *memorySettings) Upsert(ctx context.Context, s domain.Settings) (*domain.Settings, error) {
	s.Normalize()
	if s.Shop == "" {
		return nil, &domain.ValidationError{Field: "shop", Reason: "is required"}
	}
	s.UpdatedAt = time.Now()
	m.items[s.Shop] = s
	return &s, nil
}

type memoryGenerations struct {
	items []domain.Generation
}

func (m *memoryGenerations) Record(ctx context.Context, shop, title, productID string) (*domain.Generation, error) {
	status := domain.GenerationStatusGenerated
	if productID != "" {
		status = domain.GenerationStatusPublished
	}
	g := domain.Generation{ID: "gen-" + title, Shop: shop, Title: title, ProductID: productID, Status: status}
	m.items = append(m.items, g)
	return &g, nil
}

func (m *memoryGenerations) MarkPublished(ctx context.Context, shop, id, productID string) (*domain.Generation, error) {
	for i := range m.items {
		if m.items[i].ID == id && m.items[i].Shop == shop {
			m.items[i].ProductID = productID
			m.items[i].Status = domain.GenerationStatusPublished
			return &m.items[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *memoryGenerations) ListRecent(ctx context.Context, shop string, limit int) ([]domain.Generation, error) {
	return m.items, nil
}

func (m *memoryGenerations) Stats(ctx context.Context, shop string) (domain.GenerationStats, error) {
	published := 0
	for _, g := range m.items {
		if g.Status == domain.GenerationStatusPublished {
			published++
		}
	}
	return domain.NewGenerationStats(len(m.items), published), nil
}

func sampleProduct() *domain.CanonicalProduct {
	return &domain.CanonicalProduct{
		Title:           "Wireless Mouse",
		DescriptionHTML: "<p>Quiet and precise.</p>",
		Variants:        []domain.Variant{{Option1: "Default", Price: "14.99"}},
		Tags:            []string{},
		Images:          []string{"https://picsum.photos/seed/a/800/800"},
	}
}

func newTestApp() (*App, *stubGenerator, *stubPublisher, *memoryGenerations) {
	gen := &stubGenerator{product: sampleProduct()}
	pub := &stubPublisher{id: "gid://shopify/Product/7"}
	history := &memoryGenerations{}
	app := &App{
		Logger:       zerolog.Nop(),
		Generator:    gen,
		NewPublisher: func(shop, token string) (ProductPublisher, error) { return pub, nil },
		Settings:     &memorySettings{items: map[string]domain.Settings{}},
		Generations:  history,
	}
	return app, gen, pub, history
}

func serve(h http.HandlerFunc, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req = req.WithContext(middleware.ContextWithShop(req.Context(), testShop, token))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGenerateProductAppliesShopSettings(t *testing.T) {
	app, gen, _, history := newTestApp()
	_, _ = app.Settings.Upsert(context.Background(), domain.Settings{
		Shop: testShop, Tone: domain.ToneLuxury, PricingStrategy: domain.PricingPremium, ImageCount: 4,
	})

	rec := serve(app.GenerateProduct, http.MethodPost, "/v1/products/generate",
		map[string]any{"title": "Wireless Mouse", "imageStyle": "minimal"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if gen.got.Tone != domain.ToneLuxury || gen.got.PricingStrategy != domain.PricingPremium ||
		gen.got.ImageStyle != domain.ImageStyleMinimal || gen.got.ImageCount != 4 {
		t.Fatalf("request = %+v", gen.got)
	}
	var resp generateResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Product == nil || resp.Product.Title != "Wireless Mouse" || resp.GenerationID != "gen-Wireless Mouse" {
		t.Fatalf("response = %+v", resp)
	}
	if len(history.items) != 1 || history.items[0].Status != domain.GenerationStatusGenerated {
		t.Fatalf("history = %+v", history.items)
	}
}

func TestGenerateProductErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		err    error
		status int
		code   string
	}{
		{name: "bad json", body: "not-an-object", status: http.StatusBadRequest, code: "bad_request"},
		{name: "blank title", body: map[string]any{"title": " "}, status: http.StatusUnprocessableEntity, code: "validation_failed"},
		{name: "missing key", body: map[string]any{"title": "Mug"}, err: &domain.MissingCredentialError{Name: "TEXT_API_KEY"}, status: http.StatusServiceUnavailable, code: "missing_credential"},
		{
			name:   "model garbage",
			body:   map[string]any{"title": "Mug"},
			err:    &domain.GenerationError{Stage: "parse", Raw: "oops", Err: domain.ErrMalformedResponse},
			status: http.StatusBadGateway,
			code:   "generation_failed",
		},
		{name: "unexpected", body: map[string]any{"title": "Mug"}, err: errors.New("boom"), status: http.StatusInternalServerError, code: "internal"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, gen, _, history := newTestApp()
			gen.product, gen.err = nil, tc.err
			rec := serve(app.GenerateProduct, http.MethodPost, "/v1/products/generate", tc.body, "")
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			var resp errorResponse
			_ = json.NewDecoder(rec.Body).Decode(&resp)
			if resp.Error != tc.code {
				t.Fatalf("error code = %q, want %q", resp.Error, tc.code)
			}
			if len(history.items) != 0 {
				t.Fatal("failed generation must not be recorded")
			}
		})
	}
}

func TestGenerationErrorResponseHidesRawOutput(t *testing.T) {
	app, gen, _, _ := newTestApp()
	gen.product, gen.err = nil, &domain.GenerationError{Stage: "parse", Raw: "SECRET-RAW", Err: domain.ErrMalformedResponse}
	rec := serve(app.GenerateProduct, http.MethodPost, "/v1/products/generate", map[string]any{"title": "Mug"}, "")
	if bytes.Contains(rec.Body.Bytes(), []byte("SECRET-RAW")) {
		t.Fatalf("raw model output leaked: %s", rec.Body.String())
	}
}

func TestPublishProduct(t *testing.T) {
	app, _, pub, history := newTestApp()
	_, _ = history.Record(context.Background(), testShop, "Wireless Mouse", "")

	rec := serve(app.PublishProduct, http.MethodPost, "/v1/products/publish",
		publishRequest{Product: sampleProduct(), GenerationID: "gen-Wireless Mouse"}, "shpat_x")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if pub.got.Title != "Wireless Mouse" {
		t.Fatalf("published = %+v", pub.got)
	}
	if len(history.items) != 1 || history.items[0].ProductID != "gid://shopify/Product/7" {
		t.Fatalf("history = %+v", history.items)
	}
}

func TestPublishProductRecordsWithoutGenerationID(t *testing.T) {
	app, _, _, history := newTestApp()
	rec := serve(app.PublishProduct, http.MethodPost, "/v1/products/publish", publishRequest{Product: sampleProduct()}, "shpat_x")
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(history.items) != 1 || history.items[0].Status != domain.GenerationStatusPublished {
		t.Fatalf("history = %+v", history.items)
	}
}

func TestPublishProductFailures(t *testing.T) {
	invalid := sampleProduct()
	invalid.Variants = nil
	tests := []struct {
		name    string
		token   string
		body    any
		pubErr  error
		status  int
		calledP bool
	}{
		{name: "no token", token: "", body: publishRequest{Product: sampleProduct()}, status: http.StatusUnauthorized},
		{name: "no product", token: "t", body: map[string]any{}, status: http.StatusBadRequest},
		{name: "invalid product", token: "t", body: publishRequest{Product: invalid}, status: http.StatusUnprocessableEntity},
		{
			name:    "catalog rejects",
			token:   "t",
			body:    publishRequest{Product: sampleProduct()},
			pubErr:  &shopify.UserErrorsError{Mutation: "productCreate", Errors: []shopify.UserError{{Message: "Title too long"}}},
			status:  http.StatusBadGateway,
			calledP: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			app, _, pub, history := newTestApp()
			pub.err = tc.pubErr
			rec := serve(app.PublishProduct, http.MethodPost, "/v1/products/publish", tc.body, tc.token)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.status, rec.Body.String())
			}
			if (pub.got.Title != "") != tc.calledP {
				t.Fatalf("publisher called = %v, want %v", pub.got.Title != "", tc.calledP)
			}
			if len(history.items) != 0 {
				t.Fatal("failed publish must not be recorded")
			}
		})
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	app, _, _, _ := newTestApp()

	rec := serve(app.GetSettings, http.MethodGet, "/v1/settings", nil, "")
	var got domain.Settings
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if got.Tone != domain.DefaultTone || got.ImageCount != domain.DefaultImageCount || got.Shop != testShop {
		t.Fatalf("defaults = %+v", got)
	}

	rec = serve(app.PutSettings, http.MethodPut, "/v1/settings",
		settingsRequest{Tone: "fun", ImageStyle: "3d", ImageCount: 12, PricingStrategy: "bogus"}, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	_ = json.NewDecoder(rec.Body).Decode(&got)
	if got.Tone != domain.ToneFun || got.ImageStyle != domain.ImageStyle3D || got.ImageCount != domain.MaxImageCount || got.PricingStrategy != domain.DefaultPricingStrategy {
		t.Fatalf("saved = %+v", got)
	}
}

func TestGenerationsListAndStats(t *testing.T) {
	app, _, _, history := newTestApp()
	_, _ = history.Record(context.Background(), testShop, "A", "")
	_, _ = history.Record(context.Background(), testShop, "B", "gid://shopify/Product/1")

	rec := serve(app.ListGenerations, http.MethodGet, "/v1/generations?limit=5", nil, "")
	var list struct {
		Items []domain.Generation `json:"items"`
	}
	_ = json.NewDecoder(rec.Body).Decode(&list)
	if len(list.Items) != 2 {
		t.Fatalf("items = %+v", list.Items)
	}

	rec = serve(app.GenerationStats, http.MethodGet, "/v1/generations/stats", nil, "")
	var stats domain.GenerationStats
	_ = json.NewDecoder(rec.Body).Decode(&stats)
	if stats.Total != 2 || stats.Published != 1 || stats.SuccessRate != 50 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestHealth(t *testing.T) {
	app, _, _, _ := newTestApp()
	rec := httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	app.Ping = func(ctx context.Context) error { return errors.New("db down") }
	rec = httptest.NewRecorder()
	app.Health(rec, httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
