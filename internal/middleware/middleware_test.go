package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

func TestShopContext(t *testing.T) {
	tests := []struct {
		name   string
		shop   string
		token  string
		status int
	}{
		{name: "valid", shop: "Demo-Store.myshopify.com", token: "shpat_1", status: http.StatusOK},
		{name: "missing", shop: "", status: http.StatusUnauthorized},
		{name: "foreign domain", shop: "evil.example.com", status: http.StatusUnauthorized},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotShop, gotToken string
			h := ShopContext(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotShop = ShopFromContext(r.Context())
				gotToken = AccessTokenFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(HeaderShopDomain, tc.shop)
			req.Header.Set(HeaderAccessToken, tc.token)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK && (gotShop != "demo-store.myshopify.com" || gotToken != "shpat_1") {
				t.Fatalf("shop = %q token = %q", gotShop, gotToken)
			}
		})
	}
}

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abc-123" || rec.Header().Get(HeaderRequestID) != "abc-123" {
		t.Fatalf("seen = %q header = %q", seen, rec.Header().Get(HeaderRequestID))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" || seen == "abc-123" {
		t.Fatalf("expected generated id, got %q", seen)
	}
}

func TestRateLimitPerShop(t *testing.T) {
	h := RateLimit(2, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	do := func(shop string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(HeaderShopDomain, shop)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}
	if do("a.myshopify.com") != 200 || do("a.myshopify.com") != 200 {
		t.Fatal("first two requests should pass")
	}
	if code := do("a.myshopify.com"); code != http.StatusTooManyRequests {
		t.Fatalf("third request status = %d, want 429", code)
	}
	if code := do("b.myshopify.com"); code != 200 {
		t.Fatalf("other shop status = %d, want 200", code)
	}
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://admin.shopify.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://admin.shopify.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://admin.shopify.com" {
		t.Fatalf("preflight status = %d headers = %v", rec.Code, rec.Header())
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected CORS header for disallowed origin")
	}
}

func TestLoggerReportsRoutePattern(t *testing.T) {
	var route string
	var status int
	r := chi.NewRouter()
	r.Use(Logger(zerolog.Nop(), func(method, rt string, st int, elapsed time.Duration) {
		route, status = rt, st
	}))
	r.Get("/v1/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/items/42", nil))
	if route != "/v1/items/{id}" || status != http.StatusTeapot {
		t.Fatalf("route = %q status = %d", route, status)
	}
}
