package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	shopKey      contextKey = "shop"
	tokenKey     contextKey = "shop_token"
)

const (
	HeaderRequestID   = "X-Request-ID"
	HeaderShopDomain  = "X-Shopify-Shop-Domain"
	HeaderAccessToken = "X-Shopify-Access-Token"
)

// RequestID propagates or assigns X-Request-ID and attaches a request-scoped
// logger carrying it.
func RequestID(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rid := strings.TrimSpace(r.Header.Get(HeaderRequestID))
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, rid)
			ctx := context.WithValue(r.Context(), requestIDKey, rid)
			ctx = base.With().Str("request_id", rid).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func RequestIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

var shopDomainPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*\.myshopify\.com$`)

// ValidShopDomain reports whether shop looks like a *.myshopify.com domain.
func ValidShopDomain(shop string) bool {
	return shopDomainPattern.MatchString(strings.ToLower(strings.TrimSpace(shop)))
}

// ShopContext requires the embedding app's session headers. Session
// verification happens upstream; this only rejects requests without a shop.
func ShopContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shop := strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderShopDomain)))
		if !ValidShopDomain(shop) {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid "+HeaderShopDomain+" header")
			return
		}
		ctx := context.WithValue(r.Context(), shopKey, shop)
		if token := strings.TrimSpace(r.Header.Get(HeaderAccessToken)); token != "" {
			ctx = context.WithValue(ctx, tokenKey, token)
		}
		ctx = zerolog.Ctx(ctx).With().Str("shop", shop).Logger().WithContext(ctx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func ShopFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(shopKey).(string); ok {
		return v
	}
	return ""
}

func AccessTokenFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(tokenKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithShop is used by tests and internal callers that bypass the middleware.
func ContextWithShop(ctx context.Context, shop, token string) context.Context {
	ctx = context.WithValue(ctx, shopKey, strings.ToLower(strings.TrimSpace(shop)))
	if token != "" {
		ctx = context.WithValue(ctx, tokenKey, token)
	}
	return ctx
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + code + `","message":"` + msg + `"}`))
}
