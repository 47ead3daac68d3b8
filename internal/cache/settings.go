package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
)

const (
	KeyPrefixSettings = "shopgen:settings:"

	DefaultSettingsTTL = 10 * time.Minute
)

// NewClient parses a redis:// URL. An empty URL yields a nil client, which
// every cache in this package treats as "caching disabled".
func NewClient(ctx context.Context, rawURL string) (*redis.Client, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// SettingsRepository is a read-through cache in front of another settings repository.
type SettingsRepository struct {
	next   domain.SettingsRepository
	client *redis.Client
	ttl    time.Duration
	logger infra.Logger
}

func NewSettingsRepository(next domain.SettingsRepository, client *redis.Client, ttl time.Duration, logger *infra.Logger) *SettingsRepository {
	if ttl <= 0 {
		ttl = DefaultSettingsTTL
	}
	return &SettingsRepository{next: next, client: client, ttl: ttl, logger: infra.LoggerOrNop(logger)}
}

func SettingsKey(shop string) string {
	return KeyPrefixSettings + strings.ToLower(strings.TrimSpace(shop))
}

func (r *SettingsRepository) Get(ctx context.Context, shop string) (*domain.Settings, error) {
	if r.client != nil {
		data, err := r.client.Get(ctx, SettingsKey(shop)).Bytes()
		switch {
		case err == nil:
			var cached domain.Settings
			if jsonErr := json.Unmarshal(data, &cached); jsonErr == nil {
				return &cached, nil
			}
		case !errors.Is(err, redis.Nil):
			r.logger.Warn().Err(err).Str("shop", shop).Msg("settings cache read failed")
		}
	}
	settings, err := r.next.Get(ctx, shop)
	if err != nil {
		return nil, err
	}
	r.store(ctx, settings)
	return settings, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	saved, err := r.next.Upsert(ctx, settings)
	if err != nil {
		return nil, err
	}
	r.store(ctx, saved)
	return saved, nil
}

func (r *SettingsRepository) store(ctx context.Context, settings *domain.Settings) {
	if r.client == nil || settings == nil {
		return
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return
	}
	if err := r.client.Set(ctx, SettingsKey(settings.Shop), data, r.ttl).Err(); err != nil {
		r.logger.Warn().Err(err).Str("shop", settings.Shop).Msg("settings cache write failed")
	}
}

var _ domain.SettingsRepository = (*SettingsRepository)(nil)
