package domain

import "context"

// SettingsRepository persists per-shop generation defaults.
type SettingsRepository interface {
	Get(ctx context.Context, shop string) (*Settings, error)
	Upsert(ctx context.Context, settings Settings) (*Settings, error)
}

// GenerationRepository records generation outcomes.
type GenerationRepository interface {
	Record(ctx context.Context, shop, title, productID string) (*Generation, error)
	// MarkPublished attaches productID to an earlier generated entry of shop.
	// It returns ErrNotFound when no such entry exists.
	MarkPublished(ctx context.Context, shop, id, productID string) (*Generation, error)
	ListRecent(ctx context.Context, shop string, limit int) ([]Generation, error)
	Stats(ctx context.Context, shop string) (GenerationStats, error)
}
