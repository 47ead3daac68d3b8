package repo

import (
	"context"
	"strings"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/sqlinline"
)

// SettingsRepositoryPG implements domain.SettingsRepository.
type SettingsRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewSettingsRepository creates a settings repository on top of the SQL runner.
func NewSettingsRepository(sql infra.SQLExecutor) *SettingsRepositoryPG {
	return &SettingsRepositoryPG{sql: sql}
}

// Get returns the stored settings for shop, or domain.ErrNotFound.
func (r *SettingsRepositoryPG) Get(ctx context.Context, shop string) (*domain.Settings, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectShopSettings, strings.TrimSpace(shop))
	settings, err := scanSettings(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return settings, nil
}

// Upsert normalizes and stores settings, returning the persisted row.
func (r *SettingsRepositoryPG) Upsert(ctx context.Context, settings domain.Settings) (*domain.Settings, error) {
	settings.Normalize()
	if settings.Shop == "" {
		return nil, &domain.ValidationError{Field: "shop", Reason: "is required"}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QUpsertShopSettings,
		settings.Shop,
		string(settings.Tone),
		string(settings.ImageStyle),
		settings.ImageCount,
		string(settings.PricingStrategy),
	)
	return scanSettings(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettings(row rowScanner) (*domain.Settings, error) {
	var s domain.Settings
	var tone, style, pricing string
	if err := row.Scan(&s.Shop, &tone, &style, &s.ImageCount, &pricing, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.Tone = domain.Tone(tone)
	s.ImageStyle = domain.ImageStyle(style)
	s.PricingStrategy = domain.PricingStrategy(pricing)
	s.Normalize()
	return &s, nil
}

var _ domain.SettingsRepository = (*SettingsRepositoryPG)(nil)
