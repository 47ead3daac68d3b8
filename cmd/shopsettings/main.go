package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"shopgen/internal/adapter/repo"
	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/middleware"
)

func main() {
	var (
		shopFlag    string
		toneFlag    string
		styleFlag   string
		pricingFlag string
		countFlag   int
	)

	flag.StringVar(&shopFlag, "shop", "", "shop domain (*.myshopify.com)")
	flag.StringVar(&toneFlag, "tone", "", "copy tone (seo, luxury, simple, fun, professional)")
	flag.StringVar(&styleFlag, "style", "", "image style (studio, 3d, lifestyle, minimal)")
	flag.StringVar(&pricingFlag, "pricing", "", "pricing strategy (low, medium, premium)")
	flag.IntVar(&countFlag, "images", 0, "images per product (1-5, 0 keeps current value)")
	flag.Parse()

	_ = godotenv.Load()

	shop := strings.ToLower(strings.TrimSpace(shopFlag))
	if !middleware.ValidShopDomain(shop) {
		exitWithError(errors.New("-shop must be a *.myshopify.com domain"))
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "shopsettings").Logger()
	settingsRepo := repo.NewSettingsRepository(infra.NewSQLRunner(pool, logger))

	current, err := settingsRepo.Get(ctx, shop)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		defaults := domain.DefaultSettings(shop)
		current = &defaults
	case err != nil:
		exitWithError(fmt.Errorf("failed to load settings: %w", err))
	}

	next := *current
	if v := strings.TrimSpace(toneFlag); v != "" {
		next.Tone = domain.Tone(v)
	}
	if v := strings.TrimSpace(styleFlag); v != "" {
		next.ImageStyle = domain.ImageStyle(v)
	}
	if v := strings.TrimSpace(pricingFlag); v != "" {
		next.PricingStrategy = domain.PricingStrategy(v)
	}
	if countFlag > 0 {
		next.ImageCount = countFlag
	}

	saved, err := settingsRepo.Upsert(ctx, next)
	if err != nil {
		exitWithError(fmt.Errorf("failed to save settings: %w", err))
	}

	fmt.Printf("Settings for %s updated\n", saved.Shop)
	fmt.Printf("tone=%s\n", saved.Tone)
	fmt.Printf("image_style=%s\n", saved.ImageStyle)
	fmt.Printf("image_count=%d\n", saved.ImageCount)
	fmt.Printf("pricing_strategy=%s\n", saved.PricingStrategy)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
