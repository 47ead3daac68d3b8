package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"shopgen/internal/domain"
	"shopgen/internal/middleware"
)

// shopSettings loads the shop's defaults; a missing row or a storage error
// yields the built-in defaults.
func (a *App) shopSettings(r *http.Request, shop string) domain.Settings {
	if a.Settings == nil {
		return domain.DefaultSettings(shop)
	}
	s, err := a.Settings.Get(r.Context(), shop)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			a.log(r).Warn().Err(err).Msg("settings lookup failed, using defaults")
		}
		return domain.DefaultSettings(shop)
	}
	return *s
}

func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	a.json(w, http.StatusOK, a.shopSettings(r, shop))
}

type settingsRequest struct {
	Tone            string `json:"tone"`
	ImageStyle      string `json:"imageStyle"`
	ImageCount      int    `json:"imageCount"`
	PricingStrategy string `json:"pricingStrategy"`
}

func (a *App) PutSettings(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	var req settingsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	saved, err := a.Settings.Upsert(r.Context(), domain.Settings{
		Shop:            shop,
		Tone:            domain.Tone(req.Tone),
		ImageStyle:      domain.ImageStyle(req.ImageStyle),
		ImageCount:      req.ImageCount,
		PricingStrategy: domain.PricingStrategy(req.PricingStrategy),
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, saved)
}
