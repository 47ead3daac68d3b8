package handlers

import (
	"net/http"
	"strconv"

	"shopgen/internal/middleware"
)

const maxRecentLimit = 50

func (a *App) ListGenerations(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}
	items, err := a.Generations.ListRecent(r.Context(), shop, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) GenerationStats(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	stats, err := a.Generations.Stats(r.Context(), shop)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, stats)
}
