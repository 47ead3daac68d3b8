package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"shopgen/internal/domain"
	"shopgen/internal/middleware"
)

const maxBodyBytes = 8 << 20

type generateResponse struct {
	Product      *domain.CanonicalProduct `json:"product"`
	GenerationID string                   `json:"generationId,omitempty"`
}

// GenerateProduct merges the shop's saved defaults into the request and runs
// the generation pipeline.
func (a *App) GenerateProduct(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	var req domain.GenerationRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		a.error(w, http.StatusUnprocessableEntity, "validation_failed", "title: is required")
		return
	}

	settings := a.shopSettings(r, shop)
	settings.Apply(&req)

	product, err := a.Generator.Generate(r.Context(), req)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	resp := generateResponse{Product: product}
	if a.Generations != nil {
		gen, err := a.Generations.Record(r.Context(), shop, product.Title, "")
		if err != nil {
			a.log(r).Warn().Err(err).Msg("generation history write failed")
		} else {
			resp.GenerationID = gen.ID
		}
	}
	a.json(w, http.StatusOK, resp)
}

type publishRequest struct {
	Product      *domain.CanonicalProduct `json:"product"`
	GenerationID string                   `json:"generationId"`
}

type publishResponse struct {
	ProductID string `json:"productId"`
}

// PublishProduct creates the (possibly edited) product in the shop's catalog.
func (a *App) PublishProduct(w http.ResponseWriter, r *http.Request) {
	shop := middleware.ShopFromContext(r.Context())
	token := middleware.AccessTokenFromContext(r.Context())
	if token == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing "+middleware.HeaderAccessToken+" header")
		return
	}
	var req publishRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil || req.Product == nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := domain.ValidateForPublish(req.Product); err != nil {
		a.fail(w, r, err)
		return
	}

	publisher, err := a.NewPublisher(shop, token)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	productID, err := publisher.Publish(r.Context(), *req.Product)
	a.observePublish(err == nil)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	a.recordPublish(r, shop, req, productID)
	a.json(w, http.StatusCreated, publishResponse{ProductID: productID})
}

func (a *App) recordPublish(r *http.Request, shop string, req publishRequest, productID string) {
	if a.Generations == nil {
		return
	}
	if id := strings.TrimSpace(req.GenerationID); id != "" {
		_, err := a.Generations.MarkPublished(r.Context(), shop, id, productID)
		if err == nil {
			return
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrValidation) {
			a.log(r).Warn().Err(err).Msg("generation history update failed")
			return
		}
	}
	if _, err := a.Generations.Record(r.Context(), shop, req.Product.Title, productID); err != nil {
		a.log(r).Warn().Err(err).Msg("generation history write failed")
	}
}

func (a *App) observePublish(ok bool) {
	if a.Publishes != nil {
		a.Publishes.ObservePublish(ok)
	}
}
