package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/shopify"
)

// ProductGenerator produces a complete listing from a request.
type ProductGenerator interface {
	Generate(ctx context.Context, req domain.GenerationRequest) (*domain.CanonicalProduct, error)
}

// ProductPublisher pushes a listing into a shop's catalog.
type ProductPublisher interface {
	Publish(ctx context.Context, product domain.CanonicalProduct) (string, error)
}

// PublisherFactory builds a publisher for the shop and access token of one request.
type PublisherFactory func(shop, accessToken string) (ProductPublisher, error)

type PublishObserver interface {
	ObservePublish(ok bool)
}

// App carries the collaborators shared by every handler.
type App struct {
	Logger       infra.Logger
	Generator    ProductGenerator
	NewPublisher PublisherFactory
	Settings     domain.SettingsRepository
	Generations  domain.GenerationRepository
	Publishes    PublishObserver
	// Ping reports database health; nil skips the check.
	Ping func(ctx context.Context) error
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, msg string) {
	a.json(w, code, errorResponse{Error: errCode, Message: msg})
}

// log returns the request-scoped logger installed by middleware.RequestID,
// falling back to the app logger.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

// fail maps domain errors onto HTTP statuses. Messages of unexpected errors
// stay in the logs.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	var missing *domain.MissingCredentialError
	var userErrs *shopify.UserErrorsError
	var genErr *domain.GenerationError
	switch {
	case errors.As(err, &validation):
		a.error(w, http.StatusUnprocessableEntity, "validation_failed", validation.Error())
	case errors.Is(err, domain.ErrValidation):
		a.error(w, http.StatusUnprocessableEntity, "validation_failed", err.Error())
	case errors.As(err, &missing):
		a.log(r).Error().Err(err).Msg("credential missing")
		a.error(w, http.StatusServiceUnavailable, "missing_credential", missing.Error())
	case errors.As(err, &genErr):
		a.log(r).Error().Err(err).Str("stage", genErr.Stage).Msg("generation failed")
		a.error(w, http.StatusBadGateway, "generation_failed", generationMessage(genErr))
	case errors.As(err, &userErrs):
		a.log(r).Warn().Err(err).Msg("catalog rejected product")
		a.error(w, http.StatusBadGateway, "publish_failed", userErrs.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, context.DeadlineExceeded):
		a.log(r).Error().Err(err).Msg("request timed out")
		a.error(w, http.StatusGatewayTimeout, "timeout", "upstream provider timed out")
	default:
		a.log(r).Error().Err(err).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func generationMessage(err *domain.GenerationError) string {
	switch {
	case errors.Is(err, domain.ErrEmptyResponse):
		return "the AI provider returned an empty response"
	case errors.Is(err, domain.ErrMalformedResponse):
		return "the AI provider returned an unreadable response"
	case errors.Is(err, context.DeadlineExceeded):
		return "the AI provider timed out"
	default:
		return "the AI provider request failed"
	}
}
