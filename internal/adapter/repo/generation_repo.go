package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"shopgen/internal/domain"
	"shopgen/internal/infra"
	"shopgen/internal/sqlinline"
)

const defaultRecentLimit = 10

// GenerationRepositoryPG implements domain.GenerationRepository.
type GenerationRepositoryPG struct {
	sql infra.SQLExecutor
}

func NewGenerationRepository(sql infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{sql: sql}
}

// Record stores a history entry. An empty productID records a draft
// ("generated"); a non-empty one records a published product.
func (r *GenerationRepositoryPG) Record(ctx context.Context, shop, title, productID string) (*domain.Generation, error) {
	status := domain.GenerationStatusGenerated
	productID = strings.TrimSpace(productID)
	if productID != "" {
		status = domain.GenerationStatusPublished
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertGeneration,
		uuid.New(),
		strings.TrimSpace(shop),
		strings.TrimSpace(title),
		productID,
		string(status),
	)
	return scanGeneration(row)
}

func (r *GenerationRepositoryPG) MarkPublished(ctx context.Context, shop, id, productID string) (*domain.Generation, error) {
	genID, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return nil, &domain.ValidationError{Field: "generationId", Reason: "must be a UUID"}
	}
	row := r.sql.QueryRow(ctx, sqlinline.QMarkGenerationPublished, genID, strings.TrimSpace(shop), strings.TrimSpace(productID))
	gen, err := scanGeneration(row)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return gen, nil
}

// ListRecent returns the newest entries first.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, shop string, limit int) ([]domain.Generation, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	rows, err := r.sql.Query(ctx, sqlinline.QSelectRecentGenerations, strings.TrimSpace(shop), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []domain.Generation{}
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *gen)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GenerationRepositoryPG) Stats(ctx context.Context, shop string) (domain.GenerationStats, error) {
	var total, published int
	row := r.sql.QueryRow(ctx, sqlinline.QSelectGenerationStats, strings.TrimSpace(shop))
	if err := row.Scan(&total, &published); err != nil {
		if infra.IsNoRows(err) {
			return domain.NewGenerationStats(0, 0), nil
		}
		return domain.GenerationStats{}, err
	}
	return domain.NewGenerationStats(total, published), nil
}

func scanGeneration(row rowScanner) (*domain.Generation, error) {
	var gen domain.Generation
	var id uuid.UUID
	var status string
	if err := row.Scan(&id, &gen.Shop, &gen.Title, &gen.ProductID, &status, &gen.CreatedAt); err != nil {
		return nil, err
	}
	gen.ID = id.String()
	gen.Status = domain.GenerationStatus(status)
	return &gen, nil
}

var _ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
