package domain

import "time"

// GenerationStatus enumerates history record states.
type GenerationStatus string

const (
	GenerationStatusGenerated GenerationStatus = "generated"
	GenerationStatusPublished GenerationStatus = "published"
)

// Generation is one history entry: a generated title and, once published,
// the catalog identifier it became.
type Generation struct {
	ID        string           `json:"id"`
	Shop      string           `json:"shop"`
	Title     string           `json:"title"`
	ProductID string           `json:"productId,omitempty"`
	Status    GenerationStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
}

type GenerationStats struct {
	Total       int `json:"total"`
	Published   int `json:"published"`
	SuccessRate int `json:"successRate"`
}

// NewGenerationStats derives the rounded published percentage.
func NewGenerationStats(total, published int) GenerationStats {
	stats := GenerationStats{Total: total, Published: published}
	if total > 0 {
		stats.SuccessRate = int((float64(published)/float64(total))*100 + 0.5)
	}
	return stats
}
