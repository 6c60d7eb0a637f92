package ports

import (
	"context"
	"time"

	"receipt-analyzer/internal/core/domain"

	"github.com/google/uuid"
)

// AnalysisRepository defines persistence for analysis history records.
type AnalysisRepository interface {
	Create(ctx context.Context, record *domain.AnalysisRecord) error
	// GetByID returns nil, nil when no record exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
	List(ctx context.Context, params AnalysisListParams) ([]domain.AnalysisRecord, int64, error)
}

// AnalysisListParams holds filter + pagination for listing analysis records.
type AnalysisListParams struct {
	Currency *string
	From     *int64 // Unix timestamp
	To       *int64 // Unix timestamp
	Page     int
	PageSize int
}

// AnalysisCache is the Redis-layer result cache, keyed by image digest.
type AnalysisCache interface {
	// Get returns the cached response JSON, or nil when absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
