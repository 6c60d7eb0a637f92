package integration

import (
	"context"
	"sort"
	"sync"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"

	"github.com/google/uuid"
)

// inMemoryAnalysisRepo is an in-memory ports.AnalysisRepository for
// integration tests, so the full HTTP stack runs without PostgreSQL.
type inMemoryAnalysisRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]domain.AnalysisRecord
}

func newInMemoryAnalysisRepo() *inMemoryAnalysisRepo {
	return &inMemoryAnalysisRepo{records: make(map[uuid.UUID]domain.AnalysisRecord)}
}

func (r *inMemoryAnalysisRepo) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records)
}

func (r *inMemoryAnalysisRepo) Create(_ context.Context, record *domain.AnalysisRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[record.ID] = *record
	return nil
}

func (r *inMemoryAnalysisRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	record, ok := r.records[id]
	if !ok {
		return nil, nil
	}
	return &record, nil
}

func (r *inMemoryAnalysisRepo) List(_ context.Context, params ports.AnalysisListParams) ([]domain.AnalysisRecord, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []domain.AnalysisRecord
	for _, record := range r.records {
		if params.Currency != nil && record.Currency != *params.Currency {
			continue
		}
		if params.From != nil && record.CreatedAt.Unix() < *params.From {
			continue
		}
		if params.To != nil && record.CreatedAt.Unix() > *params.To {
			continue
		}
		matched = append(matched, record)
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	start := (params.Page - 1) * params.PageSize
	if start >= len(matched) {
		return nil, total, nil
	}
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}
