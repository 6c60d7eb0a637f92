package service

import (
	"context"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/pkg/apperror"

	"github.com/google/uuid"
)

// HistoryServiceImpl implements ports.HistoryService over the analysis
// repository.
type HistoryServiceImpl struct {
	repo ports.AnalysisRepository
}

// NewHistoryService creates a new HistoryServiceImpl.
func NewHistoryService(repo ports.AnalysisRepository) *HistoryServiceImpl {
	return &HistoryServiceImpl{repo: repo}
}

// ListAnalyses returns a page of past analyses plus the total count.
func (s *HistoryServiceImpl) ListAnalyses(ctx context.Context, params ports.AnalysisListParams) ([]domain.AnalysisRecord, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PageSize < 1 || params.PageSize > 100 {
		params.PageSize = 20
	}

	records, total, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, apperror.ErrDatabaseError(err)
	}
	return records, total, nil
}

// GetAnalysis fetches a single analysis record by ID.
func (s *HistoryServiceImpl) GetAnalysis(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.ErrDatabaseError(err)
	}
	if record == nil {
		return nil, apperror.ErrAnalysisNotFound()
	}
	return record, nil
}
