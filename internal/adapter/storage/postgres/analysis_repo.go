package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// AnalysisRepo implements ports.AnalysisRepository. Item and warning lists
// are stored as JSONB; monetary fields are NUMERIC columns so the history can
// be filtered and aggregated in SQL.
type AnalysisRepo struct {
	pool Pool
}

// NewAnalysisRepo creates a new AnalysisRepo.
func NewAnalysisRepo(pool Pool) *AnalysisRepo {
	return &AnalysisRepo{pool: pool}
}

// Create inserts an analysis record.
func (r *AnalysisRepo) Create(ctx context.Context, record *domain.AnalysisRecord) error {
	items, err := json.Marshal(record.Items)
	if err != nil {
		return fmt.Errorf("marshal analysis items: %w", err)
	}
	warnings, err := json.Marshal(record.Warnings)
	if err != nil {
		return fmt.Errorf("marshal analysis warnings: %w", err)
	}

	query := `INSERT INTO analyses (id, currency, items, subtotal, service_tax, sst_tax, total, confidence, warnings, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err = r.pool.Exec(ctx, query,
		record.ID, record.Currency, items,
		record.Subtotal, record.ServiceTax, record.SstTax, record.Total,
		record.Confidence, warnings, record.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert analysis: %w", err)
	}
	return nil
}

// GetByID fetches an analysis record by UUID. Returns nil, nil when absent.
func (r *AnalysisRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error) {
	query := `SELECT id, currency, items, subtotal, service_tax, sst_tax, total, confidence, warnings, created_at
		FROM analyses WHERE id = $1`

	return r.scanAnalysis(r.pool.QueryRow(ctx, query, id))
}

// List fetches analysis records with filtering and pagination, newest first.
func (r *AnalysisRepo) List(ctx context.Context, params ports.AnalysisListParams) ([]domain.AnalysisRecord, int64, error) {
	var conditions []string
	var args []any
	argIdx := 1

	if params.Currency != nil {
		conditions = append(conditions, fmt.Sprintf("currency = $%d", argIdx))
		args = append(args, *params.Currency)
		argIdx++
	}
	if params.From != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= to_timestamp($%d)", argIdx))
		args = append(args, *params.From)
		argIdx++
	}
	if params.To != nil {
		conditions = append(conditions, fmt.Sprintf("created_at <= to_timestamp($%d)", argIdx))
		args = append(args, *params.To)
		argIdx++
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM analyses %s", where)
	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count analyses: %w", err)
	}

	// Fetch page
	offset := (params.Page - 1) * params.PageSize
	dataQuery := fmt.Sprintf(`SELECT id, currency, items, subtotal, service_tax, sst_tax, total, confidence, warnings, created_at
		FROM analyses %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, where, argIdx, argIdx+1)
	args = append(args, params.PageSize, offset)

	rows, err := r.pool.Query(ctx, dataQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list analyses: %w", err)
	}
	defer rows.Close()

	var records []domain.AnalysisRecord
	for rows.Next() {
		record, err := scanAnalysisRow(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan analysis row: %w", err)
		}
		records = append(records, *record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate analysis rows: %w", err)
	}
	return records, total, nil
}

// scanAnalysis scans a single row, mapping pgx.ErrNoRows to nil, nil.
func (r *AnalysisRepo) scanAnalysis(row pgx.Row) (*domain.AnalysisRecord, error) {
	record, err := scanAnalysisRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan analysis: %w", err)
	}
	return record, nil
}

func scanAnalysisRow(row pgx.Row) (*domain.AnalysisRecord, error) {
	record := &domain.AnalysisRecord{}
	var items, warnings []byte

	err := row.Scan(
		&record.ID, &record.Currency, &items,
		&record.Subtotal, &record.ServiceTax, &record.SstTax, &record.Total,
		&record.Confidence, &warnings, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(items, &record.Items); err != nil {
		return nil, fmt.Errorf("unmarshal analysis items: %w", err)
	}
	if err := json.Unmarshal(warnings, &record.Warnings); err != nil {
		return nil, fmt.Errorf("unmarshal analysis warnings: %w", err)
	}
	return record, nil
}
