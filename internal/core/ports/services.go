package ports

import (
	"context"

	"receipt-analyzer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OcrService is the external OCR capability: raw image bytes in, raw text
// plus an optional confidence score out. May be a real engine or a
// deterministic stub; the core only depends on this shape.
type OcrService interface {
	ExtractText(ctx context.Context, imageBytes []byte) (*OcrResult, error)
}

// OcrResult holds the OCR output for one image.
type OcrResult struct {
	Text       string
	Confidence *float64
}

// ReceiptParser converts a raw OCR line sequence into a classified Receipt.
type ReceiptParser interface {
	// Parse fails with domain.ErrNoItems when zero item lines are recognized.
	Parse(ocrText string, currency string) (*domain.Receipt, error)
}

// AnalyzeService orchestrates the full receipt-interpretation pipeline.
type AnalyzeService interface {
	AnalyzeImage(ctx context.Context, req AnalyzeImageRequest) (*AnalyzeResult, error)
	// AnalyzeText is the text-only variant that skips OCR entirely.
	AnalyzeText(ctx context.Context, req AnalyzeTextRequest) (*AnalyzeResult, error)
}

// AnalyzeImageRequest holds input for image-based analysis.
type AnalyzeImageRequest struct {
	ImageBase64 string
	Currency    string
}

// AnalyzeTextRequest holds input for text-based analysis.
type AnalyzeTextRequest struct {
	OcrText  string
	Currency string
}

// SummaryResult is the reconciled monetary summary of an analysis.
type SummaryResult struct {
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceTax decimal.Decimal `json:"service_tax"`
	SstTax     decimal.Decimal `json:"sst_tax"`
	Total      decimal.Decimal `json:"total"`
}

// AnalyzeResult is the outcome of one analysis request. It round-trips
// through the Redis result cache as JSON.
type AnalyzeResult struct {
	Currency   string                `json:"currency"`
	Items      []domain.AnalyzedItem `json:"items"`
	Summary    SummaryResult         `json:"summary"`
	Confidence *float64              `json:"confidence,omitempty"`
	Warnings   []string              `json:"warnings"`
}

// HistoryService exposes past analysis records.
type HistoryService interface {
	ListAnalyses(ctx context.Context, params AnalysisListParams) ([]domain.AnalysisRecord, int64, error)
	GetAnalysis(ctx context.Context, id uuid.UUID) (*domain.AnalysisRecord, error)
}
