package dto

import (
	"time"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"
)

// AnalyzeImageRequest is the request body for image analysis. Both fields are
// optional: a missing or unreadable image degrades to an empty OCR input with
// a warning, and a missing currency falls back to the configured default.
type AnalyzeImageRequest struct {
	ImageBase64 string `json:"image_base64"`
	Currency    string `json:"currency" binding:"omitempty,currency"`
}

// AnalyzeTextRequest is the request body for text-only analysis.
type AnalyzeTextRequest struct {
	OcrText  string `json:"ocr_text" binding:"required"`
	Currency string `json:"currency" binding:"omitempty,currency"`
}

// AnalyzedItemResponse is one line item with its tax share applied.
type AnalyzedItemResponse struct {
	Name          string  `json:"name"`
	Quantity      int64   `json:"quantity"`
	OriginalPrice float64 `json:"original_price"`
	TaxedPrice    float64 `json:"taxed_price"`
	TotalPrice    float64 `json:"total_price"`
}

// SummaryResponse is the reconciled monetary summary.
type SummaryResponse struct {
	Subtotal   float64 `json:"subtotal"`
	ServiceTax float64 `json:"service_tax"`
	SstTax     float64 `json:"sst_tax"`
	Total      float64 `json:"total"`
}

// AnalyzeResponse is the response body for both analysis endpoints.
type AnalyzeResponse struct {
	Currency   string                 `json:"currency"`
	Items      []AnalyzedItemResponse `json:"items"`
	Summary    SummaryResponse        `json:"summary"`
	Confidence *float64               `json:"confidence,omitempty"`
	Warnings   []string               `json:"warnings"`
}

// AnalysisRecordResponse is one persisted analysis in the history listing.
type AnalysisRecordResponse struct {
	ID         string                 `json:"id"`
	Currency   string                 `json:"currency"`
	Items      []AnalyzedItemResponse `json:"items"`
	Summary    SummaryResponse        `json:"summary"`
	Confidence *float64               `json:"confidence,omitempty"`
	Warnings   []string               `json:"warnings"`
	CreatedAt  string                 `json:"created_at"`
}

// AnalysisListResponse wraps a paginated analysis history page.
type AnalysisListResponse struct {
	Items      []AnalysisRecordResponse `json:"items"`
	Total      int64                    `json:"total"`
	Page       int                      `json:"page"`
	PageSize   int                      `json:"page_size"`
	TotalPages int                      `json:"total_pages"`
}

// ToAnalyzeResponse converts a service result to its response DTO.
func ToAnalyzeResponse(result *ports.AnalyzeResult) AnalyzeResponse {
	return AnalyzeResponse{
		Currency: result.Currency,
		Items:    toItemResponses(result.Items),
		Summary: SummaryResponse{
			Subtotal:   result.Summary.Subtotal.InexactFloat64(),
			ServiceTax: result.Summary.ServiceTax.InexactFloat64(),
			SstTax:     result.Summary.SstTax.InexactFloat64(),
			Total:      result.Summary.Total.InexactFloat64(),
		},
		Confidence: result.Confidence,
		Warnings:   result.Warnings,
	}
}

// ToAnalysisRecordResponse converts a history record to its response DTO.
func ToAnalysisRecordResponse(record *domain.AnalysisRecord) AnalysisRecordResponse {
	return AnalysisRecordResponse{
		ID:       record.ID.String(),
		Currency: record.Currency,
		Items:    toItemResponses(record.Items),
		Summary: SummaryResponse{
			Subtotal:   record.Subtotal.InexactFloat64(),
			ServiceTax: record.ServiceTax.InexactFloat64(),
			SstTax:     record.SstTax.InexactFloat64(),
			Total:      record.Total.InexactFloat64(),
		},
		Confidence: record.Confidence,
		Warnings:   record.Warnings,
		CreatedAt:  record.CreatedAt.Format(time.RFC3339),
	}
}

func toItemResponses(items []domain.AnalyzedItem) []AnalyzedItemResponse {
	out := make([]AnalyzedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, AnalyzedItemResponse{
			Name:          item.Name,
			Quantity:      item.Quantity,
			OriginalPrice: item.OriginalPrice.InexactFloat64(),
			TaxedPrice:    item.TaxedPrice.InexactFloat64(),
			TotalPrice:    item.TotalPrice.InexactFloat64(),
		})
	}
	return out
}
