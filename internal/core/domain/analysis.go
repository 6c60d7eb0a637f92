package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AnalyzedItem is one response line of a completed analysis: the parsed item
// plus its allocated tax share.
type AnalyzedItem struct {
	Name          string          `json:"name"`
	Quantity      int64           `json:"quantity"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	TaxedPrice    decimal.Decimal `json:"taxed_price"`
	TotalPrice    decimal.Decimal `json:"total_price"`
}

// AnalysisRecord is the persisted projection of one analyze response. The
// Receipt aggregate itself stays transient; only the response shape is kept
// for history browsing.
type AnalysisRecord struct {
	ID         uuid.UUID       `json:"id"`
	Currency   string          `json:"currency"`
	Items      []AnalyzedItem  `json:"items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	ServiceTax decimal.Decimal `json:"service_tax"`
	SstTax     decimal.Decimal `json:"sst_tax"`
	Total      decimal.Decimal `json:"total"`
	Confidence *float64        `json:"confidence,omitempty"`
	Warnings   []string        `json:"warnings"`
	CreatedAt  time.Time       `json:"created_at"`
}
