package service

import (
	"receipt-analyzer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TotalsCalculator reconciles a receipt summary and allocates taxes back
// onto items. Stateless; safe for concurrent use.
type TotalsCalculator struct{}

// NewTotalsCalculator creates a TotalsCalculator.
func NewTotalsCalculator() *TotalsCalculator {
	return &TotalsCalculator{}
}

// EnsureSummary returns the given summary unchanged when present: a summary
// supplied by the source is trusted as given, with no cross-validation
// against the item sum. When absent it derives subtotal = sum of line
// amounts, zero taxes, total = subtotal.
func (c *TotalsCalculator) EnsureSummary(items []domain.Item, summary *domain.Summary, currency string) (*domain.Summary, error) {
	if summary != nil {
		return summary, nil
	}

	subtotal := domain.Zero(currency)
	for _, item := range items {
		var err error
		subtotal, err = subtotal.Add(item.LineAmount)
		if err != nil {
			return nil, err
		}
	}

	return &domain.Summary{
		Subtotal:   subtotal,
		ServiceTax: domain.Zero(currency),
		SstTax:     domain.Zero(currency),
		Total:      subtotal,
	}, nil
}

// AllocateTaxesProportionally distributes the summary's total tax
// (service tax + SST) across items in proportion to each item's share of
// the item line-amount sum. The sum of allocations always equals the total
// tax exactly, to the cent: each share is rounded half-away-from-zero to 2
// decimals and any residual is absorbed by the FIRST item in parse order.
//
// The denominator is the item line-amount sum, not summary.Subtotal; the
// two can diverge when the subtotal was taken verbatim from OCR.
func (c *TotalsCalculator) AllocateTaxesProportionally(items []domain.Item, summary *domain.Summary) (map[uuid.UUID]domain.Money, error) {
	currency := summary.Total.Currency()

	totalTax, err := summary.ServiceTax.Add(summary.SstTax)
	if err != nil {
		return nil, err
	}

	allocations := make(map[uuid.UUID]domain.Money, len(items))

	zeroAll := func() map[uuid.UUID]domain.Money {
		for _, item := range items {
			allocations[item.ID] = domain.Zero(currency)
		}
		return allocations
	}

	// Guard divide-by-zero and degenerate inputs: no tax, or no item value
	// to apportion against, means every item gets zero.
	if !totalTax.IsPositive() {
		return zeroAll(), nil
	}
	subtotalSum := decimal.Zero
	for _, item := range items {
		subtotalSum = subtotalSum.Add(item.LineAmount.Amount())
	}
	if !subtotalSum.IsPositive() {
		return zeroAll(), nil
	}

	allocatedSum := decimal.Zero
	for _, item := range items {
		share := item.LineAmount.Amount().Div(subtotalSum)
		rounded := totalTax.Amount().Mul(share).Round(2)
		alloc, err := domain.NewMoney(rounded, currency)
		if err != nil {
			return nil, err
		}
		allocations[item.ID] = alloc
		allocatedSum = allocatedSum.Add(rounded)
	}

	// Rounding residual goes entirely to the first item in parse order so
	// the allocation sum stays exact.
	diff := totalTax.Amount().Sub(allocatedSum).Round(2)
	if !diff.IsZero() && len(items) > 0 {
		firstID := items[0].ID
		corrected, err := domain.NewMoney(allocations[firstID].Amount().Add(diff), currency)
		if err != nil {
			return nil, err
		}
		allocations[firstID] = corrected
	}

	return allocations, nil
}
