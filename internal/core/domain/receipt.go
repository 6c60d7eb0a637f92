package domain

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

var (
	// ErrItemNameRequired is returned when a receipt item has a blank name.
	ErrItemNameRequired = errors.New("item name is required")
	// ErrNoItems is returned when a receipt is constructed without items.
	ErrNoItems = errors.New("receipt must contain at least one item")
	// ErrSummaryRequired is returned when updating a receipt with a nil summary.
	ErrSummaryRequired = errors.New("summary is required")
)

// TaxType identifies a named tax component recognized on a receipt.
type TaxType string

const (
	TaxTypeServiceTax TaxType = "SERVICE_TAX"
	TaxTypeSst        TaxType = "SST"
)

// TaxLine is a tagged tax amount found in the receipt source.
type TaxLine struct {
	Type   TaxType
	Amount Money
}

// Summary holds the receipt's monetary summary. When parsed from the source
// it is trusted as given: subtotal + taxes is not required to equal total.
type Summary struct {
	Subtotal   Money
	ServiceTax Money
	SstTax     Money
	Total      Money
}

// Item is a single receipt line item. Created once during parsing and
// immutable thereafter.
type Item struct {
	ID         uuid.UUID
	Name       string
	Quantity   Quantity
	UnitPrice  Money
	LineAmount Money
}

// NewItem validates and constructs a receipt item. Unit price and line
// amount must share a currency.
func NewItem(id uuid.UUID, name string, quantity Quantity, unitPrice, lineAmount Money) (Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Item{}, ErrItemNameRequired
	}
	if unitPrice.Currency() != lineAmount.Currency() {
		return Item{}, ErrCurrencyMismatch
	}
	return Item{
		ID:         id,
		Name:       name,
		Quantity:   quantity,
		UnitPrice:  unitPrice,
		LineAmount: lineAmount,
	}, nil
}

// Receipt is the aggregate root for one analyzed receipt: an ordered list of
// at least one item, an optional summary, the itemized tax lines, and the
// OCR confidence when known. It is a transient per-request value and is
// never persisted as such.
type Receipt struct {
	ID           uuid.UUID
	Items        []Item
	TaxBreakdown []TaxLine
	Confidence   *float64

	summary *Summary
}

// NewReceipt constructs a receipt, enforcing the non-empty-items invariant.
func NewReceipt(id uuid.UUID, items []Item, summary *Summary, taxBreakdown []TaxLine, confidence *float64) (*Receipt, error) {
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	if taxBreakdown == nil {
		taxBreakdown = []TaxLine{}
	}
	return &Receipt{
		ID:           id,
		Items:        items,
		TaxBreakdown: taxBreakdown,
		Confidence:   confidence,
		summary:      summary,
	}, nil
}

// Summary returns the receipt summary, or nil when none was found or derived.
func (r *Receipt) Summary() *Summary {
	return r.summary
}

// UpdateSummary replaces the receipt summary. The totals-reconciliation step
// calls this exactly once after parsing.
func (r *Receipt) UpdateSummary(summary *Summary) error {
	if summary == nil {
		return ErrSummaryRequired
	}
	r.summary = summary
	return nil
}
