package service

import (
	"regexp"
	"strings"

	"receipt-analyzer/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Trailing numeric token: final run of digits, optionally followed by a dot
// or comma decimal separator and 1-2 more digits, anchored to end-of-line.
var amountRe = regexp.MustCompile(`(\d+(?:[.,]\d{1,2})?)\s*$`)

// Date/time patterns. Lines matching any of these are never items or
// summary entries, regardless of trailing numbers.
var (
	isoDateRe   = regexp.MustCompile(`\b\d{4}[-/.]\d{1,2}[-/.]\d{1,2}\b`)
	shortDateRe = regexp.MustCompile(`\b\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}\b`)
	timeRe      = regexp.MustCompile(`\b\d{1,2}:\d{2}(?::\d{2})?\b`)
)

// summaryField identifies which summary slot a classified line fills.
type summaryField int

const (
	fieldSubtotal summaryField = iota
	fieldServiceTax
	fieldSst
	fieldTotal
)

// Summary keywords in specificity order: "subtotal" and "service tax" must
// be checked before the generic "total"/"sst" substrings would shadow them.
var summaryKeywords = []struct {
	keyword string
	field   summaryField
}{
	{"subtotal", fieldSubtotal},
	{"service tax", fieldServiceTax},
	{"sst", fieldSst},
	{"total", fieldTotal},
}

// lineKind tags the outcome of classifying one OCR line.
type lineKind int

const (
	lineUnclassified lineKind = iota
	lineSkip
	lineSummary
	lineItem
)

// lineClass is the tagged classification result for one line.
type lineClass struct {
	kind   lineKind
	field  summaryField    // valid when kind == lineSummary
	name   string          // valid when kind == lineItem
	amount decimal.Decimal // valid when kind == lineSummary or lineItem
}

// classifyRule inspects a line and reports whether it claimed it.
type classifyRule func(line string) (lineClass, bool)

// ReceiptParserImpl implements ports.ReceiptParser with an ordered list of
// classification rules evaluated top-to-bottom per line; the first rule to
// claim a line wins, which keeps the precedence order auditable.
//
// Known limitation: the final numeric token on a line is taken as the
// authoritative line amount even when earlier tokens look like quantity or
// unit-price columns, so tabular multi-column receipts may misparse.
type ReceiptParserImpl struct {
	rules []classifyRule
}

// NewReceiptParser creates a parser with the standard rule order:
// date/time skip, summary keyword, item line.
func NewReceiptParser() *ReceiptParserImpl {
	return &ReceiptParserImpl{
		rules: []classifyRule{
			skipDateTimeRule,
			summaryRule,
			itemRule,
		},
	}
}

// Parse converts raw OCR text into a Receipt. It fails with domain.ErrNoItems
// when zero item lines are recognized after classification.
func (p *ReceiptParserImpl) Parse(ocrText string, currency string) (*domain.Receipt, error) {
	var items []domain.Item
	var subtotal, serviceTax, sstTax, total *domain.Money

	for _, line := range splitLines(ocrText) {
		class := p.classify(line)

		switch class.kind {
		case lineSummary:
			amount, err := domain.NewMoney(class.amount, currency)
			if err != nil {
				return nil, err
			}
			switch class.field {
			case fieldSubtotal:
				subtotal = &amount
			case fieldServiceTax:
				serviceTax = &amount
			case fieldSst:
				sstTax = &amount
			case fieldTotal:
				total = &amount
			}

		case lineItem:
			amount, err := domain.NewMoney(class.amount, currency)
			if err != nil {
				return nil, err
			}
			item, err := domain.NewItem(uuid.New(), class.name, domain.QuantityOne(), amount, amount)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		// lineSkip and lineUnclassified are dropped.
	}

	if len(items) == 0 {
		return nil, domain.ErrNoItems
	}

	var summary *domain.Summary
	if subtotal != nil || serviceTax != nil || sstTax != nil || total != nil {
		summary = &domain.Summary{
			Subtotal:   orZero(subtotal, currency),
			ServiceTax: orZero(serviceTax, currency),
			SstTax:     orZero(sstTax, currency),
			Total:      orZero(total, currency),
		}
	}

	// Tax lines are emitted in fixed order: service tax before SST.
	var taxLines []domain.TaxLine
	if serviceTax != nil && serviceTax.IsPositive() {
		taxLines = append(taxLines, domain.TaxLine{Type: domain.TaxTypeServiceTax, Amount: *serviceTax})
	}
	if sstTax != nil && sstTax.IsPositive() {
		taxLines = append(taxLines, domain.TaxLine{Type: domain.TaxTypeSst, Amount: *sstTax})
	}

	return domain.NewReceipt(uuid.New(), items, summary, taxLines, nil)
}

// classify runs the rules in order; the first match wins.
func (p *ReceiptParserImpl) classify(line string) lineClass {
	for _, rule := range p.rules {
		if class, ok := rule(line); ok {
			return class
		}
	}
	return lineClass{kind: lineUnclassified}
}

// skipDateTimeRule claims lines containing date or time patterns.
func skipDateTimeRule(line string) (lineClass, bool) {
	if isoDateRe.MatchString(line) || shortDateRe.MatchString(line) || timeRe.MatchString(line) {
		return lineClass{kind: lineSkip}, true
	}
	return lineClass{}, false
}

// summaryRule claims lines carrying a summary keyword and an extractable
// trailing amount. A keyword line without an amount is NOT claimed; it falls
// through to item classification (and, lacking an amount, ends up dropped).
func summaryRule(line string) (lineClass, bool) {
	normalized := strings.ToLower(line)
	for _, kw := range summaryKeywords {
		if !strings.Contains(normalized, kw.keyword) {
			continue
		}
		amount, ok := extractTrailingAmount(line)
		if !ok {
			return lineClass{}, false
		}
		return lineClass{kind: lineSummary, field: kw.field, amount: amount}, true
	}
	return lineClass{}, false
}

// itemRule claims lines with an extractable trailing amount and a non-empty
// remainder, which becomes the item name.
func itemRule(line string) (lineClass, bool) {
	amount, ok := extractTrailingAmount(line)
	if !ok {
		return lineClass{}, false
	}
	name := strings.TrimSpace(amountRe.ReplaceAllString(line, ""))
	if name == "" {
		return lineClass{}, false
	}
	return lineClass{kind: lineItem, name: name, amount: amount}, true
}

// extractTrailingAmount parses the final numeric token of a line,
// normalizing a comma decimal separator to a dot.
func extractTrailingAmount(line string) (decimal.Decimal, bool) {
	match := amountRe.FindStringSubmatch(line)
	if match == nil {
		return decimal.Decimal{}, false
	}
	raw := strings.ReplaceAll(match[1], ",", ".")
	parsed, err := decimal.NewFromString(raw)
	if err != nil || parsed.IsNegative() {
		return decimal.Decimal{}, false
	}
	return parsed, true
}

// splitLines splits OCR text into trimmed, non-empty lines in original order.
func splitLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func orZero(m *domain.Money, currency string) domain.Money {
	if m != nil {
		return *m
	}
	return domain.Zero(currency)
}
