package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultCurrency is assumed when neither the request nor the configuration
// names one.
const DefaultCurrency = "MYR"

// AnalyzeServiceImpl implements ports.AnalyzeService: it sequences
// OCR -> parse -> reconcile -> allocate -> response shaping. All state is
// per-request; the struct itself is safe for concurrent use.
type AnalyzeServiceImpl struct {
	ocrSvc          ports.OcrService
	parser          ports.ReceiptParser
	totals          *TotalsCalculator
	cache           ports.AnalysisCache      // nil = result caching disabled
	repo            ports.AnalysisRepository // nil = history disabled
	defaultCurrency string
	cacheTTL        time.Duration
	log             zerolog.Logger
}

// NewAnalyzeService creates a new AnalyzeServiceImpl. cache and repo may be
// nil to disable the respective side paths.
func NewAnalyzeService(
	ocrSvc ports.OcrService,
	parser ports.ReceiptParser,
	totals *TotalsCalculator,
	cache ports.AnalysisCache,
	repo ports.AnalysisRepository,
	defaultCurrency string,
	cacheTTL time.Duration,
	log zerolog.Logger,
) *AnalyzeServiceImpl {
	if defaultCurrency == "" {
		defaultCurrency = DefaultCurrency
	}
	return &AnalyzeServiceImpl{
		ocrSvc:          ocrSvc,
		parser:          parser,
		totals:          totals,
		cache:           cache,
		repo:            repo,
		defaultCurrency: defaultCurrency,
		cacheTTL:        cacheTTL,
		log:             log,
	}
}

// AnalyzeImage runs the image flow. Missing or malformed base64 input is
// recovered locally: the pipeline continues with an empty image buffer and a
// warning, keeping the endpoint resilient to bad client input. OCR failures
// and "no items found" propagate as request-level errors.
func (s *AnalyzeServiceImpl) AnalyzeImage(ctx context.Context, req ports.AnalyzeImageRequest) (*ports.AnalyzeResult, error) {
	currency := s.normalizeCurrency(req.Currency)
	warnings := []string{}

	var imageBytes []byte
	if strings.TrimSpace(req.ImageBase64) == "" {
		warnings = append(warnings, "No image provided; proceeding with empty OCR input.")
	} else {
		decoded, err := base64.StdEncoding.DecodeString(req.ImageBase64)
		if err != nil {
			warnings = append(warnings, "Invalid base64 image; proceeding with empty OCR input.")
		} else {
			imageBytes = decoded
		}
	}

	// Result cache sits in front of the OCR hop: identical image bytes and
	// currency always produce identical output. Best-effort on both sides.
	cacheKey := ""
	if s.cache != nil && len(imageBytes) > 0 {
		cacheKey = analysisCacheKey(imageBytes, currency)
		cached, err := s.cache.Get(ctx, cacheKey)
		if err != nil {
			s.log.Warn().Err(err).Msg("analysis cache read failed, continuing without cache")
		}
		if cached != nil {
			result := &ports.AnalyzeResult{}
			if uerr := json.Unmarshal(cached, result); uerr != nil {
				s.log.Warn().Err(uerr).Str("key", cacheKey).Msg("discarding unreadable cache entry")
			} else {
				s.log.Debug().Str("key", cacheKey).Msg("analysis cache hit")
				return result, nil
			}
		}
	}

	ocrResult, err := s.ocrSvc.ExtractText(ctx, imageBytes)
	if err != nil {
		return nil, apperror.ErrOcrFailure(err)
	}

	result, err := s.analyze(ocrResult.Text, currency, warnings, ocrResult.Confidence)
	if err != nil {
		return nil, err
	}

	if cacheKey != "" {
		if payload, err := json.Marshal(result); err == nil {
			if err := s.cache.Set(ctx, cacheKey, payload, s.cacheTTL); err != nil {
				s.log.Warn().Err(err).Str("key", cacheKey).Msg("failed to cache analysis result")
			}
		}
	}

	s.recordHistory(ctx, result)

	return result, nil
}

// AnalyzeText runs the text-only variant, skipping OCR entirely.
func (s *AnalyzeServiceImpl) AnalyzeText(ctx context.Context, req ports.AnalyzeTextRequest) (*ports.AnalyzeResult, error) {
	currency := s.normalizeCurrency(req.Currency)
	warnings := []string{"OCR text provided directly; image analysis skipped."}

	result, err := s.analyze(req.OcrText, currency, warnings, nil)
	if err != nil {
		return nil, err
	}

	s.recordHistory(ctx, result)

	return result, nil
}

// analyze is the shared parse -> reconcile -> allocate -> shape pipeline.
func (s *AnalyzeServiceImpl) analyze(ocrText, currency string, warnings []string, ocrConfidence *float64) (*ports.AnalyzeResult, error) {
	receipt, err := s.parser.Parse(ocrText, currency)
	if err != nil {
		if errors.Is(err, domain.ErrNoItems) {
			return nil, apperror.ErrNoItemsFound()
		}
		return nil, apperror.InternalError(fmt.Errorf("parse receipt: %w", err))
	}

	summary, err := s.totals.EnsureSummary(receipt.Items, receipt.Summary(), currency)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("ensure summary: %w", err))
	}
	if err := receipt.UpdateSummary(summary); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("update summary: %w", err))
	}

	allocations, err := s.totals.AllocateTaxesProportionally(receipt.Items, summary)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("allocate taxes: %w", err))
	}

	items := make([]domain.AnalyzedItem, 0, len(receipt.Items))
	for _, item := range receipt.Items {
		taxed, err := item.LineAmount.Add(allocations[item.ID])
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("apply allocation: %w", err))
		}
		items = append(items, domain.AnalyzedItem{
			Name:          item.Name,
			Quantity:      item.Quantity.Value().IntPart(),
			OriginalPrice: item.LineAmount.Amount(),
			TaxedPrice:    taxed.Amount(),
			TotalPrice:    taxed.Amount(),
		})
	}

	confidence := ocrConfidence
	if confidence == nil {
		confidence = receipt.Confidence
	}

	return &ports.AnalyzeResult{
		Currency: currency,
		Items:    items,
		Summary: ports.SummaryResult{
			Subtotal:   summary.Subtotal.Amount(),
			ServiceTax: summary.ServiceTax.Amount(),
			SstTax:     summary.SstTax.Amount(),
			Total:      summary.Total.Amount(),
		},
		Confidence: confidence,
		Warnings:   warnings,
	}, nil
}

// recordHistory persists the response projection, best-effort: a history
// write failure never fails the analysis itself.
func (s *AnalyzeServiceImpl) recordHistory(ctx context.Context, result *ports.AnalyzeResult) {
	if s.repo == nil {
		return
	}

	record := &domain.AnalysisRecord{
		ID:         uuid.New(),
		Currency:   result.Currency,
		Items:      result.Items,
		Subtotal:   result.Summary.Subtotal,
		ServiceTax: result.Summary.ServiceTax,
		SstTax:     result.Summary.SstTax,
		Total:      result.Summary.Total,
		Confidence: result.Confidence,
		Warnings:   result.Warnings,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, record); err != nil {
		s.log.Warn().Err(err).Str("analysis_id", record.ID.String()).Msg("failed to record analysis history")
		return
	}

	s.log.Info().
		Str("analysis_id", record.ID.String()).
		Str("currency", record.Currency).
		Int("items", len(record.Items)).
		Msg("analysis recorded")
}

// normalizeCurrency trims and uppercases the requested currency, falling
// back to the configured default when absent.
func (s *AnalyzeServiceImpl) normalizeCurrency(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return s.defaultCurrency
	}
	return currency
}

// analysisCacheKey derives a deterministic cache key from the image bytes
// and currency.
func analysisCacheKey(imageBytes []byte, currency string) string {
	h := sha256.New()
	h.Write(imageBytes)
	h.Write([]byte("|" + currency))
	return hex.EncodeToString(h.Sum(nil))
}
