package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"receipt-analyzer/internal/core/domain"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/internal/core/ports/mocks"
	"receipt-analyzer/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const sampleOcrText = "NASI LEMAK 6.50\nTEH TARIK 3.00\nSUBTOTAL 9.50\nSST 0.57\nTOTAL 10.07"

type analyzeTestDeps struct {
	svc    *AnalyzeServiceImpl
	ocrSvc *mocks.MockOcrService
	cache  *mocks.MockAnalysisCache
	repo   *mocks.MockAnalysisRepository
	ctrl   *gomock.Controller
}

// setupAnalyzeService wires the real parser and totals calculator behind
// mocked OCR, cache, and history ports.
func setupAnalyzeService(t *testing.T, withCache, withRepo bool) *analyzeTestDeps {
	ctrl := gomock.NewController(t)
	d := &analyzeTestDeps{
		ocrSvc: mocks.NewMockOcrService(ctrl),
		ctrl:   ctrl,
	}

	var cache ports.AnalysisCache
	if withCache {
		d.cache = mocks.NewMockAnalysisCache(ctrl)
		cache = d.cache
	}
	var repo ports.AnalysisRepository
	if withRepo {
		d.repo = mocks.NewMockAnalysisRepository(ctrl)
		repo = d.repo
	}

	d.svc = NewAnalyzeService(
		d.ocrSvc, NewReceiptParser(), NewTotalsCalculator(),
		cache, repo, "MYR", time.Hour, zerolog.Nop(),
	)
	return d
}

func floatPtr(f float64) *float64 { return &f }

// ==================== AnalyzeImage Tests ====================

func TestAnalyzeService_AnalyzeImage_FullPipeline(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	image := []byte("fake-receipt-image")

	d.ocrSvc.EXPECT().ExtractText(ctx, image).Return(&ports.OcrResult{
		Text:       sampleOcrText,
		Confidence: floatPtr(0.85),
	}, nil)

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Currency:    "myr",
	})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "MYR", result.Currency)
	require.Len(t, result.Items, 2)

	assert.Equal(t, "NASI LEMAK", result.Items[0].Name)
	assert.True(t, result.Items[0].OriginalPrice.Equal(mustDecimal(t, "6.50")))
	assert.True(t, result.Items[0].TaxedPrice.Equal(mustDecimal(t, "6.89")))
	assert.True(t, result.Items[0].TotalPrice.Equal(mustDecimal(t, "6.89")))

	assert.Equal(t, "TEH TARIK", result.Items[1].Name)
	assert.True(t, result.Items[1].TaxedPrice.Equal(mustDecimal(t, "3.18")))

	assert.True(t, result.Summary.Subtotal.Equal(mustDecimal(t, "9.50")))
	assert.True(t, result.Summary.SstTax.Equal(mustDecimal(t, "0.57")))
	assert.True(t, result.Summary.Total.Equal(mustDecimal(t, "10.07")))

	require.NotNil(t, result.Confidence)
	assert.InDelta(t, 0.85, *result.Confidence, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestAnalyzeService_AnalyzeImage_DefaultsCurrencyToMYR(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Nil()).Return(&ports.OcrResult{
		Text: "KOPI 4.00",
	}, nil)

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{})
	require.NoError(t, err)
	assert.Equal(t, "MYR", result.Currency)
	assert.Contains(t, result.Warnings, "No image provided; proceeding with empty OCR input.")
}

func TestAnalyzeService_AnalyzeImage_InvalidBase64Recovered(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Nil()).Return(&ports.OcrResult{
		Text: "KOPI 4.00",
	}, nil)

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: "!!!not-base64!!!",
		Currency:    "MYR",
	})
	require.NoError(t, err)
	assert.Contains(t, result.Warnings, "Invalid base64 image; proceeding with empty OCR input.")
}

func TestAnalyzeService_AnalyzeImage_OcrFailure(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Any()).Return(nil, errors.New("engine offline"))

	_, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("img")),
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "OCR_001", appErr.Code)
}

func TestAnalyzeService_AnalyzeImage_NoItemsFound(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Any()).Return(&ports.OcrResult{
		Text: "KEDAI MAKMUR\nTERIMA KASIH",
	}, nil)

	_, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("img")),
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RCPT_001", appErr.Code)
}

func TestAnalyzeService_AnalyzeImage_CacheHitSkipsOcr(t *testing.T) {
	d := setupAnalyzeService(t, true, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	image := []byte("cached-image")
	key := analysisCacheKey(image, "MYR")

	cached := &ports.AnalyzeResult{
		Currency: "MYR",
		Items: []domain.AnalyzedItem{
			{Name: "KOPI", Quantity: 1, OriginalPrice: mustDecimal(t, "4.00"), TaxedPrice: mustDecimal(t, "4.00"), TotalPrice: mustDecimal(t, "4.00")},
		},
		Warnings: []string{},
	}
	payload, err := json.Marshal(cached)
	require.NoError(t, err)

	d.cache.EXPECT().Get(ctx, key).Return(payload, nil)
	// No ExtractText expectation: a cache hit must short-circuit OCR.

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Currency:    "MYR",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	assert.Equal(t, "KOPI", result.Items[0].Name)
}

func TestAnalyzeService_AnalyzeImage_CacheMissStoresResult(t *testing.T) {
	d := setupAnalyzeService(t, true, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	image := []byte("fresh-image")
	key := analysisCacheKey(image, "MYR")

	d.cache.EXPECT().Get(ctx, key).Return(nil, nil)
	d.ocrSvc.EXPECT().ExtractText(ctx, image).Return(&ports.OcrResult{Text: "KOPI 4.00"}, nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), time.Hour).Return(nil)

	_, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Currency:    "MYR",
	})
	require.NoError(t, err)
}

func TestAnalyzeService_AnalyzeImage_CacheErrorsAreBestEffort(t *testing.T) {
	d := setupAnalyzeService(t, true, false)
	defer d.ctrl.Finish()

	ctx := context.Background()
	image := []byte("img")
	key := analysisCacheKey(image, "MYR")

	d.cache.EXPECT().Get(ctx, key).Return(nil, errors.New("redis down"))
	d.ocrSvc.EXPECT().ExtractText(ctx, image).Return(&ports.OcrResult{Text: "KOPI 4.00"}, nil)
	d.cache.EXPECT().Set(ctx, key, gomock.Any(), time.Hour).Return(errors.New("redis down"))

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(image),
		Currency:    "MYR",
	})
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
}

func TestAnalyzeService_AnalyzeImage_RecordsHistory(t *testing.T) {
	d := setupAnalyzeService(t, false, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Any()).Return(&ports.OcrResult{Text: "KOPI 4.00"}, nil)
	d.repo.EXPECT().Create(ctx, gomock.Any()).DoAndReturn(
		func(_ context.Context, record *domain.AnalysisRecord) error {
			assert.Equal(t, "MYR", record.Currency)
			assert.Len(t, record.Items, 1)
			assert.False(t, record.CreatedAt.IsZero())
			return nil
		})

	_, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("img")),
	})
	require.NoError(t, err)
}

func TestAnalyzeService_AnalyzeImage_HistoryFailureIsBestEffort(t *testing.T) {
	d := setupAnalyzeService(t, false, true)
	defer d.ctrl.Finish()

	ctx := context.Background()
	d.ocrSvc.EXPECT().ExtractText(ctx, gomock.Any()).Return(&ports.OcrResult{Text: "KOPI 4.00"}, nil)
	d.repo.EXPECT().Create(ctx, gomock.Any()).Return(errors.New("db down"))

	result, err := d.svc.AnalyzeImage(ctx, ports.AnalyzeImageRequest{
		ImageBase64: base64.StdEncoding.EncodeToString([]byte("img")),
	})
	require.NoError(t, err)
	require.NotNil(t, result)
}

// ==================== AnalyzeText Tests ====================

func TestAnalyzeService_AnalyzeText_SkipsOcr(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	// No ExtractText expectation: text analysis never touches OCR.
	result, err := d.svc.AnalyzeText(context.Background(), ports.AnalyzeTextRequest{
		OcrText:  sampleOcrText,
		Currency: "MYR",
	})
	require.NoError(t, err)

	require.Len(t, result.Items, 2)
	assert.True(t, result.Items[0].TaxedPrice.Equal(mustDecimal(t, "6.89")))
	assert.True(t, result.Items[1].TaxedPrice.Equal(mustDecimal(t, "3.18")))
	assert.Contains(t, result.Warnings, "OCR text provided directly; image analysis skipped.")
	assert.Nil(t, result.Confidence)
}

func TestAnalyzeService_AnalyzeText_NoItems(t *testing.T) {
	d := setupAnalyzeService(t, false, false)
	defer d.ctrl.Finish()

	_, err := d.svc.AnalyzeText(context.Background(), ports.AnalyzeTextRequest{
		OcrText: "TERIMA KASIH",
	})
	require.Error(t, err)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "RCPT_001", appErr.Code)
}
