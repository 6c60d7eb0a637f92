package ocr

import (
	"context"

	"receipt-analyzer/internal/core/ports"
)

const stubReceiptText = "KEDAI MAKAN\nNASI LEMAK 6.50\nTEH TARIK 3.00\nSUBTOTAL 9.50\nSST 0.57\nTOTAL 10.07"

const stubConfidence = 0.85

// StubService implements ports.OcrService with a fixed sample receipt. Used
// for local development and tests when no OCR engine is available.
type StubService struct{}

// NewStubService creates a StubService.
func NewStubService() *StubService {
	return &StubService{}
}

// ExtractText returns the canned sample receipt regardless of input.
func (s *StubService) ExtractText(_ context.Context, _ []byte) (*ports.OcrResult, error) {
	confidence := stubConfidence
	return &ports.OcrResult{
		Text:       stubReceiptText,
		Confidence: &confidence,
	}, nil
}
