package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"receipt-analyzer/internal/core/ports"
)

// HTTPService implements ports.OcrService against a remote OCR engine that
// accepts raw image bytes and answers with extracted text.
type HTTPService struct {
	client   *http.Client
	endpoint string
}

// NewHTTPService creates an HTTPService for the given engine endpoint.
func NewHTTPService(endpoint string, timeout time.Duration) *HTTPService {
	return &HTTPService{
		client:   &http.Client{Timeout: timeout},
		endpoint: endpoint,
	}
}

// extractResponse is the engine's wire format.
type extractResponse struct {
	Text       string   `json:"text"`
	Confidence *float64 `json:"confidence,omitempty"`
}

// ExtractText posts the image to the engine and decodes the response.
func (s *HTTPService) ExtractText(ctx context.Context, imageBytes []byte) (*ports.OcrResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(imageBytes))
	if err != nil {
		return nil, fmt.Errorf("building ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling ocr engine: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("ocr engine returned %d: %s", resp.StatusCode, body)
	}

	var payload extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decoding ocr response: %w", err)
	}

	return &ports.OcrResult{
		Text:       payload.Text,
		Confidence: payload.Confidence,
	}, nil
}
