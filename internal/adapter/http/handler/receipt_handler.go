package handler

import (
	"receipt-analyzer/internal/adapter/http/dto"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/pkg/apperror"
	"receipt-analyzer/pkg/response"

	"github.com/gin-gonic/gin"
)

// ReceiptHandler handles receipt analysis endpoints.
type ReceiptHandler struct {
	analyzeSvc ports.AnalyzeService
}

// NewReceiptHandler creates a new ReceiptHandler.
func NewReceiptHandler(analyzeSvc ports.AnalyzeService) *ReceiptHandler {
	return &ReceiptHandler{analyzeSvc: analyzeSvc}
}

// Analyze handles POST /api/v1/receipts/analyze.
func (h *ReceiptHandler) Analyze(c *gin.Context) {
	var req dto.AnalyzeImageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.analyzeSvc.AnalyzeImage(c.Request.Context(), ports.AnalyzeImageRequest{
		ImageBase64: req.ImageBase64,
		Currency:    req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAnalyzeResponse(result))
}

// AnalyzeText handles POST /api/v1/receipts/analyze-text.
func (h *ReceiptHandler) AnalyzeText(c *gin.Context) {
	var req dto.AnalyzeTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	result, err := h.analyzeSvc.AnalyzeText(c.Request.Context(), ports.AnalyzeTextRequest{
		OcrText:  req.OcrText,
		Currency: req.Currency,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAnalyzeResponse(result))
}
