package handler

import (
	"math"
	"strconv"

	"receipt-analyzer/internal/adapter/http/dto"
	"receipt-analyzer/internal/core/ports"
	"receipt-analyzer/pkg/apperror"
	"receipt-analyzer/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HistoryHandler handles analysis history endpoints.
type HistoryHandler struct {
	historySvc ports.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historySvc ports.HistoryService) *HistoryHandler {
	return &HistoryHandler{historySvc: historySvc}
}

// ListAnalyses handles GET /api/v1/analyses.
func (h *HistoryHandler) ListAnalyses(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	params := ports.AnalysisListParams{
		Page:     page,
		PageSize: pageSize,
	}

	if cur := c.Query("currency"); cur != "" {
		params.Currency = &cur
	}
	if f := c.Query("from"); f != "" {
		if v, err := strconv.ParseInt(f, 10, 64); err == nil {
			params.From = &v
		}
	}
	if t := c.Query("to"); t != "" {
		if v, err := strconv.ParseInt(t, 10, 64); err == nil {
			params.To = &v
		}
	}

	records, total, err := h.historySvc.ListAnalyses(c.Request.Context(), params)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]dto.AnalysisRecordResponse, 0, len(records))
	for i := range records {
		items = append(items, dto.ToAnalysisRecordResponse(&records[i]))
	}

	totalPages := int(math.Ceil(float64(total) / float64(pageSize)))

	response.OK(c, dto.AnalysisListResponse{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	})
}

// GetAnalysis handles GET /api/v1/analyses/:id.
func (h *HistoryHandler) GetAnalysis(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, apperror.Validation("invalid analysis id"))
		return
	}

	record, err := h.historySvc.GetAnalysis(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, dto.ToAnalysisRecordResponse(record))
}
