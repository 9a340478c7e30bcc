package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"dropscout/internal/repository"
	"dropscout/internal/service"
)

type AnalysisHandler struct {
	Service *service.AnalysisService
}

func (h *AnalysisHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")
	group.POST("/analyze", h.analyze)
	group.GET("/verdicts", h.listVerdicts)
	group.GET("/verdicts/:id", h.getVerdict)
	group.POST("/verdicts/:id/dismiss", h.dismissVerdict)
	group.GET("/stats", h.stats)
}

type analyzeRequest struct {
	Keyword string `json:"keyword" binding:"required"`
	Force   bool   `json:"force"`
}

func (h *AnalysisHandler) analyze(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "analysis service unavailable", nil)
		return
	}
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "keyword is required", nil)
		return
	}
	if strings.TrimSpace(req.Keyword) == "" {
		Error(c, http.StatusBadRequest, "keyword is required", nil)
		return
	}

	report, err := h.Service.Analyze(c.Request.Context(), req.Keyword, req.Force)
	if errors.Is(err, service.ErrNoListings) {
		Error(c, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, report, map[string]any{"from_cache": report.FromCache})
}

func (h *AnalysisHandler) listVerdicts(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "analysis service unavailable", nil)
		return
	}
	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"analyzed_at": "analyzed_at",
		"confidence":  "confidence_score",
		"saturation":  "saturation_score",
		"profit":      "profit_average_case",
		"money_saved": "money_saved",
	})
	asc := strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc")

	params := repository.ListVerdictsParams{
		Keyword:        strPtr(c, "keyword"),
		Status:         strPtr(c, "status"),
		Classification: strPtr(c, "classification"),
		RiskLevel:      strPtr(c, "risk_level"),
		OrderBy:        orderBy,
		Asc:            boolPtr(asc),
		Limit:          intQuery(c, "limit", 50),
		Offset:         intQuery(c, "offset", 0),
	}
	items, total, err := h.Service.Verdicts(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *AnalysisHandler) getVerdict(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "analysis service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Service.Verdict(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "verdict not found", nil)
		return
	}
	Ok(c, item, nil)
}

func (h *AnalysisHandler) dismissVerdict(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "analysis service unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	err := h.Service.DismissVerdict(c.Request.Context(), id)
	if errors.Is(err, service.ErrVerdictNotFound) {
		Error(c, http.StatusNotFound, "verdict not found", nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"id": id, "status": "dismissed"}, nil)
}

func (h *AnalysisHandler) stats(c *gin.Context) {
	if h.Service == nil {
		Error(c, http.StatusInternalServerError, "analysis service unavailable", nil)
		return
	}
	summary, err := h.Service.Stats(c.Request.Context())
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, summary, nil)
}
