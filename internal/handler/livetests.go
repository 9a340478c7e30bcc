package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"dropscout/internal/livetest"
	"dropscout/internal/repository"
	"dropscout/internal/service"
)

type LiveTestHandler struct {
	Desk *service.TestDeskService
}

func (h *LiveTestHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1/tests")
	group.POST("", h.startTest)
	group.GET("", h.listTests)
	group.GET("/:id", h.getTest)
	group.POST("/:id/spend", h.recordSpend)
	group.POST("/:id/sales", h.recordSales)
	group.POST("/:id/action", h.applyAction)
}

type startTestRequest struct {
	VerdictID uint64     `json:"verdict_id" binding:"required"`
	StartDate *time.Time `json:"start_date"`
}

func (h *LiveTestHandler) startTest(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	var req startTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "verdict_id is required", nil)
		return
	}
	start := time.Time{}
	if req.StartDate != nil {
		start = *req.StartDate
	}
	item, err := h.Desk.StartTest(c.Request.Context(), req.VerdictID, start)
	if errors.Is(err, service.ErrVerdictNotTestable) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
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

func (h *LiveTestHandler) listTests(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	orderBy := parseOrder(c.Query("sort_by"), map[string]string{
		"start_date":  "start_date",
		"money_spent": "money_spent",
		"sales_count": "sales_count",
	})
	asc := strings.EqualFold(strings.TrimSpace(c.Query("order")), "asc")

	params := repository.ListLiveTestsParams{
		Status:  strPtr(c, "status"),
		OrderBy: orderBy,
		Asc:     boolPtr(asc),
		Limit:   intQuery(c, "limit", 50),
		Offset:  intQuery(c, "offset", 0),
	}
	items, total, err := h.Desk.Tests(c.Request.Context(), params)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	Ok(c, items, paginationMeta(params.Limit, params.Offset, total))
}

func (h *LiveTestHandler) getTest(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	item, err := h.Desk.Test(c.Request.Context(), id)
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "live test not found", nil)
		return
	}
	Ok(c, item, nil)
}

// Zero is a valid increment for both requests, so neither field carries a
// required binding; negatives are rejected explicitly.
type spendRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

func (h *LiveTestHandler) recordSpend(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req spendRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Amount.IsNegative() {
		Error(c, http.StatusBadRequest, "amount must be a non-negative number", nil)
		return
	}
	item, err := h.Desk.RecordSpend(c.Request.Context(), id, req.Amount)
	if errors.Is(err, service.ErrTestClosed) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "live test not found", nil)
		return
	}
	Ok(c, item, nil)
}

type salesRequest struct {
	Count int `json:"count"`
}

func (h *LiveTestHandler) recordSales(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req salesRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Count < 0 {
		Error(c, http.StatusBadRequest, "count must be a non-negative integer", nil)
		return
	}
	item, err := h.Desk.RecordSales(c.Request.Context(), id, req.Count)
	if errors.Is(err, service.ErrTestClosed) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "live test not found", nil)
		return
	}
	Ok(c, item, nil)
}

type actionRequest struct {
	Action string `json:"action" binding:"required"`
}

func (h *LiveTestHandler) applyAction(c *gin.Context) {
	if h.Desk == nil {
		Error(c, http.StatusInternalServerError, "test desk unavailable", nil)
		return
	}
	id := uint64Param(c, "id")
	if id == 0 {
		Error(c, http.StatusBadRequest, "invalid id", nil)
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "action is required", nil)
		return
	}
	action := livetest.Action(strings.ToLower(strings.TrimSpace(req.Action)))
	item, err := h.Desk.ApplyAction(c.Request.Context(), id, action)
	if errors.Is(err, service.ErrInvalidAction) {
		Error(c, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if errors.Is(err, service.ErrTestClosed) {
		Error(c, http.StatusConflict, err.Error(), nil)
		return
	}
	if err != nil {
		Error(c, http.StatusBadGateway, err.Error(), nil)
		return
	}
	if item == nil {
		Error(c, http.StatusNotFound, "live test not found", nil)
		return
	}
	Ok(c, item, nil)
}
