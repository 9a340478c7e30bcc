package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"dropscout/internal/config"
	"dropscout/internal/risk"
	"dropscout/internal/scenario"
)

// ScenarioHandler exposes the profit calculator directly, without scraping
// or persistence: the caller supplies real costs and gets the three-way
// scenario set plus a risk assessment for their test budget.
type ScenarioHandler struct {
	Risk       *risk.Evaluator
	ReturnRate decimal.Decimal
	TestBudget decimal.Decimal
}

func NewScenarioHandler(riskCfg config.RiskConfig, scenarioCfg config.ScenarioConfig) *ScenarioHandler {
	rate := decimal.NewFromFloat(scenarioCfg.DefaultReturnRate)
	if !rate.IsPositive() {
		rate = scenario.DefaultReturnRate
	}
	return &ScenarioHandler{
		Risk:       &risk.Evaluator{Config: riskCfg},
		ReturnRate: rate,
		TestBudget: decimal.NewFromFloat(riskCfg.DefaultTestBudgetUSD),
	}
}

func (h *ScenarioHandler) Register(r *gin.Engine) {
	r.POST("/api/v1/scenarios", h.calculate)
}

type scenarioRequest struct {
	SellingPrice  decimal.Decimal  `json:"selling_price"`
	ProductCost   decimal.Decimal  `json:"product_cost"`
	ShippingCost  decimal.Decimal  `json:"shipping_cost"`
	AdCostPerSale decimal.Decimal  `json:"ad_cost_per_sale"`
	ReturnRate    *decimal.Decimal `json:"return_rate"`
	TestBudget    *decimal.Decimal `json:"test_budget"`
	Probability   float64          `json:"probability_of_sale"`
}

type scenarioResponse struct {
	Scenarios scenario.Set    `json:"scenarios"`
	Risk      risk.Assessment `json:"risk"`
}

func (h *ScenarioHandler) calculate(c *gin.Context) {
	var req scenarioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if req.SellingPrice.IsNegative() || req.ProductCost.IsNegative() ||
		req.ShippingCost.IsNegative() || req.AdCostPerSale.IsNegative() {
		Error(c, http.StatusBadRequest, "prices and costs must not be negative", nil)
		return
	}

	returnRate := h.ReturnRate
	if req.ReturnRate != nil {
		if req.ReturnRate.IsNegative() || req.ReturnRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
			Error(c, http.StatusBadRequest, "return_rate must be in [0,1)", nil)
			return
		}
		returnRate = *req.ReturnRate
	}
	budget := h.TestBudget
	if req.TestBudget != nil {
		if !req.TestBudget.IsPositive() {
			Error(c, http.StatusBadRequest, "test_budget must be positive", nil)
			return
		}
		budget = *req.TestBudget
	}

	set := scenario.CalculateScenarios(scenario.ProfitInputs{
		SellingPrice:  req.SellingPrice,
		ProductCost:   req.ProductCost,
		ShippingCost:  req.ShippingCost,
		AdCostPerSale: req.AdCostPerSale,
		ReturnRate:    returnRate,
	})
	assessment := h.Risk.CalculateRiskOfRuin(budget, set.Base.NetProfit, req.Probability)

	Ok(c, scenarioResponse{Scenarios: set, Risk: assessment}, nil)
}
