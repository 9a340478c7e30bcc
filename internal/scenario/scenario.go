// Package scenario holds the pure profit math behind verdicts and risk
// assessments: net profit, margin, break-even price, and the bull/base/bear
// scenario variants. No I/O, no clocks, no shared state.
package scenario

import (
	"github.com/shopspring/decimal"
)

// DefaultReturnRate is applied by callers when a request omits the return
// rate. The calculator itself uses inputs as given.
var DefaultReturnRate = decimal.NewFromFloat(0.05)

// ProfitInputs is one immutable cost/price set. All values are non-negative
// by contract; callers reject physically invalid inputs (negative prices)
// before invoking the calculator.
type ProfitInputs struct {
	SellingPrice  decimal.Decimal `json:"selling_price"`
	ProductCost   decimal.Decimal `json:"product_cost"`
	ShippingCost  decimal.Decimal `json:"shipping_cost"`
	AdCostPerSale decimal.Decimal `json:"ad_cost_per_sale"`
	ReturnRate    decimal.Decimal `json:"return_rate"`
}

// Result is the outcome of one net-profit computation. NetProfit and
// ProfitMargin can be negative.
type Result struct {
	NetProfit      decimal.Decimal `json:"net_profit"`
	ProfitMargin   decimal.Decimal `json:"profit_margin"`
	BreakEvenPrice decimal.Decimal `json:"break_even_price"`
}

// Set bundles the three scenario variants that are always co-produced.
type Set struct {
	Bull Result `json:"bull"`
	Base Result `json:"base"`
	Bear Result `json:"bear"`
}

// Scenario multipliers. The directions (bull up, bear down) are the contract;
// the magnitudes are tunable.
var (
	bullPriceMult    = decimal.NewFromFloat(1.2)
	bullAdMult       = decimal.NewFromFloat(0.8)
	bullReturnRate   = decimal.NewFromFloat(0.03)
	bearPriceMult    = decimal.NewFromFloat(0.9)
	bearAdMult       = decimal.NewFromFloat(1.2)
	bearShippingMult = decimal.NewFromFloat(1.1)
	bearReturnRate   = decimal.NewFromFloat(0.08)
)

var hundred = decimal.NewFromInt(100)

// CalculateNetProfit computes net profit, margin and break-even price for one
// input set. Margin is 0 when SellingPrice is not positive; the function
// never fails. NetProfit and ProfitMargin are rounded to 2 decimal places
// using round-half-away-from-zero (decimal.Round); the choice is arbitrary
// but applied consistently so repeated runs are bit-identical.
func CalculateNetProfit(in ProfitInputs) Result {
	returnCost := in.ReturnRate.Mul(in.SellingPrice)
	netProfit := in.SellingPrice.
		Sub(in.ProductCost).
		Sub(in.ShippingCost).
		Sub(in.AdCostPerSale).
		Sub(returnCost)

	margin := decimal.Zero
	if in.SellingPrice.IsPositive() {
		margin = netProfit.Div(in.SellingPrice).Mul(hundred)
	}

	breakEven := in.ProductCost.
		Add(in.ShippingCost).
		Add(in.AdCostPerSale).
		Add(returnCost)

	return Result{
		NetProfit:      netProfit.Round(2),
		ProfitMargin:   margin.Round(2),
		BreakEvenPrice: breakEven,
	}
}

// CalculateScenarios derives the bull and bear variants from independent
// copies of the base inputs and runs each through CalculateNetProfit.
// ProfitInputs is a value type, so the three computations cannot alias.
func CalculateScenarios(in ProfitInputs) Set {
	bull := in
	bull.SellingPrice = in.SellingPrice.Mul(bullPriceMult)
	bull.AdCostPerSale = in.AdCostPerSale.Mul(bullAdMult)
	bull.ReturnRate = bullReturnRate

	bear := in
	bear.SellingPrice = in.SellingPrice.Mul(bearPriceMult)
	bear.AdCostPerSale = in.AdCostPerSale.Mul(bearAdMult)
	bear.ShippingCost = in.ShippingCost.Mul(bearShippingMult)
	bear.ReturnRate = bearReturnRate

	return Set{
		Bull: CalculateNetProfit(bull),
		Base: CalculateNetProfit(in),
		Bear: CalculateNetProfit(bear),
	}
}
