// Package risk classifies how likely a fixed test budget is to be exhausted
// before a product reaches break-even.
package risk

import (
	"fmt"

	"github.com/shopspring/decimal"

	"dropscout/internal/config"
)

// Level is the risk classification of a test budget.
type Level string

const (
	LevelGuaranteedFailure Level = "guaranteed_failure"
	LevelHigh              Level = "high_risk"
	LevelMedium            Level = "medium_risk"
	LevelLow               Level = "low_risk"
)

// BreakEvenNever is the sentinel for "cannot break even at any sales volume"
// (net profit per sale is zero or negative).
const BreakEvenNever = -1

// Assessment is the outcome of one risk-of-ruin evaluation. Reason is never
// empty. Probability echoes the effective probability-of-sale the evaluation
// ran with (callers passing an out-of-range value get the configured default).
type Assessment struct {
	Level          Level           `json:"risk_level"`
	ShouldTest     bool            `json:"should_test"`
	BreakEvenSales int             `json:"break_even_sales"`
	ExpectedROI    decimal.Decimal `json:"expected_roi"`
	Probability    float64         `json:"probability_of_sale"`
	Reason         string          `json:"reason"`
}

// Evaluator holds the tunables of the cascade. Config is validated at
// startup; a non-positive RealisticSalesLimit never reaches this package.
type Evaluator struct {
	Config config.RiskConfig
}

// CalculateRiskOfRuin classifies a fixed test budget against a per-unit net
// profit. probabilityOfSale is accepted for interface stability and replaced
// by the configured default when out of (0,1]; the deterministic cascade
// does not branch on it.
//
// The cascade is ordered and the first matching branch terminates:
//  1. netProfit <= 0: guaranteed failure, break-even unreachable.
//  2. breakEvenSales > realistic limit: high risk.
//  3. breakEvenSales > 70% of the limit: medium risk, testable only when
//     the per-unit profit clears the configured floor.
//  4. otherwise: low risk.
func (e *Evaluator) CalculateRiskOfRuin(budget, netProfit decimal.Decimal, probabilityOfSale float64) Assessment {
	if probabilityOfSale <= 0 || probabilityOfSale > 1 {
		probabilityOfSale = e.Config.DefaultProbability
	}

	if !netProfit.IsPositive() {
		return Assessment{
			Level:          LevelGuaranteedFailure,
			ShouldTest:     false,
			BreakEvenSales: BreakEvenNever,
			ExpectedROI:    decimal.Zero,
			Probability:    probabilityOfSale,
			Reason:         "net profit per sale is zero or negative; the budget can never be recovered",
		}
	}

	breakEvenSales := int(budget.Div(netProfit).Ceil().IntPart())
	limit := e.Config.RealisticSalesLimit
	roi := expectedROI(budget, netProfit, breakEvenSales)

	switch {
	case breakEvenSales > limit:
		return Assessment{
			Level:          LevelHigh,
			ShouldTest:     false,
			BreakEvenSales: breakEvenSales,
			ExpectedROI:    roi,
			Probability:    probabilityOfSale,
			Reason:         fmt.Sprintf("needs %d sales to break even, beyond the realistic limit of %d", breakEvenSales, limit),
		}
	case float64(breakEvenSales) > 0.7*float64(limit):
		profitFloor := decimal.NewFromFloat(e.Config.MediumRiskProfitUSD)
		return Assessment{
			Level:          LevelMedium,
			ShouldTest:     netProfit.GreaterThan(profitFloor),
			BreakEvenSales: breakEvenSales,
			ExpectedROI:    roi,
			Probability:    probabilityOfSale,
			Reason:         fmt.Sprintf("needs %d sales to break even, close to the realistic limit of %d", breakEvenSales, limit),
		}
	default:
		return Assessment{
			Level:          LevelLow,
			ShouldTest:     true,
			BreakEvenSales: breakEvenSales,
			ExpectedROI:    roi,
			Probability:    probabilityOfSale,
			Reason:         fmt.Sprintf("breaks even after %d sales, well within the realistic limit of %d", breakEvenSales, limit),
		}
	}
}

// expectedROI is the percent return if exactly breakEvenSales units sell:
// ((netProfit * sales) - budget) / budget * 100.
func expectedROI(budget, netProfit decimal.Decimal, breakEvenSales int) decimal.Decimal {
	if !budget.IsPositive() {
		return decimal.Zero
	}
	gross := netProfit.Mul(decimal.NewFromInt(int64(breakEvenSales)))
	return gross.Sub(budget).Div(budget).Mul(decimal.NewFromInt(100)).Round(2)
}
