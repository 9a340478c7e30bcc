package risk

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"dropscout/internal/config"
)

func newEvaluator() *Evaluator {
	return &Evaluator{Config: config.RiskConfig{
		RealisticSalesLimit:  100,
		MediumRiskProfitUSD:  5,
		DefaultProbability:   0.5,
		DefaultTestBudgetUSD: 150,
	}}
}

func TestCalculateRiskOfRuin_GuaranteedFailure(t *testing.T) {
	e := newEvaluator()
	for _, profit := range []float64{0, -0.01, -50} {
		for _, budget := range []float64{10, 150, 100000} {
			a := e.CalculateRiskOfRuin(decimal.NewFromFloat(budget), decimal.NewFromFloat(profit), 0.5)
			if a.Level != LevelGuaranteedFailure {
				t.Fatalf("profit=%v budget=%v level=%s want=%s", profit, budget, a.Level, LevelGuaranteedFailure)
			}
			if a.ShouldTest {
				t.Fatalf("profit=%v budget=%v should_test=true want=false", profit, budget)
			}
			if a.BreakEvenSales != BreakEvenNever {
				t.Fatalf("break_even_sales=%d want sentinel %d", a.BreakEvenSales, BreakEvenNever)
			}
			if a.Reason == "" {
				t.Fatalf("reason must not be empty")
			}
		}
	}
}

func TestCalculateRiskOfRuin_BreakEvenExact(t *testing.T) {
	e := newEvaluator()
	a := e.CalculateRiskOfRuin(decimal.NewFromInt(100), decimal.NewFromInt(10), 0.5)
	if a.BreakEvenSales != 10 {
		t.Fatalf("break_even_sales=%d want=10", a.BreakEvenSales)
	}
	if a.Level != LevelLow {
		t.Fatalf("level=%s want=%s", a.Level, LevelLow)
	}
	if !a.ShouldTest {
		t.Fatalf("should_test=false want=true")
	}
	// ROI at exactly break-even sales is 0%.
	if !a.ExpectedROI.IsZero() {
		t.Fatalf("expected_roi=%s want=0", a.ExpectedROI.String())
	}
}

func TestCalculateRiskOfRuin_BreakEvenCeil(t *testing.T) {
	e := newEvaluator()
	// 100 / 3 = 33.33 => 34 sales.
	a := e.CalculateRiskOfRuin(decimal.NewFromInt(100), decimal.NewFromInt(3), 0.5)
	if a.BreakEvenSales != 34 {
		t.Fatalf("break_even_sales=%d want=34", a.BreakEvenSales)
	}
}

func TestCalculateRiskOfRuin_HighRisk(t *testing.T) {
	e := newEvaluator()
	// 500 / 4 = 125 > 100.
	a := e.CalculateRiskOfRuin(decimal.NewFromInt(500), decimal.NewFromInt(4), 0.5)
	if a.Level != LevelHigh {
		t.Fatalf("level=%s want=%s", a.Level, LevelHigh)
	}
	if a.ShouldTest {
		t.Fatalf("should_test=true want=false")
	}
	if !strings.Contains(a.Reason, "125") {
		t.Fatalf("reason %q should embed break-even sales", a.Reason)
	}
}

func TestCalculateRiskOfRuin_MediumRiskProfitGate(t *testing.T) {
	e := newEvaluator()
	// 80 sales > 70% of 100: medium risk either way, testable only above the
	// per-unit profit floor.
	low := e.CalculateRiskOfRuin(decimal.NewFromInt(320), decimal.NewFromInt(4), 0.5)
	if low.Level != LevelMedium {
		t.Fatalf("level=%s want=%s", low.Level, LevelMedium)
	}
	if low.ShouldTest {
		t.Fatalf("should_test=true want=false for profit below floor")
	}

	high := e.CalculateRiskOfRuin(decimal.NewFromInt(480), decimal.NewFromInt(6), 0.5)
	if high.Level != LevelMedium {
		t.Fatalf("level=%s want=%s", high.Level, LevelMedium)
	}
	if !high.ShouldTest {
		t.Fatalf("should_test=false want=true for profit above floor")
	}
}

func TestCalculateRiskOfRuin_MediumBoundary(t *testing.T) {
	e := newEvaluator()
	// Exactly 70 sales is NOT > 0.7 * 100, so it stays low risk.
	a := e.CalculateRiskOfRuin(decimal.NewFromInt(700), decimal.NewFromInt(10), 0.5)
	if a.BreakEvenSales != 70 {
		t.Fatalf("break_even_sales=%d want=70", a.BreakEvenSales)
	}
	if a.Level != LevelLow {
		t.Fatalf("level=%s want=%s", a.Level, LevelLow)
	}
	// 71 crosses the threshold.
	b := e.CalculateRiskOfRuin(decimal.NewFromInt(710), decimal.NewFromInt(10), 0.5)
	if b.Level != LevelMedium {
		t.Fatalf("level=%s want=%s", b.Level, LevelMedium)
	}
}

func TestCalculateRiskOfRuin_ProbabilityDefaulted(t *testing.T) {
	e := newEvaluator()
	a := e.CalculateRiskOfRuin(decimal.NewFromInt(100), decimal.NewFromInt(10), 0)
	if a.Probability != 0.5 {
		t.Fatalf("probability=%v want configured default 0.5", a.Probability)
	}
}

func TestCalculateRiskOfRuin_ReasonsDistinct(t *testing.T) {
	e := newEvaluator()
	seen := map[string]Level{}
	cases := []struct {
		budget, profit float64
	}{
		{100, -1}, // guaranteed failure
		{500, 4},  // high
		{320, 4},  // medium
		{100, 10}, // low
	}
	for _, c := range cases {
		a := e.CalculateRiskOfRuin(decimal.NewFromFloat(c.budget), decimal.NewFromFloat(c.profit), 0.5)
		if prev, ok := seen[a.Reason]; ok && prev != a.Level {
			t.Fatalf("reason %q reused across levels %s and %s", a.Reason, prev, a.Level)
		}
		seen[a.Reason] = a.Level
	}
	if len(seen) != 4 {
		t.Fatalf("got %d distinct reasons, want 4", len(seen))
	}
}
