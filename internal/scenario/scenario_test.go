package scenario

import (
	"testing"

	"github.com/shopspring/decimal"
)

func inputs(price, cost, shipping, ad, returnRate float64) ProfitInputs {
	return ProfitInputs{
		SellingPrice:  decimal.NewFromFloat(price),
		ProductCost:   decimal.NewFromFloat(cost),
		ShippingCost:  decimal.NewFromFloat(shipping),
		AdCostPerSale: decimal.NewFromFloat(ad),
		ReturnRate:    decimal.NewFromFloat(returnRate),
	}
}

func TestCalculateNetProfit(t *testing.T) {
	// price=40 cost=10 shipping=3 ad=5 rr=0.05
	// returnCost=2, netProfit=40-10-3-5-2=20, margin=50%, breakEven=20.
	res := CalculateNetProfit(inputs(40, 10, 3, 5, 0.05))
	if res.NetProfit.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("net_profit=%s want=20", res.NetProfit.String())
	}
	if res.ProfitMargin.Cmp(decimal.NewFromInt(50)) != 0 {
		t.Fatalf("profit_margin=%s want=50", res.ProfitMargin.String())
	}
	if res.BreakEvenPrice.Cmp(decimal.NewFromInt(20)) != 0 {
		t.Fatalf("break_even=%s want=20", res.BreakEvenPrice.String())
	}
}

func TestCalculateNetProfit_NegativeProfit(t *testing.T) {
	res := CalculateNetProfit(inputs(10, 9, 3, 2, 0.05))
	if !res.NetProfit.IsNegative() {
		t.Fatalf("net_profit=%s want negative", res.NetProfit.String())
	}
	if !res.ProfitMargin.IsNegative() {
		t.Fatalf("profit_margin=%s want negative", res.ProfitMargin.String())
	}
}

func TestCalculateNetProfit_ZeroPriceGuard(t *testing.T) {
	res := CalculateNetProfit(inputs(0, 5, 0, 0, 0.05))
	if !res.ProfitMargin.IsZero() {
		t.Fatalf("profit_margin=%s want=0 when selling price is 0", res.ProfitMargin.String())
	}
}

func TestCalculateNetProfit_MarginIdentity(t *testing.T) {
	cases := []ProfitInputs{
		inputs(40, 10, 3, 5, 0.05),
		inputs(19.99, 4.5, 1.25, 6, 0.05),
		inputs(7.5, 8, 0, 0, 0.08),
		inputs(120, 30, 10, 25, 0.03),
	}
	tolerance := decimal.NewFromFloat(0.01)
	for i, in := range cases {
		res := CalculateNetProfit(in)
		want := res.NetProfit.Div(in.SellingPrice).Mul(decimal.NewFromInt(100))
		if res.ProfitMargin.Sub(want).Abs().GreaterThan(tolerance) {
			t.Fatalf("case %d: margin=%s want~%s", i, res.ProfitMargin.String(), want.StringFixed(2))
		}
	}
}

func TestCalculateNetProfit_Rounding(t *testing.T) {
	// returnCost=0.9995 => netProfit=19.99-3-0.9995=15.9905 => 15.99.
	res := CalculateNetProfit(inputs(19.99, 3, 0, 0, 0.05))
	if res.NetProfit.Cmp(decimal.NewFromFloat(15.99)) != 0 {
		t.Fatalf("net_profit=%s want=15.99", res.NetProfit.String())
	}
	if res.NetProfit.Exponent() < -2 {
		t.Fatalf("net_profit=%s has more than 2 decimal places", res.NetProfit.String())
	}
}

func TestCalculateScenarios_Monotonic(t *testing.T) {
	cases := []ProfitInputs{
		inputs(40, 10, 3, 5, 0.05),
		inputs(15, 6, 2, 4, 0.05),
		inputs(99.99, 20, 5, 12, 0.05),
		inputs(9, 8, 1, 1, 0.05),
	}
	for i, in := range cases {
		set := CalculateScenarios(in)
		if set.Bull.NetProfit.LessThan(set.Base.NetProfit) {
			t.Fatalf("case %d: bull=%s < base=%s", i, set.Bull.NetProfit.String(), set.Base.NetProfit.String())
		}
		if set.Base.NetProfit.LessThan(set.Bear.NetProfit) {
			t.Fatalf("case %d: base=%s < bear=%s", i, set.Base.NetProfit.String(), set.Bear.NetProfit.String())
		}
	}
}

func TestCalculateScenarios_NoAliasing(t *testing.T) {
	in := inputs(40, 10, 3, 5, 0.05)
	set := CalculateScenarios(in)
	// Base must equal a direct computation on the untouched inputs.
	direct := CalculateNetProfit(in)
	if set.Base.NetProfit.Cmp(direct.NetProfit) != 0 ||
		set.Base.ProfitMargin.Cmp(direct.ProfitMargin) != 0 ||
		set.Base.BreakEvenPrice.Cmp(direct.BreakEvenPrice) != 0 {
		t.Fatalf("base=%+v want=%+v", set.Base, direct)
	}
}
